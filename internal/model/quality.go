package model

// Quality is the coarse confidence label attached to a factual record.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Valid reports whether q is a known quality score.
func (q Quality) Valid() bool {
	switch q {
	case QualityHigh, QualityMedium, QualityLow:
		return true
	}
	return false
}

// Demote steps the quality down one level. Used when a resolver had to fall
// back to a less specific record: a high-quality global statement is still a
// global statement.
func (q Quality) Demote() Quality {
	switch q {
	case QualityHigh:
		return QualityMedium
	default:
		return QualityLow
	}
}

// ResolutionLevel names the fallback tier that produced a resolved answer.
type ResolutionLevel string

const (
	ResolutionRegion    ResolutionLevel = "region"
	ResolutionContinent ResolutionLevel = "continent"
	ResolutionGlobal    ResolutionLevel = "global"
)
