package model

import "github.com/rotisserie/eris"

// WaterRiskBucket is the discretized regional water-stress category.
type WaterRiskBucket string

const (
	WaterRiskLow           WaterRiskBucket = "low"
	WaterRiskLowMedium     WaterRiskBucket = "low_medium"
	WaterRiskMediumHigh    WaterRiskBucket = "medium_high"
	WaterRiskHigh          WaterRiskBucket = "high"
	WaterRiskExtremelyHigh WaterRiskBucket = "extremely_high"
)

// Valid reports whether b is a known bucket.
func (b WaterRiskBucket) Valid() bool {
	switch b {
	case WaterRiskLow, WaterRiskLowMedium, WaterRiskMediumHigh, WaterRiskHigh, WaterRiskExtremelyHigh:
		return true
	}
	return false
}

// BucketForScore maps a baseline water-stress score to its bucket using the
// WRI Aqueduct thresholds. The mapping is the only way buckets are derived.
func BucketForScore(score float64) WaterRiskBucket {
	switch {
	case score < 1.0:
		return WaterRiskLow
	case score < 2.0:
		return WaterRiskLowMedium
	case score < 3.0:
		return WaterRiskMediumHigh
	case score < 4.0:
		return WaterRiskHigh
	default:
		return WaterRiskExtremelyHigh
	}
}

// WaterRisk is a water-stress record keyed by region code and indicator name.
type WaterRisk struct {
	ID            string          `json:"id"`
	RegionCode    string          `json:"region_code"`
	IndicatorName string          `json:"indicator_name"`
	Score         float64         `json:"score"`
	Bucket        WaterRiskBucket `json:"bucket"`
	SourceID      string          `json:"source_id"`
}

// Validate enforces the write-time invariants, including that the stored
// bucket agrees with the score-derived one.
func (w WaterRisk) Validate() error {
	if w.RegionCode == "" {
		return eris.New("water risk: missing region code")
	}
	if w.IndicatorName == "" {
		return eris.Errorf("water risk for %s: missing indicator name", w.RegionCode)
	}
	if w.SourceID == "" {
		return eris.Errorf("water risk for %s: missing source id", w.RegionCode)
	}
	if !w.Bucket.Valid() {
		return eris.Errorf("water risk for %s: unknown bucket %q", w.RegionCode, w.Bucket)
	}
	if w.Bucket != BucketForScore(w.Score) {
		return eris.Errorf("water risk for %s: bucket %q does not match score %.2f",
			w.RegionCode, w.Bucket, w.Score)
	}
	return nil
}
