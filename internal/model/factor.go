package model

import "github.com/rotisserie/eris"

// Production-system codes carried by GHG factors. Anything else is a named
// system such as "heated_greenhouse" or "open_field".
const (
	SystemUnknown          = "unknown"
	SystemBaseline         = "baseline"
	SystemHeatedGreenhouse = "heated_greenhouse"
	SystemOpenField        = "open_field"
)

// GhgUnit is the single unit all factors are stored in.
const GhgUnit = "kg CO2e / kg food"

// GhgFactor is an emission-factor record for one food in one region and
// production system. Many factors may exist per food; the resolver picks one.
type GhgFactor struct {
	ID         string  `json:"id"`
	FoodID     string  `json:"food_id"`
	RegionCode string  `json:"region_code"` // ISO 3166-1 alpha-2, subdivision, continent, or GLOBAL
	SystemCode string  `json:"system_code"`
	ValueMin   float64 `json:"value_min"`
	ValueMid   float64 `json:"value_mid"`
	ValueMax   float64 `json:"value_max"`
	Unit       string  `json:"unit"`
	Year       int     `json:"year"`
	SourceID   string  `json:"source_id"`
	Quality    Quality `json:"quality_score"`
}

// Validate enforces the write-time invariants. A factor violating the value
// range ordering is rejected, never stored.
func (g GhgFactor) Validate() error {
	if g.FoodID == "" {
		return eris.New("ghg factor: missing food id")
	}
	if g.RegionCode == "" {
		return eris.Errorf("ghg factor for %s: missing region code", g.FoodID)
	}
	if g.SourceID == "" {
		return eris.Errorf("ghg factor for %s: missing source id", g.FoodID)
	}
	if g.ValueMin > g.ValueMid || g.ValueMid > g.ValueMax {
		return eris.Errorf("ghg factor for %s/%s: value range violated (min=%.3f mid=%.3f max=%.3f)",
			g.FoodID, g.RegionCode, g.ValueMin, g.ValueMid, g.ValueMax)
	}
	if !g.Quality.Valid() {
		return eris.Errorf("ghg factor for %s/%s: unknown quality %q", g.FoodID, g.RegionCode, g.Quality)
	}
	return nil
}
