package model

import "github.com/rotisserie/eris"

// Seasonality is an in-season probability for one food, region, and month.
// Unique per (food, region, month). The region code may be a country, a
// subdivision, a CLIMATE:<zone> pseudo-region, or GLOBAL.
type Seasonality struct {
	ID          string  `json:"id"`
	FoodID      string  `json:"food_id"`
	RegionCode  string  `json:"region_code"`
	Month       int     `json:"month"` // 1-12
	Probability float64 `json:"in_season_probability"`
	Confidence  float64 `json:"confidence"`
	SourceID    string  `json:"source_id"`
}

// Validate enforces the write-time invariants.
func (s Seasonality) Validate() error {
	if s.FoodID == "" {
		return eris.New("seasonality: missing food id")
	}
	if s.RegionCode == "" {
		return eris.Errorf("seasonality for %s: missing region code", s.FoodID)
	}
	if s.SourceID == "" {
		return eris.Errorf("seasonality for %s/%s: missing source id", s.FoodID, s.RegionCode)
	}
	if s.Month < 1 || s.Month > 12 {
		return eris.Errorf("seasonality for %s/%s: month %d outside 1-12", s.FoodID, s.RegionCode, s.Month)
	}
	if s.Probability < 0 || s.Probability > 1 {
		return eris.Errorf("seasonality for %s/%s: probability %.3f outside [0,1]", s.FoodID, s.RegionCode, s.Probability)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return eris.Errorf("seasonality for %s/%s: confidence %.3f outside [0,1]", s.FoodID, s.RegionCode, s.Confidence)
	}
	return nil
}

// MonthName returns the English name for a month number 1-12.
func MonthName(month int) string {
	names := [...]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	if month < 1 || month > 12 {
		return ""
	}
	return names[month-1]
}
