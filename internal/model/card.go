package model

// GhgInfo is the resolved emissions block on a food card.
type GhgInfo struct {
	ValueMin    float64         `json:"value_min"`
	ValueMid    float64         `json:"value_mid"`
	ValueMax    float64         `json:"value_max"`
	Unit        string          `json:"unit"`
	Quality     Quality         `json:"quality_score"`
	Resolution  ResolutionLevel `json:"resolution"`
	Explanation string          `json:"explanation,omitempty"`
	SourceIDs   []string        `json:"source_ids"`
}

// SeasonalityInfo is the resolved in-season block on a food card. Nil on the
// card means no citable seasonality data exists for the location/month.
type SeasonalityInfo struct {
	Probability  float64 `json:"in_season_probability"`
	Confidence   float64 `json:"confidence"`
	SourceID     string  `json:"source_id"`
	FallbackNote string  `json:"fallback_note,omitempty"`
}

// OriginInfo is one likely-origin entry, optionally carrying a water-risk
// badge for the origin region. A nil RiskBucket means no water-risk row
// exists for that region; it is never defaulted.
type OriginInfo struct {
	RegionCode  string           `json:"region_code"`
	Probability float64          `json:"probability"`
	Rationale   string           `json:"rationale,omitempty"`
	SourceID    string           `json:"source_id"`
	RiskBucket  *WaterRiskBucket `json:"water_risk_bucket,omitempty"`
	RiskScore   *float64         `json:"water_risk_score,omitempty"`
}

// MonthProbability is one point of a card's twelve-month seasonality curve.
type MonthProbability struct {
	Month       int     `json:"month"`
	Probability float64 `json:"in_season_probability"`
}

// FoodCard is the full resolved answer for one food at one location and
// month. Produced fresh per request; never persisted or cached beyond the
// request, since quality and explanations depend on the requester's region.
type FoodCard struct {
	Food             Food               `json:"food"`
	Ghg              *GhgInfo           `json:"ghg"` // nil when no citable factor resolved
	Seasonality      *SeasonalityInfo   `json:"seasonality"`
	SeasonalityNote  string             `json:"seasonality_note,omitempty"`
	SeasonalityCurve []MonthProbability `json:"seasonality_curve,omitempty"`
	Origins          []OriginInfo       `json:"origins,omitempty"`
	OriginNote       string             `json:"origin_note,omitempty"`
	BestMonths       []int              `json:"best_months,omitempty"`
	GreenhouseLikely bool               `json:"heated_greenhouse_likely"`
	SourceIDs        []string           `json:"source_ids,omitempty"`
}

// MonthlyRecommendations is the four named lists for a (region, month)
// request. Each list is independently ordered by its own criterion.
type MonthlyRecommendations struct {
	Month      int        `json:"month"`
	RegionCode string     `json:"region_code"`
	Ranked     []FoodCard `json:"ranked"`
	InSeason   []FoodCard `json:"in_season"`
	LowestCo2e []FoodCard `json:"lowest_co2e"`
	Protein    []FoodCard `json:"protein_choices"`
	Staples    []FoodCard `json:"staples"`
}
