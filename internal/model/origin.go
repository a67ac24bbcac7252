package model

import "github.com/rotisserie/eris"

// Origin is a trade-flow hint: the probability that an import of one food
// into a destination region came from a given origin region. Probabilities
// are relative likelihoods, not a full distribution; they need not sum to 1
// across a destination.
type Origin struct {
	ID                    string  `json:"id"`
	FoodID                string  `json:"food_id"`
	DestinationRegionCode string  `json:"destination_region_code"`
	OriginRegionCode      string  `json:"origin_region_code"`
	Probability           float64 `json:"probability"`
	Rationale             string  `json:"rationale"`
	SourceID              string  `json:"source_id"`
}

// Validate enforces the write-time invariants.
func (o Origin) Validate() error {
	if o.FoodID == "" {
		return eris.New("origin: missing food id")
	}
	if o.DestinationRegionCode == "" || o.OriginRegionCode == "" {
		return eris.Errorf("origin for %s: missing region codes", o.FoodID)
	}
	if o.SourceID == "" {
		return eris.Errorf("origin for %s/%s: missing source id", o.FoodID, o.DestinationRegionCode)
	}
	if o.Probability < 0 || o.Probability > 1 {
		return eris.Errorf("origin for %s/%s: probability %.3f outside [0,1]",
			o.FoodID, o.DestinationRegionCode, o.Probability)
	}
	return nil
}
