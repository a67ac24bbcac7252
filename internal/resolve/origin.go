package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/region"
)

// OriginSelection is the ranked list of likely origin regions for a food in
// a destination region. A nil selection means no cited origin data exists;
// origins are never invented.
type OriginSelection struct {
	Origins     []model.Origin
	Explanation string
}

// SelectOrigins returns origins for an exact destination match, sorted by
// probability descending (stable), or falls back to the bare country with a
// note. Nil when neither level has data.
func SelectOrigins(origins []model.Origin, destination region.Ref) *OriginSelection {
	if exact := matchDestination(origins, destination); len(exact) > 0 {
		sortByProbability(exact)
		return &OriginSelection{
			Origins:     exact,
			Explanation: fmt.Sprintf("Origin data available for %s imports of this food.", destination.Code()),
		}
	}

	if destination.Kind == region.KindSubdivision {
		country := region.Country(destination.Country)
		if byCountry := matchDestination(origins, country); len(byCountry) > 0 {
			sortByProbability(byCountry)
			return &OriginSelection{
				Origins:     byCountry,
				Explanation: fmt.Sprintf("Using %s-level origin data (no data for %s).", country.Code(), destination.Code()),
			}
		}
	}

	return nil
}

// WaterRiskForRegion joins an origin region code to its water-risk record.
// Nil when no record exists for that region; callers must render no badge
// rather than a default.
func WaterRiskForRegion(regionCode string, risks []model.WaterRisk) *model.WaterRisk {
	for i := range risks {
		if strings.EqualFold(risks[i].RegionCode, regionCode) {
			return &risks[i]
		}
	}
	return nil
}

func matchDestination(origins []model.Origin, dest region.Ref) []model.Origin {
	var out []model.Origin
	for _, o := range origins {
		if dest.Matches(o.DestinationRegionCode) {
			out = append(out, o)
		}
	}
	return out
}

func sortByProbability(origins []model.Origin) {
	sort.SliceStable(origins, func(i, j int) bool {
		return origins[i].Probability > origins[j].Probability
	})
}
