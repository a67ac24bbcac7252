package resolve

import (
	"fmt"

	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/region"
)

// FactorSelection is the outcome of GHG factor resolution for one food and
// one user region. Quality is the presented score, already demoted when the
// resolution fell back to global.
type FactorSelection struct {
	Factor      model.GhgFactor
	Resolution  model.ResolutionLevel
	Quality     model.Quality
	Explanation string
}

// SelectFactor picks the single best factor for a user region, trying exact
// region, then the bare country for subdivisions, then the continent, then
// GLOBAL. A nil return means no citable factor exists; the last-resort path
// (first available factor when the whole chain is empty) is flagged at the
// lowest quality so it is never mistaken for a resolved answer.
//
// systemCode filters candidates: empty means baseline/unknown systems only;
// a named system such as "heated_greenhouse" selects factors for that system.
func SelectFactor(factors []model.GhgFactor, userRegion region.Ref, systemCode string) *FactorSelection {
	if len(factors) == 0 {
		return nil
	}

	candidates := filterBySystem(factors, systemCode)
	if len(candidates) == 0 {
		return nil
	}

	// Exact region match.
	if f := matchRegion(candidates, userRegion); f != nil {
		return &FactorSelection{
			Factor:      *f,
			Resolution:  model.ResolutionRegion,
			Quality:     f.Quality,
			Explanation: fmt.Sprintf("Using %s-specific factor from source %s.", userRegion.Code(), f.SourceID),
		}
	}

	// Subdivision falls back to its bare country.
	if userRegion.Kind == region.KindSubdivision {
		country := region.Country(userRegion.Country)
		if f := matchRegion(candidates, country); f != nil {
			return &FactorSelection{
				Factor:      *f,
				Resolution:  model.ResolutionRegion,
				Quality:     f.Quality,
				Explanation: fmt.Sprintf("Using %s country-level factor from source %s.", country.Code(), f.SourceID),
			}
		}
	}

	// Continent-level match via the fixed country table.
	if country := userRegion.CountryCode(); country != "" {
		if continent, ok := region.ContinentFor(country); ok {
			if f := matchRegion(candidates, region.Continent(continent)); f != nil {
				return &FactorSelection{
					Factor:      *f,
					Resolution:  model.ResolutionContinent,
					Quality:     f.Quality,
					Explanation: fmt.Sprintf("No %s factor available; using %s continent average from source %s.", country, continent, f.SourceID),
				}
			}
		}
	}

	// Global sentinel, demoted one quality step for lost specificity.
	if f := matchRegion(candidates, region.Global()); f != nil {
		return &FactorSelection{
			Factor:      *f,
			Resolution:  model.ResolutionGlobal,
			Quality:     f.Quality.Demote(),
			Explanation: fmt.Sprintf("No regional factor for %s; using global average from source %s.", userRegion.Code(), f.SourceID),
		}
	}

	// Last resort: the chain found nothing, surface the first candidate at
	// the lowest quality rather than silently inventing a match.
	f := candidates[0]
	return &FactorSelection{
		Factor:      f,
		Resolution:  model.ResolutionGlobal,
		Quality:     model.QualityLow,
		Explanation: fmt.Sprintf("No region, continent, or global factor for %s; falling back to %s data from source %s (low confidence).", userRegion.Code(), f.RegionCode, f.SourceID),
	}
}

// filterBySystem keeps baseline/unknown-system factors, plus factors for the
// explicitly requested system when one was given.
func filterBySystem(factors []model.GhgFactor, systemCode string) []model.GhgFactor {
	out := make([]model.GhgFactor, 0, len(factors))
	for _, f := range factors {
		if f.SystemCode == model.SystemUnknown || f.SystemCode == model.SystemBaseline {
			out = append(out, f)
			continue
		}
		if systemCode != "" && f.SystemCode == systemCode {
			out = append(out, f)
		}
	}
	return out
}

func matchRegion(factors []model.GhgFactor, r region.Ref) *model.GhgFactor {
	for i := range factors {
		if r.Matches(factors[i].RegionCode) {
			return &factors[i]
		}
	}
	return nil
}
