// Package resolve contains the pure resolution and ranking logic: picking the
// best-available factual record for a location out of overlapping, partially
// missing datasets, with an explicit provenance and confidence trail. All
// functions are side-effect free and safe for concurrent use.
package resolve

import "strings"

// Warm-season crops whose winter production in cold climates typically relies
// on heated greenhouses. Closed set so the heuristic is testable by
// enumeration.
var warmSeasonCrops = map[string]bool{
	"tomato":      true,
	"pepper":      true,
	"bell_pepper": true,
	"cucumber":    true,
	"zucchini":    true,
	"eggplant":    true,
	"strawberry":  true,
	"green_bean":  true,
	"lettuce":     true,
	"basil":       true,
	"melon":       true,
	"watermelon":  true,
}

// Köppen zones with winters severe enough that greenhouse heating is likely
// required: continental D classes and polar E classes.
var coldWinterZones = map[string]bool{
	"Dfa": true, "Dfb": true, "Dfc": true, "Dfd": true,
	"Dwa": true, "Dwb": true, "Dwc": true, "Dwd": true,
	"Dsa": true, "Dsb": true, "Dsc": true,
	"ET": true, "EF": true,
}

var winterMonthsNorth = map[int]bool{11: true, 12: true, 1: true, 2: true, 3: true}
var winterMonthsSouth = map[int]bool{5: true, 6: true, 7: true, 8: true, 9: true}

// HeatedGreenhouseLikely flags likely greenhouse-heating-driven production:
// a warm-season crop grown in a severe-winter climate zone during the local
// winter. The hemisphere is implied by the sign of the latitude. This is a
// UI badge, not a quantitative emissions estimate.
func HeatedGreenhouseLikely(cropName, climateZone string, month int, latitude float64) bool {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(cropName)), " ", "_")
	if !warmSeasonCrops[normalized] {
		return false
	}
	if !coldWinterZones[climateZone] {
		return false
	}
	if latitude >= 0 {
		return winterMonthsNorth[month]
	}
	return winterMonthsSouth[month]
}
