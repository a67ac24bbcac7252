package region

import (
	"fmt"
	"math"
)

// ZoneDescriptions names the Köppen zones that appear in the datasets.
// Used verbatim in fallback notes.
var ZoneDescriptions = map[string]string{
	"Af":  "Tropical rainforest",
	"Am":  "Tropical monsoon",
	"Aw":  "Tropical savanna (dry winter)",
	"As":  "Tropical savanna (dry summer)",
	"BWh": "Hot desert",
	"BWk": "Cold desert",
	"BSh": "Hot semi-arid (steppe)",
	"BSk": "Cold semi-arid (steppe)",
	"Csa": "Mediterranean (hot summer)",
	"Csb": "Mediterranean (warm summer)",
	"Cwa": "Humid subtropical (dry winter)",
	"Cwb": "Subtropical highland (dry winter)",
	"Cfa": "Humid subtropical",
	"Cfb": "Oceanic",
	"Cfc": "Subpolar oceanic",
	"Dsa": "Continental (hot, dry summer)",
	"Dsb": "Continental (warm, dry summer)",
	"Dsc": "Continental (cool, dry summer)",
	"Dwa": "Continental (hot, dry winter)",
	"Dwb": "Continental (warm, dry winter)",
	"Dwc": "Continental (cool, dry winter)",
	"Dfa": "Continental (hot summer, no dry season)",
	"Dfb": "Continental (warm summer, no dry season)",
	"Dfc": "Subarctic",
	"Dfd": "Extreme subarctic",
	"ET":  "Tundra",
	"EF":  "Ice cap",
}

// cityZones holds representative Köppen zones for major cities and growing
// regions, keyed by "lat,lon" rounded to the nearest degree. Derived from the
// Beck et al. (2018) 1-km classification; consulted before the latitude
// heuristic.
var cityZones = map[string]string{
	// North America
	"41,-74": "Cfa", "34,-118": "Csb", "42,-88": "Dfa", "30,-98": "Cfa",
	"26,-80": "Af", "37,-122": "Csb", "47,-122": "Cfb", "33,-112": "BWh",
	"40,-105": "BSk", "45,-93": "Dfb", "36,-79": "Cfa", "43,-79": "Dfb",
	"45,-74": "Dfb", "49,-123": "Cfb", "19,-99": "Cwb", "21,-87": "Aw",

	// South America
	"-23,-47": "Cfa", "-23,-43": "Aw", "-34,-58": "Cfa", "-33,-71": "Csb",
	"5,-74": "Af", "-12,-77": "BWh", "0,-78": "Cfb",

	// Europe
	"52,0": "Cfb", "49,2": "Cfb", "52,13": "Cfb", "41,12": "Csa",
	"40,-4": "Csa", "38,-9": "Csa", "52,5": "Cfb", "59,18": "Dfb",
	"60,25": "Dfb", "48,17": "Dfb", "38,24": "Csa", "44,26": "Dfa",
	"47,19": "Dfb",

	// Asia
	"36,140": "Cfa", "37,127": "Dwa", "31,121": "Cfa", "40,116": "Dwa",
	"29,77": "Cwa", "19,73": "Aw", "14,101": "Aw", "21,106": "Cwa",
	"-6,107": "Af", "14,121": "Aw", "25,121": "Cfa", "1,104": "Af",

	// Middle East and Africa
	"25,55": "BWh", "32,35": "Csa", "33,44": "BWh",
	"-34,18": "Csb", "-26,28": "Cwb", "6,3": "Aw", "30,31": "BWh",
	"-1,37": "BSh", "9,39": "Cwb", "34,-7": "Csa", "6,-2": "Aw",

	// Oceania
	"-34,151": "Cfa", "-38,145": "Cfb", "-28,153": "Cfa", "-42,147": "Cfb",
	"-37,175": "Cfb",
}

// EstimateZone maps coordinates to a coarse Köppen climate zone. It checks
// the city table within one rounded degree first, then falls back to
// latitude bands. The zone is only a seasonality and greenhouse-heuristic
// fallback key, never an agronomic classification.
func EstimateZone(lat, lon float64) string {
	rlat := int(math.Round(lat))
	rlon := int(math.Round(lon))

	if z, ok := cityZones[zoneKey(rlat, rlon)]; ok {
		return z
	}
	for _, dLat := range []int{-1, 0, 1} {
		for _, dLon := range []int{-1, 0, 1} {
			if z, ok := cityZones[zoneKey(rlat+dLat, rlon+dLon)]; ok {
				return z
			}
		}
	}

	absLat := math.Abs(lat)
	switch {
	case absLat >= 66.5:
		return "EF"
	case absLat >= 55:
		return "Dfc"
	case absLat >= 45:
		return "Dfb"
	case absLat >= 35:
		// Mediterranean band vs oceanic default.
		if lon > -10 && lon < 40 && lat > 30 && lat < 45 {
			return "Csa"
		}
		return "Cfb"
	case absLat >= 23.5:
		return "Cfa"
	case absLat >= 10:
		return "Aw"
	default:
		return "Af"
	}
}

func zoneKey(lat, lon int) string {
	return fmt.Sprintf("%d,%d", lat, lon)
}
