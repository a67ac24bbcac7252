package region

import "strings"

// US macro-regions used as seasonality fallback keys when no state-level
// calendar exists. The groupings track broad growing-season similarity, not
// census divisions.
const (
	MacroUSWest      = "US-W"
	MacroUSSouthwest = "US-SW"
	MacroUSMidwest   = "US-MW"
	MacroUSSoutheast = "US-SE"
	MacroUSNortheast = "US-NE"
)

var stateMacroRegion = map[string]string{
	// West
	"CA": MacroUSWest, "OR": MacroUSWest, "WA": MacroUSWest, "ID": MacroUSWest,
	"NV": MacroUSWest, "MT": MacroUSWest, "WY": MacroUSWest, "UT": MacroUSWest,
	"CO": MacroUSWest, "AK": MacroUSWest, "HI": MacroUSWest,

	// Southwest
	"AZ": MacroUSSouthwest, "NM": MacroUSSouthwest, "TX": MacroUSSouthwest, "OK": MacroUSSouthwest,

	// Midwest
	"ND": MacroUSMidwest, "SD": MacroUSMidwest, "NE": MacroUSMidwest, "KS": MacroUSMidwest,
	"MN": MacroUSMidwest, "IA": MacroUSMidwest, "MO": MacroUSMidwest, "WI": MacroUSMidwest,
	"IL": MacroUSMidwest, "IN": MacroUSMidwest, "MI": MacroUSMidwest, "OH": MacroUSMidwest,

	// Southeast
	"AR": MacroUSSoutheast, "LA": MacroUSSoutheast, "MS": MacroUSSoutheast, "AL": MacroUSSoutheast,
	"TN": MacroUSSoutheast, "KY": MacroUSSoutheast, "WV": MacroUSSoutheast, "VA": MacroUSSoutheast,
	"NC": MacroUSSoutheast, "SC": MacroUSSoutheast, "GA": MacroUSSoutheast, "FL": MacroUSSoutheast,

	// Northeast
	"ME": MacroUSNortheast, "NH": MacroUSNortheast, "VT": MacroUSNortheast, "MA": MacroUSNortheast,
	"RI": MacroUSNortheast, "CT": MacroUSNortheast, "NY": MacroUSNortheast, "NJ": MacroUSNortheast,
	"PA": MacroUSNortheast, "DE": MacroUSNortheast, "MD": MacroUSNortheast, "DC": MacroUSNortheast,
}

// MacroRegionForState maps a US state code (the part after "US-") to its
// macro-region code, if known.
func MacroRegionForState(state string) (string, bool) {
	m, ok := stateMacroRegion[strings.ToUpper(state)]
	return m, ok
}
