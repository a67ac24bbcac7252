package region

import "strings"

// Continent codes used by factor records. The datasets in this system use
// NA/SA/EU/AS/AF/OC exclusively as continents, so Parse favors the continent
// reading for these six codes.
const (
	ContinentNorthAmerica = "NA"
	ContinentSouthAmerica = "SA"
	ContinentEurope       = "EU"
	ContinentAsia         = "AS"
	ContinentAfrica       = "AF"
	ContinentOceania      = "OC"
)

var continents = map[string]bool{
	ContinentNorthAmerica: true,
	ContinentSouthAmerica: true,
	ContinentEurope:       true,
	ContinentAsia:         true,
	ContinentAfrica:       true,
	ContinentOceania:      true,
}

func isContinent(code string) bool {
	return continents[code]
}

// countryContinent maps ISO 3166-1 alpha-2 country codes to continent codes.
// Coverage follows the emission-factor datasets, not the full ISO list.
var countryContinent = map[string]string{
	// North America
	"US": ContinentNorthAmerica, "CA": ContinentNorthAmerica, "MX": ContinentNorthAmerica,
	"GT": ContinentNorthAmerica, "CR": ContinentNorthAmerica, "DO": ContinentNorthAmerica,

	// Europe
	"GB": ContinentEurope, "FR": ContinentEurope, "DE": ContinentEurope, "IT": ContinentEurope,
	"ES": ContinentEurope, "NL": ContinentEurope, "BE": ContinentEurope, "SE": ContinentEurope,
	"NO": ContinentEurope, "DK": ContinentEurope, "FI": ContinentEurope, "PL": ContinentEurope,
	"PT": ContinentEurope, "AT": ContinentEurope, "CH": ContinentEurope, "IE": ContinentEurope,
	"GR": ContinentEurope, "CZ": ContinentEurope, "RO": ContinentEurope, "HU": ContinentEurope,

	// Asia
	"CN": ContinentAsia, "JP": ContinentAsia, "KR": ContinentAsia, "IN": ContinentAsia,
	"TH": ContinentAsia, "VN": ContinentAsia, "ID": ContinentAsia, "PH": ContinentAsia,
	"MY": ContinentAsia, "SG": ContinentAsia, "TW": ContinentAsia, "BD": ContinentAsia,
	"PK": ContinentAsia, "IL": ContinentAsia,

	// South America
	"BR": ContinentSouthAmerica, "AR": ContinentSouthAmerica, "CL": ContinentSouthAmerica,
	"CO": ContinentSouthAmerica, "PE": ContinentSouthAmerica, "EC": ContinentSouthAmerica,

	// Oceania
	"AU": ContinentOceania, "NZ": ContinentOceania,

	// Africa
	"ZA": ContinentAfrica, "NG": ContinentAfrica, "KE": ContinentAfrica, "ET": ContinentAfrica,
	"EG": ContinentAfrica, "MA": ContinentAfrica, "GH": ContinentAfrica,
}

// ContinentFor returns the continent code for a country, if known.
func ContinentFor(countryCode string) (string, bool) {
	c, ok := countryContinent[strings.ToUpper(countryCode)]
	return c, ok
}
