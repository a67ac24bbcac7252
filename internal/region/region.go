// Package region models the region-code hierarchy shared by all resolvers:
// countries, subdivisions, continents, climate pseudo-regions, and the GLOBAL
// sentinel, plus the coarse lookup tables used for fallback resolution.
package region

import "strings"

// Kind discriminates the Ref variant.
type Kind int

const (
	KindGlobal Kind = iota
	KindCountry
	KindSubdivision
	KindContinent
	KindClimateZone
)

// climatePrefix namespaces climate pseudo-regions in stored region codes.
const climatePrefix = "CLIMATE:"

// GlobalCode is the sentinel region code for global-average records.
const GlobalCode = "GLOBAL"

// Ref is a parsed region reference. The fallback chains in the resolvers
// switch on Kind rather than re-parsing strings.
type Ref struct {
	Kind        Kind
	Country     string // KindCountry, KindSubdivision
	Subdivision string // KindSubdivision: the part after the dash, e.g. "CA"
	Continent   string // KindContinent
	Zone        string // KindClimateZone
}

// Global returns the GLOBAL sentinel reference.
func Global() Ref {
	return Ref{Kind: KindGlobal}
}

// Country returns a country-level reference.
func Country(code string) Ref {
	return Ref{Kind: KindCountry, Country: strings.ToUpper(code)}
}

// Subdivision returns a subdivision-level reference such as US-CA.
func Subdivision(country, sub string) Ref {
	return Ref{Kind: KindSubdivision, Country: strings.ToUpper(country), Subdivision: strings.ToUpper(sub)}
}

// Continent returns a continent-level reference (NA, SA, EU, AS, AF, OC).
func Continent(code string) Ref {
	return Ref{Kind: KindContinent, Continent: strings.ToUpper(code)}
}

// ClimateZone returns a climate pseudo-region reference for a Köppen zone.
func ClimateZone(zone string) Ref {
	return Ref{Kind: KindClimateZone, Zone: zone}
}

// Parse classifies a raw region code as stored in factual records or supplied
// by a caller. Unrecognized two-letter codes parse as countries; continent
// codes are only recognized when they are not also in use as country codes.
func Parse(code string) Ref {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, GlobalCode) {
		return Global()
	}
	if rest, ok := cutPrefixFold(code, climatePrefix); ok {
		return ClimateZone(rest)
	}
	upper := strings.ToUpper(code)
	if country, sub, ok := strings.Cut(upper, "-"); ok {
		return Subdivision(country, sub)
	}
	if isContinent(upper) {
		return Continent(upper)
	}
	return Country(upper)
}

// Code renders the canonical string form, the inverse of Parse.
func (r Ref) Code() string {
	switch r.Kind {
	case KindCountry:
		return r.Country
	case KindSubdivision:
		return r.Country + "-" + r.Subdivision
	case KindContinent:
		return r.Continent
	case KindClimateZone:
		return climatePrefix + r.Zone
	default:
		return GlobalCode
	}
}

// CountryCode returns the country for country and subdivision refs, and ""
// for the rest.
func (r Ref) CountryCode() string {
	return r.Country
}

// Matches reports whether a stored record region code refers to this region.
// Comparison is case-insensitive on the canonical form.
func (r Ref) Matches(recordCode string) bool {
	return strings.EqualFold(strings.TrimSpace(recordCode), r.Code())
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
