package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateZone_CityTable(t *testing.T) {
	// Phoenix is a desert city inside the Cfa latitude band; the city table
	// must win over the band heuristic.
	assert.Equal(t, "BWh", EstimateZone(33.4, -112.1))
	// Minneapolis.
	assert.Equal(t, "Dfb", EstimateZone(44.9, -93.2))
}

func TestEstimateZone_LatitudeBands(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"polar", 70.0, 20.0, "EF"},
		{"subarctic", 58.0, -110.0, "Dfc"},
		{"continental", 47.0, 100.0, "Dfb"},
		{"mediterranean band", 38.0, 15.0, "Csa"},
		{"oceanic outside med band", 40.0, -120.0, "Cfb"},
		{"subtropical", 28.0, 110.0, "Cfa"},
		{"tropical savanna", 15.0, 35.0, "Aw"},
		{"equatorial", 2.0, 20.0, "Af"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateZone(tt.lat, tt.lon))
		})
	}
}

func TestEstimateZone_SouthernHemisphere(t *testing.T) {
	// Latitude bands use absolute latitude.
	assert.Equal(t, "Dfc", EstimateZone(-58.0, -100.0))
}
