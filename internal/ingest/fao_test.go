package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthProbability(t *testing.T) {
	cal := faoCalendar{planting: []int{3, 4}, harvest: []int{7, 8, 9}}

	tests := []struct {
		name     string
		month    int
		wantProb float64
		wantConf float64
	}{
		{"harvest month", 8, 0.90, 0.75},
		{"planting month", 3, 0.15, 0.65},
		{"month after harvest", 10, 0.55, 0.60},
		{"month before harvest", 6, 0.55, 0.60},
		{"off season", 1, 0.05, 0.60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prob, conf := monthProbability(cal, tt.month)
			assert.Equal(t, tt.wantProb, prob)
			assert.Equal(t, tt.wantConf, conf)
		})
	}
}

func TestMonthProbabilityYearWrap(t *testing.T) {
	// December harvest makes January adjacent across the year boundary.
	cal := faoCalendar{harvest: []int{12}}
	prob, conf := monthProbability(cal, 1)
	assert.Equal(t, 0.55, prob)
	assert.Equal(t, 0.60, conf)
}

func TestMonthProbabilityHarvestBeatsPlanting(t *testing.T) {
	// A month in both windows counts as harvest.
	cal := faoCalendar{planting: []int{5}, harvest: []int{5}}
	prob, conf := monthProbability(cal, 5)
	assert.Equal(t, 0.90, prob)
	assert.Equal(t, 0.75, conf)
}

func TestFaoCalendarsUseSeededFoods(t *testing.T) {
	foods := make(map[string]bool)
	for _, f := range seedFoods() {
		foods[f.ID] = true
	}
	for foodID := range faoCalendars {
		assert.True(t, foods[foodID], "calendar for unseeded food %s", foodID)
	}
}
