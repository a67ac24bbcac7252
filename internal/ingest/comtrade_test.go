package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCuratedOriginsProbabilities(t *testing.T) {
	for dest, foodMap := range curatedOrigins {
		for foodID, entries := range foodMap {
			var sum float64
			for _, e := range entries {
				assert.Greater(t, e.probability, 0.0, "%s/%s %s", dest, foodID, e.origin)
				assert.LessOrEqual(t, e.probability, 1.0, "%s/%s %s", dest, foodID, e.origin)
				assert.NotEmpty(t, e.rationale, "%s/%s %s", dest, foodID, e.origin)
				sum += e.probability
			}
			assert.LessOrEqual(t, sum, 1.001, "%s/%s probabilities exceed 1", dest, foodID)
		}
	}
}

func TestCuratedOriginsUseSeededFoods(t *testing.T) {
	seeded := make(map[string]bool)
	for _, f := range seedFoods() {
		seeded[f.ID] = true
	}

	for dest, foodMap := range curatedOrigins {
		for foodID := range foodMap {
			assert.True(t, seeded[foodID], "%s cites unseeded food %s", dest, foodID)
		}
	}
}

func TestHSCodesCoverCuratedFoods(t *testing.T) {
	for _, foodMap := range curatedOrigins {
		for foodID := range foodMap {
			assert.Contains(t, hsCodes, foodID)
		}
	}
}
