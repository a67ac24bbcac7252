package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeatedGreenhouseLikely(t *testing.T) {
	tests := []struct {
		name string
		crop string
		zone string
		mon  int
		lat  float64
		want bool
	}{
		{"tomato in continental january", "tomato", "Dfb", 1, 52.5, true},
		{"tomato in mediterranean january", "tomato", "Csa", 1, 41.9, false},
		{"tomato in continental july", "tomato", "Dfb", 7, 52.5, false},
		{"apple in continental january", "apple", "Dfb", 1, 52.5, false},
		{"tomato in southern-hemisphere july", "tomato", "Dfb", 7, -38.0, true},
		{"tomato in southern-hemisphere january", "tomato", "Dfb", 1, -38.0, false},
		{"polar zone counts as cold", "cucumber", "ET", 12, 64.1, true},
		{"name is normalized", "Bell Pepper", "Dfa", 2, 45.0, true},
		{"march is still northern winter", "strawberry", "Dwa", 3, 39.9, true},
		{"april is not", "strawberry", "Dwa", 4, 39.9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HeatedGreenhouseLikely(tt.crop, tt.zone, tt.mon, tt.lat))
		})
	}
}
