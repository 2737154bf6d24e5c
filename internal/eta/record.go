package eta

import (
	"math"
	"time"
)

// MissingSentinel marks a missing efficiency value in the raw input files.
const MissingSentinel = -32767

// Observation is a single efficiency reading taken at a given geo location
// and depth at a given time.
type Observation struct {
	// Dimensions
	Date      time.Time
	Depth     float64
	Longitude float64
	Latitude  float64

	// Metric. NaN when the reading is missing.
	Eta float64
}

// Missing reports whether the reading has no value.
func (o Observation) Missing() bool {
	return math.IsNaN(o.Eta)
}

func etaValue(v float64) float64 {
	if v == MissingSentinel {
		return math.NaN()
	}
	return v
}
