package tellus

import (
	"github.com/maseology/tellus/atmos"
	"github.com/maseology/tellus/flow"
)

// ConservationReport is the per-tick audit consumed by telemetry and
// tests. It is assembled from the engines' committed reports by a
// read-only pass and never feeds back into the simulation.
type ConservationReport struct {
	Step     int
	Season   float64 // annual phase [0,1)
	Storage  float64 // surface water held on the grid [m³]
	MassErr  float64 // relative water-balance closure error
	Momentum float64 // summed wind speed [m/s]
	DivFrac  float64 // cell fraction violating continuity
	CflCount int     // wet cells demanding more than the substep budget
	Violated bool    // MassErr beyond tolerance

	Flow flow.Report
	Wind atmos.Report
}

// Outflow returns the water shed across all four boundary edges this
// tick [m³].
func (r *ConservationReport) Outflow() float64 {
	s := 0.
	for _, o := range r.Flow.Out {
		s += o
	}
	return s
}
