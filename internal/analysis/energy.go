package analysis

import (
	"math"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// HamiltonianField is a conservative field with a known energy.
type HamiltonianField interface {
	dynamo.Field
	dynamo.Hamiltonian
}

// EnergySeries integrates x0 and evaluates h at every sample.
func EnergySeries(h HamiltonianField, in dynamo.Integrator, x0 []float64, dt float64, steps int) ([]float64, error) {
	tr, err := Integrate(h, in, x0, dt, steps)
	if err != nil {
		return nil, err
	}
	out := make([]float64, tr.Len())
	for i, s := range tr.States {
		out[i] = h.Energy(s)
	}
	return out, nil
}

// RelativeDrift is the largest |E_i - E_0| / |E_0| over the series. A zero
// initial energy falls back to absolute deviation.
func RelativeDrift(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	e0 := series[0]
	scale := math.Abs(e0)
	if scale == 0 {
		scale = 1
	}
	worst := 0.0
	for _, e := range series[1:] {
		worst = math.Max(worst, math.Abs(e-e0)/scale)
	}
	return worst
}
