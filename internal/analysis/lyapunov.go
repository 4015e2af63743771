package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent by following a
// reference point and a neighbour offset by d0 along channel 0. After every
// step the separation is measured and the neighbour pulled back to
// distance d0 along the same direction:
//
//	λ ≈ Σ ln(|δ_k| / d0) / (steps * dt)
//
// A positive value indicates chaos.
func LyapunovExponent(f dynamo.Field, in dynamo.Integrator, x0 []float64, dt float64, steps int, d0 float64) (float64, error) {
	if len(x0) != f.Dim() {
		return 0, fmt.Errorf("analysis: initial point has %d channels, field %d: %w", len(x0), f.Dim(), dynamo.ErrDimensionMismatch)
	}
	if dt <= 0 || steps <= 0 || d0 <= 0 {
		return 0, fmt.Errorf("analysis: dt %v steps %d d0 %v: %w", dt, steps, d0, dynamo.ErrInvalidConfig)
	}

	dim := len(x0)
	pair := dynamo.NewBatch(2, dim)
	copy(pair.Row(0), x0)
	copy(pair.Row(1), x0)
	pair.Row(1)[0] += d0

	delta := make([]float64, dim)
	sumLog := 0.0
	t := 0.0
	for i := 0; i < steps; i++ {
		in.Advance(pair, pair, f, t, dt)
		t += dt

		ref, nb := pair.Row(0), pair.Row(1)
		floats.SubTo(delta, nb, ref)
		sep := floats.Norm(delta, 2)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			return 0, fmt.Errorf("analysis: separation degenerate at step %d", i+1)
		}
		sumLog += math.Log(sep / d0)

		floats.Scale(d0/sep, delta)
		floats.AddTo(nb, ref, delta)
	}
	return sumLog / (float64(steps) * dt), nil
}
