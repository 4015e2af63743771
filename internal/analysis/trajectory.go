package analysis

import (
	"fmt"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// Trajectory is a sampled path of one point. States[i] is the state at
// Times[i]; States[0] is the initial point.
type Trajectory struct {
	Times  []float64
	States [][]float64
}

func (tr *Trajectory) Len() int { return len(tr.States) }

// Final returns the last sampled state.
func (tr *Trajectory) Final() []float64 { return tr.States[len(tr.States)-1] }

// Component returns channel i of every sample.
func (tr *Trajectory) Component(i int) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		out[k] = s[i]
	}
	return out
}

// Integrate advances x0 through f for steps steps of dt and samples every
// step. Integration stops early, keeping what was sampled, if the state
// leaves the finite reals.
func Integrate(f dynamo.Field, in dynamo.Integrator, x0 []float64, dt float64, steps int) (*Trajectory, error) {
	if len(x0) != f.Dim() {
		return nil, fmt.Errorf("analysis: initial point has %d channels, field %d: %w", len(x0), f.Dim(), dynamo.ErrDimensionMismatch)
	}
	if v, ok := in.(dynamo.DimValidator); ok {
		if err := v.ValidateDim(f.Dim()); err != nil {
			return nil, err
		}
	}
	if dt <= 0 || steps < 0 {
		return nil, fmt.Errorf("analysis: dt %v steps %d: %w", dt, steps, dynamo.ErrInvalidConfig)
	}

	x := dynamo.FromRows([][]float64{x0})
	tr := &Trajectory{
		Times:  make([]float64, 1, steps+1),
		States: make([][]float64, 1, steps+1),
	}
	tr.States[0] = append([]float64(nil), x0...)

	t := 0.0
	for i := 0; i < steps; i++ {
		in.Advance(x, x, f, t, dt)
		t += dt
		if !x.RowFinite(0) {
			break
		}
		tr.Times = append(tr.Times, t)
		tr.States = append(tr.States, append([]float64(nil), x.Row(0)...))
	}
	return tr, nil
}

// Final integrates x0 for a total time T with step dt and returns only the
// end state. T need not be a multiple of dt; the step count rounds to the
// nearest integer.
func Final(f dynamo.Field, in dynamo.Integrator, x0 []float64, dt, T float64) ([]float64, error) {
	steps := int(T/dt + 0.5)
	tr, err := Integrate(f, in, x0, dt, steps)
	if err != nil {
		return nil, err
	}
	if tr.Len() != steps+1 {
		return nil, fmt.Errorf("analysis: %s diverged after %d of %d steps", in.Name(), tr.Len()-1, steps)
	}
	return tr.Final(), nil
}
