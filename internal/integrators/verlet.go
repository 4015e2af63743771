package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// Leapfrog is the kick-drift-kick scheme on (q..., p...) rows. It is second
// order and symplectic for separable fields.
type Leapfrog struct {
	x0, k dynamo.Batch
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) ValidateDim(dim int) error {
	return validateCanonical(l.Name(), dim)
}

func (l *Leapfrog) Advance(dst, x dynamo.Batch, f dynamo.Field, t, dt float64) {
	half := x.Dim / 2
	halfDt := dt * 0.5
	l.x0 = gather(l.x0, x)
	l.k = ensure(l.k, x.Rows, x.Dim)

	f.Derive(l.k, l.x0, t)
	for i := 0; i < x.Rows; i++ {
		floats.AddScaled(l.x0.Row(i)[half:], halfDt, l.k.Row(i)[half:])
	}

	f.Derive(l.k, l.x0, t+halfDt)
	for i := 0; i < x.Rows; i++ {
		floats.AddScaled(l.x0.Row(i)[:half], dt, l.k.Row(i)[:half])
	}

	f.Derive(l.k, l.x0, t+dt)
	for i := 0; i < x.Rows; i++ {
		floats.AddScaled(l.x0.Row(i)[half:], halfDt, l.k.Row(i)[half:])
	}

	dst.CopyFrom(l.x0)
}
