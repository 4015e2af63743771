package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flowsim/internal/dynamo"
)

type Euler struct {
	x0, k dynamo.Batch
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Advance(dst, x dynamo.Batch, f dynamo.Field, t, dt float64) {
	e.x0 = gather(e.x0, x)
	e.k = ensure(e.k, x.Rows, x.Dim)

	f.Derive(e.k, e.x0, t)
	floats.AddScaled(e.x0.Data, dt, e.k.Data)

	dst.CopyFrom(e.x0)
}
