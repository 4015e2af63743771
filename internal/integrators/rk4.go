package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flowsim/internal/dynamo"
)

type RK4 struct {
	k1, k2, k3, k4 dynamo.Batch
	x0, scratch    dynamo.Batch
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(rows, dim int) {
	r.k1 = ensure(r.k1, rows, dim)
	r.k2 = ensure(r.k2, rows, dim)
	r.k3 = ensure(r.k3, rows, dim)
	r.k4 = ensure(r.k4, rows, dim)
	r.scratch = ensure(r.scratch, rows, dim)
}

func (r *RK4) Advance(dst, x dynamo.Batch, f dynamo.Field, t, dt float64) {
	r.x0 = gather(r.x0, x)
	r.ensureScratch(x.Rows, x.Dim)

	x0 := r.x0.Data
	f.Derive(r.k1, r.x0, t)

	floats.AddScaledTo(r.scratch.Data, x0, dt*0.5, r.k1.Data)
	f.Derive(r.k2, r.scratch, t+dt*0.5)

	floats.AddScaledTo(r.scratch.Data, x0, dt*0.5, r.k2.Data)
	f.Derive(r.k3, r.scratch, t+dt*0.5)

	floats.AddScaledTo(r.scratch.Data, x0, dt, r.k3.Data)
	f.Derive(r.k4, r.scratch, t+dt)

	// k1 + 2k2 + 2k3 + k4, accumulated into k1.
	floats.AddScaled(r.k1.Data, 2, r.k2.Data)
	floats.AddScaled(r.k1.Data, 2, r.k3.Data)
	floats.Add(r.k1.Data, r.k4.Data)
	floats.AddScaled(x0, dt/6.0, r.k1.Data)

	dst.CopyFrom(r.x0)
}
