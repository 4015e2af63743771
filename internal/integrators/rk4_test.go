package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/fields"
)

func run(in dynamo.Integrator, f dynamo.Field, q0, p0, dt float64, steps int) (float64, float64) {
	x := dynamo.FromRows([][]float64{{q0, p0}})
	for i := 0; i < steps; i++ {
		in.Advance(x, x, f, float64(i)*dt, dt)
	}
	return x.Data[0], x.Data[1]
}

func TestRK4Accuracy(t *testing.T) {
	osc := fields.NewHarmonic()
	q, p := run(NewRK4(), osc, 1, 0, 0.01, 100)

	wantQ, wantP := osc.Exact(1, 0, 1.0)
	if math.Abs(q-wantQ) > 1e-9 {
		t.Errorf("position error too large: got %.12f, expected %.12f", q, wantQ)
	}
	if math.Abs(p-wantP) > 1e-9 {
		t.Errorf("momentum error too large: got %.12f, expected %.12f", p, wantP)
	}
}

func globalError(in dynamo.Integrator, dt float64) float64 {
	osc := fields.NewHarmonic()
	q, p := run(in, osc, 1, 0, dt, int(math.Round(1/dt)))
	wq, wp := osc.Exact(1, 0, 1)
	return math.Hypot(q-wq, p-wp)
}

func TestConvergenceOrder(t *testing.T) {
	tests := []struct {
		name     string
		new      func() dynamo.Integrator
		order    float64
		tolerance float64
	}{
		{"euler", func() dynamo.Integrator { return NewEuler() }, 1, 0.1},
		{"rk4", func() dynamo.Integrator { return NewRK4() }, 4, 0.3},
		{"symplectic_euler", func() dynamo.Integrator { return NewSymplecticEuler() }, 1, 0.1},
		{"leapfrog", func() dynamo.Integrator { return NewLeapfrog() }, 2, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coarse := globalError(tt.new(), 0.1)
			fine := globalError(tt.new(), 0.05)
			got := math.Log2(coarse / fine)
			if math.Abs(got-tt.order) > tt.tolerance {
				t.Errorf("observed order %.3f, expected %.1f", got, tt.order)
			}
		})
	}
}

func TestEulerEnergyGrowth(t *testing.T) {
	osc := fields.NewHarmonic()
	in := NewEuler()
	dt := 0.1
	x := dynamo.FromRows([][]float64{{1, 0}})

	prev := osc.Energy(x.Row(0))
	for i := 0; i < 200; i++ {
		in.Advance(x, x, osc, 0, dt)
		e := osc.Energy(x.Row(0))
		if e <= prev {
			t.Fatalf("step %d: energy did not grow (%.6f -> %.6f)", i, prev, e)
		}
		if math.Abs(e/prev-(1+dt*dt)) > 1e-12 {
			t.Fatalf("step %d: growth factor %.15f, expected %.15f", i, e/prev, 1+dt*dt)
		}
		prev = e
	}
}

func TestSymplecticEnergyBounded(t *testing.T) {
	osc := fields.NewHarmonic()
	in := NewSymplecticEuler()
	x := dynamo.FromRows([][]float64{{1, 0}})
	h0 := osc.Energy(x.Row(0))

	for i := 0; i < 10000; i++ {
		in.Advance(x, x, osc, 0, 0.1)
		if drift := math.Abs(osc.Energy(x.Row(0))-h0) / h0; drift > 0.06 {
			t.Fatalf("step %d: relative energy drift %.4f", i, drift)
		}
	}
}

func TestSymplecticKickThenDrift(t *testing.T) {
	pend := fields.NewPendulum()
	q, p, dt := 0.7, -0.3, 0.04

	got := Step(NewSymplecticEuler(), pend, dynamo.FromRows([][]float64{{q, p}}), 0, dt)

	wantP := p - dt*math.Sin(q)
	wantQ := q + dt*wantP
	want := []float64{wantQ, wantP}
	if diff := cmp.Diff(want, got.Row(0), cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("step mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvanceInPlaceMatchesCopy(t *testing.T) {
	lorenz := fields.NewLorenz()
	rows := [][]float64{{1, 1, 1}, {-5, 3, 20}, {0.1, -0.2, 30}}

	for _, in := range []dynamo.Integrator{NewEuler(), NewRK4()} {
		t.Run(in.Name(), func(t *testing.T) {
			x := dynamo.FromRows(rows)
			out := Step(in, lorenz, x, 0, 0.01)

			if diff := cmp.Diff(rows, x.ToRows()); diff != "" {
				t.Errorf("input modified (-want +got):\n%s", diff)
			}

			in.Advance(x, x, lorenz, 0, 0.01)
			if diff := cmp.Diff(out.ToRows(), x.ToRows()); diff != "" {
				t.Errorf("in-place result differs (-copy +inplace):\n%s", diff)
			}
		})
	}
}

func TestAdvanceStridedView(t *testing.T) {
	// Two kinematic channels followed by an age channel.
	data := []float64{1, 0, 7, 0, 1, 9}
	view := dynamo.Batch{Data: data, Rows: 2, Dim: 2, Stride: 3}

	NewRK4().Advance(view, view, fields.NewHarmonic(), 0, 0.01)

	if data[2] != 7 || data[5] != 9 {
		t.Errorf("auxiliary channels touched: %v", data)
	}
	if data[0] == 1 || data[4] == 1 {
		t.Errorf("kinematic channels not advanced: %v", data)
	}
}

func TestAdvanceEmptyBatch(t *testing.T) {
	x := dynamo.NewBatch(0, 2)
	for _, in := range []dynamo.Integrator{NewEuler(), NewRK4(), NewSymplecticEuler(), NewLeapfrog()} {
		in.Advance(x, x, fields.NewHarmonic(), 0, 0.1)
	}
}

func TestValidateDim(t *testing.T) {
	tests := []struct {
		dim     int
		wantErr bool
	}{
		{2, false},
		{4, false},
		{1, true},
		{3, true},
		{0, true},
	}

	for _, v := range []dynamo.DimValidator{NewSymplecticEuler(), NewLeapfrog()} {
		for _, tt := range tests {
			err := v.ValidateDim(tt.dim)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDim(%d) error = %v, wantErr %v", tt.dim, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, dynamo.ErrDimensionMismatch) {
				t.Errorf("ValidateDim(%d) = %v, want ErrDimensionMismatch", tt.dim, err)
			}
		}
	}
}
