package fields

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/flowsim/internal/dynamo"
)

func derive1(f dynamo.Field, x []float64, t float64) []float64 {
	in := dynamo.FromRows([][]float64{x})
	out := dynamo.NewBatch(1, f.Dim())
	f.Derive(out, in, t)
	return out.Row(0)
}

func TestLorenzDerivative(t *testing.T) {
	l := NewLorenz()
	d := derive1(l, []float64{1, 2, 3}, 0)

	want := []float64{10 * (2 - 1), 1*(28-3) - 2, 1*2 - 8.0/3.0*3}
	for i := range want {
		if math.Abs(d[i]-want[i]) > 1e-12 {
			t.Errorf("d[%d] = %f, want %f", i, d[i], want[i])
		}
	}
}

func TestPendulumEquilibrium(t *testing.T) {
	p := NewPendulum()
	d := derive1(p, []float64{0, 0}, 0)

	if math.Abs(d[0]) > 1e-10 || math.Abs(d[1]) > 1e-10 {
		t.Errorf("expected zero derivative at equilibrium, got %v", d)
	}
}

func TestPendulumEnergy(t *testing.T) {
	p := NewPendulum()
	if e := p.Energy([]float64{0, 2.5}); math.Abs(e-3.125) > 1e-12 {
		t.Errorf("Energy(0, 2.5) = %f, want 3.125", e)
	}
	if e := p.Energy([]float64{math.Pi, 0}); math.Abs(e-2) > 1e-12 {
		t.Errorf("Energy(pi, 0) = %f, want 2", e)
	}
}

func TestHarmonicExact(t *testing.T) {
	h := NewHarmonic()
	q, p := h.Exact(1, 0, math.Pi/2)
	if math.Abs(q) > 1e-12 || math.Abs(p+1) > 1e-12 {
		t.Errorf("Exact(1, 0, pi/2) = (%f, %f), want (0, -1)", q, p)
	}
}

func TestBistableFixedPoints(t *testing.T) {
	b := NewBistable()
	for _, x := range [][]float64{{-1, 0}, {0, 0}, {1, 0}} {
		d := derive1(b, x, 0)
		if d[0] != 0 || d[1] != 0 {
			t.Errorf("derivative at %v = %v, want zero", x, d)
		}
	}
}

func TestDoubleGyreBoundaries(t *testing.T) {
	g := NewDoubleGyre()

	// No flow through the walls y=0 and y=1.
	for _, tm := range []float64{0, 1.3, 7.5} {
		for _, x := range []float64{0.2, 1.0, 1.7} {
			if d := derive1(g, []float64{x, 0}, tm); math.Abs(d[1]) > 1e-12 {
				t.Errorf("t=%.1f x=%.1f: v at y=0 is %e", tm, x, d[1])
			}
			if d := derive1(g, []float64{x, 1}, tm); math.Abs(d[1]) > 1e-12 {
				t.Errorf("t=%.1f x=%.1f: v at y=1 is %e", tm, x, d[1])
			}
		}
	}

	// At t=0 the field is the steady gyre: u = -pi A sin(pi x) cos(pi y).
	d := derive1(g, []float64{0.5, 0}, 0)
	if math.Abs(d[0]+math.Pi*0.25) > 1e-12 {
		t.Errorf("u(0.5, 0, 0) = %f, want %f", d[0], -math.Pi*0.25)
	}
}

func TestDriftIsTimeOnly(t *testing.T) {
	f := NewDrift()
	a := derive1(f, []float64{0, 0}, 2)
	b := derive1(f, []float64{5, -3}, 2)
	if a[0] != b[0] || a[1] != b[1] {
		t.Errorf("drift depends on position: %v vs %v", a, b)
	}
	if math.Abs(a[0]-(math.Exp(-2)+2)) > 1e-12 {
		t.Errorf("x' = %f", a[0])
	}
}

func TestSetParam(t *testing.T) {
	l := NewLorenz()
	if err := l.SetParam("rho", 99); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if l.Params()["rho"] != 99 {
		t.Errorf("rho = %f, want 99", l.Params()["rho"])
	}

	err := l.SetParam("gamma", 1)
	if err == nil {
		t.Fatal("expected error for unknown param")
	}
	if !errors.Is(err, dynamo.ErrUnknownComponent) {
		t.Errorf("error %v does not wrap ErrUnknownComponent", err)
	}

	if err := NewHarmonic().SetParam("k", -1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("negative stiffness: got %v", err)
	}
}

func TestBatchMatchesPointwise(t *testing.T) {
	f := NewRossler()
	n := 3000
	x := dynamo.NewBatch(n, 3)
	for i := 0; i < n; i++ {
		r := x.Row(i)
		r[0], r[1], r[2] = float64(i)*0.01, -float64(i)*0.02, 1+float64(i%7)
	}

	out := dynamo.NewBatch(n, 3)
	f.Derive(out, x, 0.5)

	for i := 0; i < n; i += 97 {
		want := derive1(f, x.Row(i), 0.5)
		got := out.Row(i)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("row %d: got %v, want %v", i, got, want)
			}
		}
	}
}

func TestPointDoesNotMutateInput(t *testing.T) {
	f := Point(2, func(dst, x []float64, t float64) {
		dst[0] = -x[0]
		dst[1] = t
	})
	x := dynamo.FromRows([][]float64{{1, 2}, {3, 4}})
	before := x.Clone()
	out := dynamo.NewBatch(2, 2)
	f.Derive(out, x, 7)

	for i := range x.Data {
		if x.Data[i] != before.Data[i] {
			t.Fatal("Derive modified its input")
		}
	}
	if out.Row(1)[0] != -3 || out.Row(1)[1] != 7 {
		t.Errorf("row 1 = %v", out.Row(1))
	}
}
