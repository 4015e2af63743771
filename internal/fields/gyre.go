package fields

import (
	"math"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// DoubleGyre is the time-periodic double gyre on [0,2]x[0,1]. The gyre
// separator oscillates with amplitude Epsilon and angular frequency Omega.
type DoubleGyre struct {
	A       float64
	Epsilon float64
	Omega   float64
}

func NewDoubleGyre() *DoubleGyre {
	return &DoubleGyre{A: 0.25, Epsilon: 0.25, Omega: 2 * math.Pi / 10}
}

func (g *DoubleGyre) Dim() int { return 2 }

func (g *DoubleGyre) Derive(dst, x dynamo.Batch, t float64) { eachRow(dst, x, t, g.at) }

func (g *DoubleGyre) at(d, s []float64, t float64) {
	x, y := s[0], s[1]

	a := g.Epsilon * math.Sin(g.Omega*t)
	f := a*x*x + (1-2*a)*x
	dfdx := 2*a*x + (1 - 2*a)

	d[0] = -math.Pi * g.A * math.Sin(math.Pi*f) * math.Cos(math.Pi*y)
	d[1] = math.Pi * g.A * math.Cos(math.Pi*f) * math.Sin(math.Pi*y) * dfdx
}

func (g *DoubleGyre) Params() map[string]float64 {
	return map[string]float64{"A": g.A, "epsilon": g.Epsilon, "omega": g.Omega}
}

func (g *DoubleGyre) SetParam(n string, v float64) error {
	switch n {
	case "A":
		g.A = v
	case "epsilon":
		g.Epsilon = v
	case "omega":
		g.Omega = v
	default:
		return unknownParam(n)
	}
	return nil
}
