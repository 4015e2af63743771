package fields

import (
	"math"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// Bistable has stable nodes at (±1, 0) and a saddle at the origin:
// x' = x - x^3, y' = -y.
type Bistable struct{}

func NewBistable() *Bistable { return &Bistable{} }
func (b *Bistable) Dim() int { return 2 }

func (b *Bistable) Derive(dst, x dynamo.Batch, t float64) { eachRow(dst, x, t, b.at) }

func (b *Bistable) at(d, s []float64, _ float64) {
	d[0] = s[0] - s[0]*s[0]*s[0]
	d[1] = -s[1]
}

// Radial is a Gaussian-weighted sink/shear: x' = -S e^{-r^2}, y' = y e^{-r^2}.
type Radial struct {
	Strength float64
}

func NewRadial() *Radial   { return &Radial{Strength: 5.0} }
func (r *Radial) Dim() int { return 2 }

func (r *Radial) Derive(dst, x dynamo.Batch, t float64) { eachRow(dst, x, t, r.at) }

func (r *Radial) at(d, s []float64, _ float64) {
	g := math.Exp(-s[0]*s[0] - s[1]*s[1])
	d[0] = -r.Strength * g
	d[1] = s[1] * g
}

func (r *Radial) Params() map[string]float64 {
	return map[string]float64{"strength": r.Strength}
}

func (r *Radial) SetParam(n string, v float64) error {
	if n != "strength" {
		return unknownParam(n)
	}
	r.Strength = v
	return nil
}

// Shear is x' = y, y' = sqrt(|cos x|). Its square root is stiff near the
// zeros of cos x, which separates Euler from RK4 quickly.
type Shear struct{}

func NewShear() *Shear    { return &Shear{} }
func (s *Shear) Dim() int { return 2 }

func (s *Shear) Derive(dst, x dynamo.Batch, t float64) { eachRow(dst, x, t, s.at) }

func (s *Shear) at(d, x []float64, _ float64) {
	d[0] = x[1]
	d[1] = math.Sqrt(math.Abs(math.Cos(x[0])))
}

// Drift is a spatially uniform, time-only field: x' = e^{-t} + t,
// y' = sin t + t.
type Drift struct{}

func NewDrift() *Drift    { return &Drift{} }
func (d *Drift) Dim() int { return 2 }

func (d *Drift) Derive(dst, x dynamo.Batch, t float64) { eachRow(dst, x, t, d.at) }

func (d *Drift) at(dx, _ []float64, t float64) {
	dx[0] = math.Exp(-t) + t
	dx[1] = math.Sin(t) + t
}
