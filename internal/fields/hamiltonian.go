package fields

import (
	"math"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// Pendulum is the undamped pendulum on (q, p): q' = p, p' = -K sin q.
type Pendulum struct {
	K float64
}

func NewPendulum() *Pendulum { return &Pendulum{K: 1.0} }
func (p *Pendulum) Dim() int { return 2 }

func (p *Pendulum) Derive(dst, x dynamo.Batch, t float64) { eachRow(dst, x, t, p.at) }

func (p *Pendulum) at(d, s []float64, _ float64) {
	d[0] = s[1]
	d[1] = -p.K * math.Sin(s[0])
}

// Energy returns H = p^2/2 + K(1 - cos q).
func (p *Pendulum) Energy(s []float64) float64 {
	return 0.5*s[1]*s[1] + p.K*(1-math.Cos(s[0]))
}

func (p *Pendulum) Params() map[string]float64 {
	return map[string]float64{"k": p.K}
}

func (p *Pendulum) SetParam(n string, v float64) error {
	if n != "k" {
		return unknownParam(n)
	}
	p.K = v
	return nil
}

// Harmonic is the linear oscillator on (q, p): q' = p, p' = -K q.
type Harmonic struct {
	K float64
}

func NewHarmonic() *Harmonic { return &Harmonic{K: 1.0} }
func (h *Harmonic) Dim() int { return 2 }

func (h *Harmonic) Derive(dst, x dynamo.Batch, t float64) { eachRow(dst, x, t, h.at) }

func (h *Harmonic) at(d, s []float64, _ float64) {
	d[0] = s[1]
	d[1] = -h.K * s[0]
}

// Energy returns H = p^2/2 + K q^2/2.
func (h *Harmonic) Energy(s []float64) float64 {
	return 0.5*s[1]*s[1] + 0.5*h.K*s[0]*s[0]
}

// Exact returns the closed-form state at time t starting from (q0, p0) at 0.
func (h *Harmonic) Exact(q0, p0, t float64) (q, p float64) {
	w := math.Sqrt(h.K)
	c, s := math.Cos(w*t), math.Sin(w*t)
	return q0*c + p0/w*s, -q0*w*s + p0*c
}

func (h *Harmonic) Params() map[string]float64 {
	return map[string]float64{"k": h.K}
}

func (h *Harmonic) SetParam(n string, v float64) error {
	if n != "k" {
		return unknownParam(n)
	}
	if v <= 0 {
		return dynamo.ErrParameterBounds
	}
	h.K = v
	return nil
}
