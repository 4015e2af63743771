package viz

import (
	"fmt"
	"math"

	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/sim"
)

// Color modes.
const (
	ColorNone    = "none"
	ColorAge     = "age"
	ColorEnergy  = "energy"
	ColorDepth   = "depth"
	ColorChannel = "channel"
)

var ColorModes = []string{ColorNone, ColorAge, ColorEnergy, ColorDepth, ColorChannel}

// Point is one particle in screen space. U and V are in [0, 1] with V
// growing downward; Value is the normalized color scalar.
type Point struct {
	U, V  float64
	Depth float64
	Alpha float64
	Value float64
}

// View turns snapshots into screen points. It never touches dynamics.
type View struct {
	cfg    config.ViewConfig
	dim    int
	maxAge float64
}

// NewView checks the view against the state dimension. maxAge drives the
// age fade and may be zero.
func NewView(cfg config.ViewConfig, dim int, maxAge float64) (*View, error) {
	if len(cfg.Axes) == 0 {
		cfg.Axes = []int{0, 1}
	}
	if len(cfg.Axes) != 2 {
		return nil, fmt.Errorf("viz: need two axes, got %v: %w", cfg.Axes, dynamo.ErrInvalidConfig)
	}
	for _, a := range cfg.Axes {
		if a < 0 || a >= dim {
			return nil, fmt.Errorf("viz: axis %d outside dimension %d: %w", a, dim, dynamo.ErrDimensionMismatch)
		}
	}
	if cfg.Rotate != 0 && dim < 3 {
		return nil, fmt.Errorf("viz: rotating view needs three channels, have %d: %w", dim, dynamo.ErrDimensionMismatch)
	}
	if (len(cfg.Min) != 0 || len(cfg.Max) != 0) && (len(cfg.Min) != 2 || len(cfg.Max) != 2) {
		return nil, fmt.Errorf("viz: bounds must be two-dimensional: %w", dynamo.ErrInvalidConfig)
	}
	if cfg.Color == "" {
		cfg.Color = ColorNone
	}
	if !validColor(cfg.Color) {
		return nil, fmt.Errorf("viz: color mode %q: %w", cfg.Color, dynamo.ErrUnknownComponent)
	}
	if cfg.Color == ColorChannel && (cfg.Channel < 0 || cfg.Channel >= dim) {
		return nil, fmt.Errorf("viz: color channel %d outside dimension %d: %w", cfg.Channel, dim, dynamo.ErrDimensionMismatch)
	}
	return &View{cfg: cfg, dim: dim, maxAge: maxAge}, nil
}

func validColor(mode string) bool {
	for _, m := range ColorModes {
		if m == mode {
			return true
		}
	}
	return false
}

func (v *View) Config() config.ViewConfig { return v.cfg }

// SetColor switches the color mode. Channel mode keeps the configured
// channel.
func (v *View) SetColor(mode string) error {
	if !validColor(mode) {
		return fmt.Errorf("viz: color mode %q: %w", mode, dynamo.ErrUnknownComponent)
	}
	v.cfg.Color = mode
	return nil
}

// SetRotate changes the camera speed in radians per tick. It is ignored
// for fewer than three channels.
func (v *View) SetRotate(rate float64) {
	if v.dim >= 3 {
		v.cfg.Rotate = rate
	}
}

// Angle is the camera angle at tick.
func (v *View) Angle(tick int) float64 { return v.cfg.Rotate * float64(tick) }

// project returns the plane coordinates and raw depth of a position.
func (v *View) project(p []float64, theta float64) (x, y, depth float64) {
	if v.cfg.Rotate == 0 {
		return p[v.cfg.Axes[0]], p[v.cfg.Axes[1]], 0
	}
	c, s := math.Cos(theta), math.Sin(theta)
	return c*p[0] - s*p[1], p[2], s*p[0] + c*p[1]
}

// Points projects every particle of s. Particles outside fixed bounds are
// dropped; without bounds the frame is fitted to its own extent.
func (v *View) Points(s sim.Snapshot) []Point {
	n := s.Len()
	if n == 0 {
		return nil
	}
	theta := v.Angle(s.Tick)

	xs := make([]float64, n)
	ys := make([]float64, n)
	depth := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i], ys[i], depth[i] = v.project(s.Position(i), theta)
	}

	minX, maxX, minY, maxY := v.bounds(xs, ys)
	dLo, dHi := extent(depth)
	values := v.values(s, depth)

	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		if xs[i] < minX || xs[i] > maxX || ys[i] < minY || ys[i] > maxY {
			continue
		}
		d := 1.0
		if v.cfg.Rotate != 0 {
			d = (depth[i] - dLo) / (dHi - dLo + 1e-6)
		}
		depthAlpha := 0.3 + 0.7*d
		if v.cfg.Rotate == 0 {
			depthAlpha = 1
		}
		pts = append(pts, Point{
			U:     (xs[i] - minX) / (maxX - minX),
			V:     (maxY - ys[i]) / (maxY - minY),
			Depth: d,
			Alpha: v.ageAlpha(s, i) * depthAlpha,
			Value: values[i],
		})
	}
	return pts
}

func (v *View) bounds(xs, ys []float64) (minX, maxX, minY, maxY float64) {
	if len(v.cfg.Min) == 2 {
		minX, maxX = v.cfg.Min[0], v.cfg.Max[0]
		minY, maxY = v.cfg.Min[1], v.cfg.Max[1]
	} else {
		minX, maxX = extent(xs)
		minY, maxY = extent(ys)
	}
	if maxX <= minX {
		minX, maxX = minX-1, minX+1
	}
	if maxY <= minY {
		minY, maxY = minY-1, minY+1
	}
	return
}

func (v *View) ageAlpha(s sim.Snapshot, i int) float64 {
	if !v.cfg.Fade || s.Ages == nil || v.maxAge <= 0 {
		return 1
	}
	return math.Max(0, math.Min(1, 1-s.Ages[i]/v.maxAge))
}

// values returns the color scalar of every particle normalized to [0, 1]:
// by [0, Scale] when Scale is set, by the frame's own range otherwise.
func (v *View) values(s sim.Snapshot, depth []float64) []float64 {
	n := s.Len()
	raw := make([]float64, n)
	switch v.cfg.Color {
	case ColorNone:
		for i := range raw {
			raw[i] = 1
		}
		return raw
	case ColorAge:
		if s.Ages != nil {
			copy(raw, s.Ages)
		}
	case ColorEnergy:
		if s.Energies != nil {
			copy(raw, s.Energies)
		}
	case ColorDepth:
		copy(raw, depth)
	case ColorChannel:
		for i := range raw {
			raw[i] = s.Position(i)[v.cfg.Channel]
		}
	}

	lo, hi := 0.0, v.cfg.Scale
	if hi <= 0 {
		lo, hi = extent(raw)
	}
	for i, r := range raw {
		raw[i] = math.Max(0, math.Min(1, (r-lo)/(hi-lo+1e-6)))
	}
	return raw
}

func extent(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return lo, hi
}

// Draw rasterizes s onto a fresh width x height character canvas.
func (v *View) Draw(s sim.Snapshot, width, height int) *Canvas {
	c := NewCanvas(width, height)
	v.DrawInto(c, s)
	return c
}

// DrawInto clears c and rasterizes s onto it.
func (v *View) DrawInto(c *Canvas, s sim.Snapshot) {
	c.Clear()
	pw, ph := c.PixelSize()
	for _, p := range v.Points(s) {
		x := int(p.U * float64(pw-1))
		y := int(p.V * float64(ph-1))
		c.Plot(x, y, p.Value, p.Alpha)
	}
}
