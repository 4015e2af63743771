package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/flowsim/internal/dynamo"
)

const (
	DefaultDt          = 0.01
	DefaultTicks       = 1000
	DefaultCapacity    = 6000
	DefaultEmitPerTick = 40
	DefaultFrameMs     = 30
)

type Config struct {
	Field        string             `yaml:"field"`
	FieldParams  map[string]float64 `yaml:"field_params,omitempty"`
	Integrator   string             `yaml:"integrator"`
	Compare      []string           `yaml:"compare,omitempty"`
	Dt           float64            `yaml:"dt"`
	Ticks        int                `yaml:"ticks"`
	Seed         int64              `yaml:"seed"`
	Capacity     int                `yaml:"capacity"`
	EmitPerTick  int                `yaml:"emit_per_tick"`
	MaxAge       float64            `yaml:"max_age,omitempty"`
	TrackAge     bool               `yaml:"track_age,omitempty"`
	Domain       DomainConfig       `yaml:"domain"`
	Emission     EmissionConfig     `yaml:"emission"`
	Initial      *EmissionConfig    `yaml:"initial,omitempty"`
	InitialCount int                `yaml:"initial_count,omitempty"`
	View         ViewConfig         `yaml:"view"`
}

// DomainConfig selects the region particles must stay inside. Kind is
// "box", "ball" or "none".
type DomainConfig struct {
	Kind   string    `yaml:"kind"`
	Min    []float64 `yaml:"min,omitempty"`
	Max    []float64 `yaml:"max,omitempty"`
	Center []float64 `yaml:"center,omitempty"`
	Radius float64   `yaml:"radius,omitempty"`
}

// EmissionConfig selects an emission policy. Kind is "uniform",
// "gaussian", "grid" or "seeds".
type EmissionConfig struct {
	Kind   string      `yaml:"kind"`
	Min    []float64   `yaml:"min,omitempty"`
	Max    []float64   `yaml:"max,omitempty"`
	Mean   []float64   `yaml:"mean,omitempty"`
	Std    []float64   `yaml:"std,omitempty"`
	Counts []int       `yaml:"counts,omitempty"`
	Seeds  [][]float64 `yaml:"seeds,omitempty"`
}

// ViewConfig drives the renderers only; it never affects dynamics.
type ViewConfig struct {
	FrameMs int       `yaml:"frame_ms"`
	Axes    []int     `yaml:"axes,omitempty"`
	Min     []float64 `yaml:"min,omitempty"`
	Max     []float64 `yaml:"max,omitempty"`
	// Rotate is the camera turn per frame in radians about the third
	// channel. Zero disables the rotating projection.
	Rotate float64 `yaml:"rotate,omitempty"`
	// Color is "none", "age", "energy", "depth" or "channel".
	Color   string `yaml:"color,omitempty"`
	Channel int    `yaml:"channel,omitempty"`
	// Scale fixes the upper end of the color range. Zero normalizes each
	// frame by its own min and max.
	Scale float64 `yaml:"scale,omitempty"`
	Fade  bool    `yaml:"fade,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Field:       "lorenz",
		Integrator:  "rk4",
		Dt:          DefaultDt,
		Ticks:       DefaultTicks,
		Capacity:    DefaultCapacity,
		EmitPerTick: DefaultEmitPerTick,
		Domain:      DomainConfig{Kind: "none"},
		Emission: EmissionConfig{
			Kind: "uniform",
			Min:  []float64{-30, -30, 0},
			Max:  []float64{30, 30, 50},
		},
		View: ViewConfig{FrameMs: DefaultFrameMs, Axes: []int{0, 1}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so presets can be modified freely.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("config: clone: %v", err))
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("config: clone: %v", err))
	}
	return out
}

// Validate checks the values that do not depend on the registry. Name and
// dimension checks happen when the simulation is built.
func (c *Config) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("field is required: %w", dynamo.ErrInvalidConfig)
	}
	if c.Integrator == "" && len(c.Compare) == 0 {
		return fmt.Errorf("integrator is required: %w", dynamo.ErrInvalidConfig)
	}
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %g: %w", c.Dt, dynamo.ErrInvalidConfig)
	}
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d: %w", c.Ticks, dynamo.ErrInvalidConfig)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be non-negative, got %d: %w", c.Capacity, dynamo.ErrInvalidConfig)
	}
	if c.EmitPerTick < 0 {
		return fmt.Errorf("emit_per_tick must be non-negative, got %d: %w", c.EmitPerTick, dynamo.ErrInvalidConfig)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age must be non-negative, got %g: %w", c.MaxAge, dynamo.ErrInvalidConfig)
	}
	if c.InitialCount < 0 {
		return fmt.Errorf("initial_count must be non-negative, got %d: %w", c.InitialCount, dynamo.ErrInvalidConfig)
	}
	if c.EmitPerTick == 0 && c.InitialCount == 0 {
		return fmt.Errorf("nothing to simulate: emit_per_tick and initial_count are both zero: %w", dynamo.ErrInvalidConfig)
	}
	switch c.Domain.Kind {
	case "", "none", "box", "ball":
	default:
		return fmt.Errorf("domain kind %q: %w", c.Domain.Kind, dynamo.ErrUnknownComponent)
	}
	if c.View.FrameMs < 0 {
		return fmt.Errorf("frame_ms must be non-negative, got %d: %w", c.View.FrameMs, dynamo.ErrInvalidConfig)
	}
	return nil
}

// Integrators returns the integrators to run: Compare when set, otherwise
// the single Integrator.
func (c *Config) Integrators() []string {
	if len(c.Compare) > 0 {
		return c.Compare
	}
	return []string{c.Integrator}
}
