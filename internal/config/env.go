package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target from environment variables using its env
// struct tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Env holds process-level settings that are not part of a run config.
type Env struct {
	DataDir  string `env:"FLOWSIM_DATA" envDefault:".flowsim"`
	LogLevel string `env:"FLOWSIM_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"FLOWSIM_LOG_JSON"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Overrides are run settings taken from the environment. Unset variables
// leave the pointer nil and the config untouched.
type Overrides struct {
	Dt         *float64 `env:"FLOWSIM_DT"`
	Ticks      *int     `env:"FLOWSIM_TICKS"`
	Seed       *int64   `env:"FLOWSIM_SEED"`
	Capacity   *int     `env:"FLOWSIM_CAPACITY"`
	Integrator *string  `env:"FLOWSIM_INTEGRATOR"`
}

func LoadOverrides() (Overrides, error) {
	var o Overrides
	if err := ParseEnv(&o); err != nil {
		return Overrides{}, err
	}
	return o, nil
}

// Apply copies every set override into cfg. An integrator override
// replaces a comparison list.
func (o Overrides) Apply(cfg *Config) {
	if o.Dt != nil {
		cfg.Dt = *o.Dt
	}
	if o.Ticks != nil {
		cfg.Ticks = *o.Ticks
	}
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	if o.Capacity != nil {
		cfg.Capacity = *o.Capacity
	}
	if o.Integrator != nil {
		cfg.Integrator = *o.Integrator
		cfg.Compare = nil
	}
}
