package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/experiment"
	"github.com/san-kum/flowsim/internal/metrics"
	"github.com/san-kum/flowsim/internal/sim"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the default config) and overrides
// whatever it sets.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Field      string             `yaml:"field"`
	Integrator string             `yaml:"integrator"`
	Compare    []string           `yaml:"compare"`
	Dt         float64            `yaml:"dt"`
	Ticks      int                `yaml:"ticks"`
	Seed       int64              `yaml:"seed"`
	Params     map[string]float64 `yaml:"params"`
}

// StepResult pairs a scenario step with the results of each of its
// integrators.
type StepResult struct {
	Name    string
	Config  *config.Config
	Labels  []string
	Results []*sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps: %w", scenario.Name, dynamo.ErrInvalidConfig)
	}
	return &scenario, nil
}

// Config resolves the step into a validated run config.
func (st ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if st.Preset != "" {
		if cfg = config.GetPreset(st.Preset); cfg == nil {
			return nil, fmt.Errorf("preset %q: %w", st.Preset, dynamo.ErrUnknownComponent)
		}
	}
	if st.Field != "" && st.Field != cfg.Field {
		cfg.Field = st.Field
		cfg.FieldParams = nil
	}
	if st.Integrator != "" {
		cfg.Integrator = st.Integrator
		cfg.Compare = nil
	}
	if len(st.Compare) > 0 {
		cfg.Compare = st.Compare
	}
	if st.Dt != 0 {
		cfg.Dt = st.Dt
	}
	if st.Ticks != 0 {
		cfg.Ticks = st.Ticks
	}
	if st.Seed != 0 {
		cfg.Seed = st.Seed
	}
	if len(st.Params) > 0 {
		if cfg.FieldParams == nil {
			cfg.FieldParams = make(map[string]float64, len(st.Params))
		}
		for k, v := range st.Params {
			cfg.FieldParams[k] = v
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes the steps in order and stops at the first failure,
// returning what completed.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		logger.Info("running scenario step",
			"scenario", scenario.Name,
			"step", i+1,
			"of", len(scenario.Steps),
			"name", name,
			"field", cfg.Field,
			"integrators", cfg.Integrators(),
		)

		exp := experiment.New(cfg, reg, logger)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d (%s) setup: %w", i+1, name, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d (%s) run: %w", i+1, name, err)
		}
		results = append(results, StepResult{Name: name, Config: cfg, Labels: exp.Labels(), Results: res})
	}

	return results, nil
}

// ParameterSweep runs Base once per value of one field parameter, evenly
// spaced over [Min, Max].
type ParameterSweep struct {
	Base  *config.Config
	Param string
	Min   float64
	Max   float64
	Steps int
}

type SweepResult struct {
	Value    float64
	Live     int
	Diverged int
	Metrics  map[string]float64
}

// RunSweep reports the first integrator's result at each value.
func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.Steps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d: %w", sweep.Steps, dynamo.ErrInvalidConfig)
	}
	if sweep.Param == "" {
		return nil, fmt.Errorf("sweep parameter is required: %w", dynamo.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	values := floats.Span(make([]float64, sweep.Steps), sweep.Min, sweep.Max)
	results := make([]SweepResult, 0, sweep.Steps)

	for i, v := range values {
		cfg := sweep.Base.Clone()
		if cfg.FieldParams == nil {
			cfg.FieldParams = make(map[string]float64, 1)
		}
		cfg.FieldParams[sweep.Param] = v

		r, err := runOne(ctx, cfg, reg, logger)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		results = append(results, SweepResult{
			Value:    v,
			Live:     r.Final.Len(),
			Diverged: r.Diverged,
			Metrics:  r.Metrics,
		})
		logger.Debug("sweep point", "param", sweep.Param, "value", v, "step", i+1, "of", sweep.Steps)
	}

	return results, nil
}

func runOne(ctx context.Context, cfg *config.Config, reg *experiment.Registry, logger *slog.Logger) (*sim.Result, error) {
	exp := experiment.New(cfg, reg, logger)
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	res, err := exp.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// MonteCarloConfig repeats Base with a fresh emission seed per trial.
type MonteCarloConfig struct {
	Base   *config.Config
	Trials int
	// Seed drives the per-trial seeds. Zero seeds from the clock.
	Seed int64
}

type MonteCarloResult struct {
	Trial    int
	Seed     int64
	Live     int
	Diverged int
	Metrics  map[string]float64
}

// Stable reports whether no particle diverged during the trial.
func (r MonteCarloResult) Stable() bool { return r.Diverged == 0 }

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, reg *experiment.Registry, logger *slog.Logger) ([]MonteCarloResult, error) {
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d: %w", mc.Trials, dynamo.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]MonteCarloResult, 0, mc.Trials)
	for trial := 0; trial < mc.Trials; trial++ {
		cfg := mc.Base.Clone()
		cfg.Seed = rng.Int63()

		r, err := runOne(ctx, cfg, reg, logger)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}
		results = append(results, MonteCarloResult{
			Trial:    trial,
			Seed:     cfg.Seed,
			Live:     r.Final.Len(),
			Diverged: r.Diverged,
			Metrics:  r.Metrics,
		})

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo progress", "trials", trial+1, "of", mc.Trials)
		}
	}

	return results, nil
}

// MonteCarloStats counts stable trials and describes metric across them.
// ok is false when no trial reported the metric.
func MonteCarloStats(results []MonteCarloResult, metric string) (stable int, dist metrics.Distribution, ok bool) {
	values := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Stable() {
			stable++
		}
		if v, found := r.Metrics[metric]; found {
			values = append(values, v)
		}
	}
	dist, ok = metrics.Describe(values)
	return stable, dist, ok
}
