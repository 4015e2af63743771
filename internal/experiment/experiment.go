package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/particle"
	"github.com/san-kum/flowsim/internal/sim"
)

// Experiment turns a run config into one simulation per integrator. With
// more than one integrator the simulations run as a comparison sharing
// their emission.
type Experiment struct {
	cfg        *config.Config
	reg        *Registry
	logger     *slog.Logger
	sims       []*sim.Simulation
	labels     []string
	comparison *sim.Comparison
}

func New(cfg *config.Config, reg *Registry, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{cfg: cfg, reg: reg, logger: logger}
}

func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	domain, err := Domain(e.cfg.Domain)
	if err != nil {
		return err
	}

	for _, name := range e.cfg.Integrators() {
		s, err := e.build(name, domain)
		if err != nil {
			return err
		}
		e.sims = append(e.sims, s)
		e.labels = append(e.labels, name)
	}

	if len(e.sims) > 1 {
		e.comparison, err = sim.NewComparison(e.sims...)
		if err != nil {
			return err
		}
	}
	return e.seed()
}

func (e *Experiment) build(integ string, domain particle.Domain) (*sim.Simulation, error) {
	field, err := e.reg.Field(e.cfg.Field, e.cfg.FieldParams)
	if err != nil {
		return nil, err
	}
	in, err := e.reg.Integrator(integ)
	if err != nil {
		return nil, err
	}

	simCfg := sim.Config{
		Dt:          e.cfg.Dt,
		Capacity:    e.cfg.Capacity,
		EmitPerTick: e.cfg.EmitPerTick,
		MaxAge:      e.cfg.MaxAge,
		TrackAge:    e.cfg.TrackAge,
		Domain:      domain,
		Seed:        e.cfg.Seed,
		Logger:      e.logger.With("field", e.cfg.Field, "integrator", integ),
	}
	if e.cfg.EmitPerTick > 0 {
		simCfg.Emission, err = Policy(e.cfg.Emission)
		if err != nil {
			return nil, fmt.Errorf("emission: %w", err)
		}
	}

	s, err := sim.New(field, in, simCfg)
	if err != nil {
		return nil, err
	}
	for _, m := range e.reg.DefaultMetrics(field) {
		s.AddMetric(m)
	}
	return s, nil
}

func (e *Experiment) seed() error {
	if e.cfg.InitialCount == 0 {
		return nil
	}
	src := e.cfg.Initial
	if src == nil {
		src = &e.cfg.Emission
	}
	policy, err := Policy(*src)
	if err != nil {
		return fmt.Errorf("initial: %w", err)
	}
	if e.comparison != nil {
		return e.comparison.Seed(policy, e.cfg.InitialCount)
	}
	return e.sims[0].Seed(policy, e.cfg.InitialCount)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Simulations() []*sim.Simulation { return e.sims }

// Labels names each simulation by its integrator.
func (e *Experiment) Labels() []string { return e.labels }

// Comparison is nil for single-integrator experiments.
func (e *Experiment) Comparison() *sim.Comparison { return e.comparison }

func (e *Experiment) Run(ctx context.Context) ([]*sim.Result, error) {
	if len(e.sims) == 0 {
		return nil, fmt.Errorf("experiment not setup")
	}
	if e.comparison != nil {
		return e.comparison.Run(ctx, e.cfg.Ticks)
	}
	r, err := e.sims[0].Run(ctx, e.cfg.Ticks)
	if r == nil {
		return nil, err
	}
	return []*sim.Result{r}, err
}

// Tick advances every simulation once.
func (e *Experiment) Tick() ([]sim.Snapshot, error) {
	if len(e.sims) == 0 {
		return nil, fmt.Errorf("experiment not setup")
	}
	if e.comparison != nil {
		return e.comparison.Tick()
	}
	s, err := e.sims[0].Tick()
	if err != nil {
		return nil, err
	}
	return []sim.Snapshot{s}, nil
}

func (e *Experiment) Stop() {
	for _, s := range e.sims {
		s.Stop()
	}
}
