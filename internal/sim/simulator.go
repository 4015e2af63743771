package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/emit"
	"github.com/san-kum/flowsim/internal/particle"
)

// Simulation advances one particle ensemble through a vector field. It is
// driven from a single goroutine; cancel the context passed to Run to stop
// it from elsewhere.
type Simulation struct {
	field dynamo.Field
	integ dynamo.Integrator
	cfg   Config
	log   *slog.Logger
	rng   *rand.Rand
	pool  *particle.Pool

	finite   particle.Predicate
	inDomain particle.Predicate
	young    particle.Predicate
	energy   dynamo.Hamiltonian

	phase Phase
	tick  int
	t     float64

	renderers []Renderer
	metrics   []Metric
	observers []Observer
}

func New(field dynamo.Field, integ dynamo.Integrator, cfg Config) (*Simulation, error) {
	if err := validate(field, integ, cfg); err != nil {
		return nil, err
	}

	layout := particle.Layout{Dim: field.Dim(), Age: cfg.TrackAge || cfg.MaxAge > 0}
	pool, err := particle.NewPool(layout, cfg.Capacity+cfg.EmitPerTick)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Simulation{
		field:  field,
		integ:  integ,
		cfg:    cfg,
		log:    logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		pool:   pool,
		finite: particle.Finite(field.Dim()),
	}
	if cfg.Domain != nil {
		s.inDomain = particle.InDomain(cfg.Domain)
	}
	if cfg.MaxAge > 0 {
		s.young = particle.YoungerThan(layout.AgeIndex(), cfg.MaxAge)
	}
	if h, ok := field.(dynamo.Hamiltonian); ok {
		s.energy = h
	}
	return s, nil
}

func validate(field dynamo.Field, integ dynamo.Integrator, cfg Config) error {
	if field == nil || integ == nil {
		return fmt.Errorf("sim: field and integrator are required: %w", dynamo.ErrInvalidConfig)
	}
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("sim: dt must be positive, got %g: %w", cfg.Dt, dynamo.ErrInvalidConfig)
	}
	if cfg.Capacity < 0 {
		return fmt.Errorf("sim: capacity must be non-negative, got %d: %w", cfg.Capacity, dynamo.ErrInvalidConfig)
	}
	if cfg.EmitPerTick < 0 {
		return fmt.Errorf("sim: emit per tick must be non-negative, got %d: %w", cfg.EmitPerTick, dynamo.ErrInvalidConfig)
	}
	if cfg.MaxAge < 0 || math.IsNaN(cfg.MaxAge) {
		return fmt.Errorf("sim: max age must be non-negative, got %g: %w", cfg.MaxAge, dynamo.ErrInvalidConfig)
	}
	if cfg.EmitPerTick > 0 && cfg.Emission == nil {
		return fmt.Errorf("sim: emitting %d per tick without an emission policy: %w", cfg.EmitPerTick, dynamo.ErrInvalidConfig)
	}
	if cfg.Emission != nil && cfg.Emission.Dim() != field.Dim() {
		return fmt.Errorf("sim: emission has %d channels, field %d: %w", cfg.Emission.Dim(), field.Dim(), dynamo.ErrDimensionMismatch)
	}
	if cfg.Domain != nil && cfg.Domain.Dim() > field.Dim() {
		return fmt.Errorf("sim: domain has %d channels, field %d: %w", cfg.Domain.Dim(), field.Dim(), dynamo.ErrDimensionMismatch)
	}
	if v, ok := integ.(dynamo.DimValidator); ok {
		if err := v.ValidateDim(field.Dim()); err != nil {
			return fmt.Errorf("sim: %w", err)
		}
	}
	return nil
}

func (s *Simulation) AddRenderer(r Renderer) { s.renderers = append(s.renderers, r) }
func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) Field() dynamo.Field           { return s.field }
func (s *Simulation) Integrator() dynamo.Integrator { return s.integ }
func (s *Simulation) Config() Config                { return s.cfg }
func (s *Simulation) Phase() Phase                  { return s.phase }
func (s *Simulation) Time() float64                 { return s.t }
func (s *Simulation) TickCount() int                { return s.tick }
func (s *Simulation) Len() int                      { return s.pool.Len() }

// Stop terminates the simulation. Subsequent ticks fail with ErrTerminated.
func (s *Simulation) Stop() {
	s.phase = Terminated
}

func (s *Simulation) terminatedErr() error {
	return &dynamo.SimulationError{Tick: s.tick, Time: s.t, Wrapped: dynamo.ErrTerminated}
}

// Seed appends n rows from policy without advancing time. It is used for
// one-off initial placements such as a lattice of tracers.
func (s *Simulation) Seed(policy emit.Policy, n int) error {
	if s.phase == Terminated {
		return s.terminatedErr()
	}
	rows, err := s.pool.Emit(policy, s.rng, n)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return s.pool.Append(rows)
}

// Tick runs one emit, cap, advance, cull cycle and returns the snapshot
// handed to the renderers.
func (s *Simulation) Tick() (Snapshot, error) {
	if s.phase == Terminated {
		return Snapshot{}, s.terminatedErr()
	}
	rows, err := s.emitted()
	if err != nil {
		return Snapshot{}, &dynamo.SimulationError{Tick: s.tick, Time: s.t, Wrapped: err}
	}
	return s.advance(rows)
}

func (s *Simulation) emitted() (dynamo.Batch, error) {
	if s.cfg.EmitPerTick == 0 {
		return dynamo.Batch{}, nil
	}
	return s.pool.Emit(s.cfg.Emission, s.rng, s.cfg.EmitPerTick)
}

// advance performs the part of a tick after emission. rows are full-width
// and are copied into the pool.
func (s *Simulation) advance(rows dynamo.Batch) (Snapshot, error) {
	if s.phase == Terminated {
		return Snapshot{}, s.terminatedErr()
	}
	s.phase = Stepping

	stats := TickStats{Tick: s.tick + 1, Emitted: rows.Rows}
	if err := s.pool.Append(rows); err != nil {
		s.phase = Idle
		return Snapshot{}, &dynamo.SimulationError{Tick: s.tick, Time: s.t, Wrapped: err}
	}
	stats.Evicted = s.pool.Cap(s.cfg.Capacity)

	k := s.pool.Kinematic()
	s.integ.Advance(k, k, s.field, s.t, s.cfg.Dt)

	stats.Diverged = s.pool.Cull(s.finite)
	if stats.Diverged > 0 {
		s.log.Warn("dropped diverging particles",
			"tick", stats.Tick,
			"time", s.t,
			"count", stats.Diverged,
			"field", fmt.Sprintf("%T", s.field),
			"integrator", s.integ.Name(),
		)
	}

	s.pool.AgeTick(s.cfg.Dt)
	s.t += s.cfg.Dt
	s.tick++

	if s.inDomain != nil {
		stats.Exited = s.pool.Cull(s.inDomain)
	}
	if s.young != nil {
		stats.Expired = s.pool.Cull(s.young)
	}
	stats.Time = s.t
	stats.Live = s.pool.Len()

	snap := s.snapshot(stats)
	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, o := range s.observers {
		o.OnTick(snap)
	}
	for _, r := range s.renderers {
		r.Render(snap)
	}
	s.log.Debug("tick", "stats", stats)

	if s.phase == Stepping {
		s.phase = Idle
	}
	return snap, nil
}

// Snapshot copies the current ensemble without ticking.
func (s *Simulation) Snapshot() Snapshot {
	return s.snapshot(TickStats{Tick: s.tick, Time: s.t, Live: s.pool.Len()})
}

func (s *Simulation) snapshot(stats TickStats) Snapshot {
	n := s.pool.Len()
	dim := s.field.Dim()
	snap := Snapshot{
		Tick:      s.tick,
		Time:      s.t,
		Dim:       dim,
		Positions: make([]float64, n*dim),
		Stats:     stats,
	}
	snap.Batch().CopyFrom(s.pool.Kinematic())

	if idx := s.pool.Layout().AgeIndex(); idx >= 0 {
		snap.Ages = make([]float64, n)
		for i := range snap.Ages {
			snap.Ages[i] = s.pool.Row(i)[idx]
		}
	}
	if s.energy != nil {
		snap.Energies = make([]float64, n)
		for i := range snap.Energies {
			snap.Energies[i] = s.energy.Energy(snap.Position(i))
		}
	}
	return snap
}

// Run ticks the simulation until ticks have elapsed, the context is
// cancelled or the simulation is stopped.
func (s *Simulation) Run(ctx context.Context, ticks int) (*Result, error) {
	return s.run(ctx, ticks, nil)
}

// RunPaced is Run with ticks released by a wall-clock ticker. ticks <= 0
// runs until the context is cancelled or the simulation is stopped. The
// period only paces the loop; results depend on tick count alone.
func (s *Simulation) RunPaced(ctx context.Context, period time.Duration, ticks int) (*Result, error) {
	if period <= 0 {
		return nil, fmt.Errorf("sim: pacing period must be positive, got %s: %w", period, dynamo.ErrInvalidConfig)
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	return s.run(ctx, ticks, ticker.C)
}

func (s *Simulation) run(ctx context.Context, ticks int, clock <-chan time.Time) (*Result, error) {
	if s.phase == Terminated {
		return nil, s.terminatedErr()
	}
	if ticks <= 0 && clock == nil {
		return nil, fmt.Errorf("sim: tick count must be positive, got %d: %w", ticks, dynamo.ErrInvalidConfig)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result := newResult()
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if clock != nil {
			select {
			case <-ctx.Done():
				return s.finish(result), ctx.Err()
			case <-clock:
			}
		} else {
			select {
			case <-ctx.Done():
				return s.finish(result), ctx.Err()
			default:
			}
		}

		if s.phase == Terminated {
			break
		}
		snap, err := s.Tick()
		if err != nil {
			return s.finish(result), err
		}
		result.add(snap)
	}
	return s.finish(result), nil
}

func (s *Simulation) finish(r *Result) *Result {
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	return r
}
