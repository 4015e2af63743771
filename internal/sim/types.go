package sim

import (
	"log/slog"

	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/emit"
	"github.com/san-kum/flowsim/internal/particle"
)

// Phase is the orchestrator state.
type Phase int

const (
	Idle Phase = iota
	Stepping
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

type Config struct {
	Dt float64
	// Capacity bounds the live particle count after every tick. Zero is
	// legal and evicts everything.
	Capacity    int
	EmitPerTick int
	// MaxAge > 0 expires particles whose age reaches it and implies
	// TrackAge.
	MaxAge   float64
	TrackAge bool
	// Domain may be nil for an unbounded simulation.
	Domain   particle.Domain
	Emission emit.Policy
	Seed     int64
	Logger   *slog.Logger
}

// Snapshot is a copy of the ensemble after one tick. Renderers may keep it;
// nothing in it aliases simulation state.
type Snapshot struct {
	Tick int
	Time float64
	Dim  int
	// Positions holds Len() rows of Dim kinematic channels, row-major.
	Positions []float64
	// Ages is nil when the simulation does not track age.
	Ages []float64
	// Energies is nil unless the field is Hamiltonian.
	Energies []float64
	Stats    TickStats
}

func (s Snapshot) Len() int {
	if s.Dim == 0 {
		return 0
	}
	return len(s.Positions) / s.Dim
}

func (s Snapshot) Position(i int) []float64 {
	return s.Positions[i*s.Dim : (i+1)*s.Dim : (i+1)*s.Dim]
}

// Batch views the positions as a dense batch.
func (s Snapshot) Batch() dynamo.Batch {
	return dynamo.Batch{Data: s.Positions, Rows: s.Len(), Dim: s.Dim, Stride: s.Dim}
}

// TickStats counts what happened to the ensemble during one tick.
type TickStats struct {
	Tick     int
	Time     float64
	Emitted  int
	Evicted  int
	Diverged int
	Exited   int
	Expired  int
	Live     int
}

// Removed is the number of rows that left the pool this tick.
func (s TickStats) Removed() int {
	return s.Evicted + s.Diverged + s.Exited + s.Expired
}

// LogValue implements slog.LogValuer for structured logging.
func (s TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", s.Tick),
		slog.Float64("time", s.Time),
		slog.Int("emitted", s.Emitted),
		slog.Int("evicted", s.Evicted),
		slog.Int("diverged", s.Diverged),
		slog.Int("exited", s.Exited),
		slog.Int("expired", s.Expired),
		slog.Int("live", s.Live),
	)
}

// Renderer consumes one snapshot per tick. It must return quickly.
type Renderer interface {
	Render(s Snapshot)
}

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(s Snapshot)
}

type Result struct {
	Ticks    int
	Time     float64
	Emitted  int
	Evicted  int
	Diverged int
	Exited   int
	Expired  int
	Final    Snapshot
	Metrics  map[string]float64
}

func newResult() *Result {
	return &Result{Metrics: make(map[string]float64)}
}

func (r *Result) add(s Snapshot) {
	r.Ticks++
	r.Time = s.Time
	r.Emitted += s.Stats.Emitted
	r.Evicted += s.Stats.Evicted
	r.Diverged += s.Stats.Diverged
	r.Exited += s.Stats.Exited
	r.Expired += s.Stats.Expired
	r.Final = s
}
