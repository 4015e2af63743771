package experiment

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/fields"
)

var quiet = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

func setup(t *testing.T, cfg *config.Config) *Experiment {
	t.Helper()
	e := New(cfg, NewRegistry(), quiet)
	if err := e.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return e
}

func TestPresetsRun(t *testing.T) {
	for _, name := range config.ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := config.GetPreset(name)
			cfg.Ticks = 5
			e := setup(t, cfg)

			results, err := e.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != len(cfg.Integrators()) {
				t.Fatalf("%d results for %d integrators", len(results), len(cfg.Integrators()))
			}
			for i, r := range results {
				if r.Ticks != 5 {
					t.Errorf("%s: ran %d ticks", e.Labels()[i], r.Ticks)
				}
				if r.Final.Len() > cfg.Capacity {
					t.Errorf("%s: %d live over capacity %d", e.Labels()[i], r.Final.Len(), cfg.Capacity)
				}
				if _, ok := r.Metrics["population"]; !ok {
					t.Errorf("%s: population metric missing: %v", e.Labels()[i], r.Metrics)
				}
			}
		})
	}
}

func TestComparisonSetup(t *testing.T) {
	e := setup(t, config.GetPreset("hamiltonian"))

	if e.Comparison() == nil {
		t.Fatal("expected comparison")
	}
	if got := e.Labels(); len(got) != 2 || got[0] != "rk4" || got[1] != "symplectic_euler" {
		t.Errorf("labels = %v", got)
	}

	snaps, err := e.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 || snaps[0].Stats.Emitted != 120 || snaps[1].Stats.Emitted != 120 {
		t.Errorf("snapshots %+v", snaps)
	}
	if snaps[0].Energies == nil {
		t.Error("harmonic snapshots carry no energies")
	}
}

func TestGridSeeding(t *testing.T) {
	e := setup(t, config.GetPreset("double_gyre"))

	s := e.Simulations()[0]
	if s.Len() != 7200 {
		t.Fatalf("seeded %d particles, want 7200", s.Len())
	}
	snaps, err := e.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if snaps[0].Len() != 7200 || snaps[0].Stats.Emitted != 0 {
		t.Errorf("after tick: live %d emitted %d", snaps[0].Len(), snaps[0].Stats.Emitted)
	}
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   error
	}{
		{"unknown field", func(c *config.Config) { c.Field = "vortex" }, dynamo.ErrUnknownComponent},
		{"unknown integrator", func(c *config.Config) { c.Integrator = "rk45" }, dynamo.ErrUnknownComponent},
		{"unknown emission", func(c *config.Config) { c.Emission.Kind = "sobol" }, dynamo.ErrUnknownComponent},
		{"unknown param", func(c *config.Config) { c.FieldParams = map[string]float64{"gamma": 1} }, dynamo.ErrUnknownComponent},
		{"params on plain field", func(c *config.Config) {
			c.Field = "bistable"
			c.Emission.Min, c.Emission.Max = []float64{-1, -1}, []float64{1, 1}
			c.FieldParams = map[string]float64{"a": 1}
		}, dynamo.ErrInvalidConfig},
		{"symplectic on odd field", func(c *config.Config) { c.Integrator = "symplectic_euler" }, dynamo.ErrDimensionMismatch},
		{"emission dim", func(c *config.Config) { c.Field = "pendulum" }, dynamo.ErrDimensionMismatch},
		{"invalid dt", func(c *config.Config) { c.Dt = 0 }, dynamo.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)
			err := New(cfg, NewRegistry(), quiet).Setup()
			if !errors.Is(err, tt.want) {
				t.Errorf("Setup() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFieldParams(t *testing.T) {
	f, err := NewRegistry().Field("lorenz", map[string]float64{"rho": 99, "sigma": 12})
	if err != nil {
		t.Fatal(err)
	}
	l := f.(*fields.Lorenz)
	if l.Rho != 99 || l.Sigma != 12 {
		t.Errorf("params not applied: %+v", l)
	}
}

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()
	if got := r.ListIntegrators(); len(got) != 4 || got[0] != "euler" {
		t.Errorf("integrators = %v", got)
	}
	if len(r.ListFields()) != 9 {
		t.Errorf("fields = %v", r.ListFields())
	}

	r.RegisterField("still", func() dynamo.Field {
		return fields.Point(1, func(d, _ []float64, _ float64) { d[0] = 0 })
	})
	if _, err := r.Field("still", nil); err != nil {
		t.Errorf("registered field: %v", err)
	}
}

func TestBuilders(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmissionConfig
		dim  int
	}{
		{"uniform", config.EmissionConfig{Kind: "uniform", Min: []float64{0, 0}, Max: []float64{1, 1}}, 2},
		{"gaussian", config.EmissionConfig{Kind: "gaussian", Mean: []float64{0, 0, 0}, Std: []float64{1, 1, 1}}, 3},
		{"grid", config.EmissionConfig{Kind: "grid", Min: []float64{0}, Max: []float64{1}, Counts: []int{4}}, 1},
		{"seeds", config.EmissionConfig{Kind: "seeds", Seeds: [][]float64{{0, 2.5}}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Policy(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if p.Dim() != tt.dim {
				t.Errorf("Dim() = %d, want %d", p.Dim(), tt.dim)
			}
		})
	}

	if _, err := Policy(config.EmissionConfig{Kind: "uniform"}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("empty uniform: %v", err)
	}

	d, err := Domain(config.DomainConfig{Kind: "none"})
	if err != nil || d != nil {
		t.Errorf("none domain = %v, %v", d, err)
	}
	d, err = Domain(config.DomainConfig{Kind: "ball", Center: []float64{0, 0}, Radius: 2.5})
	if err != nil || d.Dim() != 2 {
		t.Errorf("ball domain = %v, %v", d, err)
	}
	if _, err := Domain(config.DomainConfig{Kind: "box"}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("empty box: %v", err)
	}
}

func TestRunBeforeSetup(t *testing.T) {
	e := New(config.DefaultConfig(), NewRegistry(), quiet)
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}
