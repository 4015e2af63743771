package optim

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/experiment"
)

var quiet = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

func harmonicConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Field = "harmonic"
	cfg.Integrator = "rk4"
	cfg.Dt = 0.01
	cfg.Ticks = 5
	cfg.Capacity = 50
	cfg.EmitPerTick = 10
	cfg.Seed = 5
	cfg.Emission = config.EmissionConfig{Kind: "gaussian", Mean: []float64{0, 0}, Std: []float64{1, 1}}
	return cfg
}

func TestGridSearchMinimizesEnergy(t *testing.T) {
	g, err := NewGridSearch([]string{"k"}, [][]float64{{2, 0.25, 1}}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	build := FieldParams(harmonicConfig(), experiment.NewRegistry(), quiet)

	res, err := g.Search(context.Background(), build, "mean_energy")
	if err != nil {
		t.Fatal(err)
	}
	if res.Params["k"] != 0.25 {
		t.Errorf("best k = %g", res.Params["k"])
	}
	if res.Evaluated != 3 || res.Failed != 0 {
		t.Errorf("evaluated %d failed %d", res.Evaluated, res.Failed)
	}
	if !(res.Value > 0) {
		t.Errorf("best value %g", res.Value)
	}
}

func TestGridSearchSkipsFailures(t *testing.T) {
	g, err := NewGridSearch([]string{"k"}, [][]float64{{-1, 1}}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	res, err := g.Search(context.Background(), FieldParams(harmonicConfig(), experiment.NewRegistry(), quiet), "mean_energy")
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || res.Params["k"] != 1 {
		t.Errorf("result %+v", res)
	}
}

func TestGridSearchCartesian(t *testing.T) {
	g, err := NewGridSearch([]string{"emit", "ticks"}, [][]float64{{4, 2, 8}, {3, 6}}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	var seen []map[string]float64
	build := func(p map[string]float64) (*experiment.Experiment, error) {
		seen = append(seen, p)
		cfg := harmonicConfig()
		cfg.EmitPerTick = int(p["emit"])
		cfg.Ticks = int(p["ticks"])
		exp := experiment.New(cfg, experiment.NewRegistry(), quiet)
		return exp, exp.Setup()
	}

	res, err := g.Search(context.Background(), build, "population")
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 6 {
		t.Errorf("visited %d points", len(seen))
	}
	// mean live after n ticks of e emitted per tick is e(n+1)/2
	if res.Params["emit"] != 2 || res.Params["ticks"] != 3 || res.Value != 4 {
		t.Errorf("result %+v", res)
	}
}

func TestGridSearchNoMetric(t *testing.T) {
	g, err := NewGridSearch([]string{"k"}, [][]float64{{1}}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	_, err = g.Search(context.Background(), FieldParams(harmonicConfig(), experiment.NewRegistry(), quiet), "no_such_metric")
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected invalid config, got %v", err)
	}
}

func TestGridSearchCancelled(t *testing.T) {
	g, err := NewGridSearch([]string{"k"}, [][]float64{{1, 2}}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Search(ctx, FieldParams(harmonicConfig(), experiment.NewRegistry(), quiet), "mean_energy"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestNewGridSearchValidation(t *testing.T) {
	if _, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1}}, quiet); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("mismatched lengths: %v", err)
	}
	if _, err := NewGridSearch([]string{"a"}, [][]float64{{}}, quiet); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("empty range: %v", err)
	}
}
