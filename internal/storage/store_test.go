package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/flowsim/internal/emit"
	"github.com/san-kum/flowsim/internal/fields"
	"github.com/san-kum/flowsim/internal/integrators"
	"github.com/san-kum/flowsim/internal/metrics"
	"github.com/san-kum/flowsim/internal/sim"
)

func harmonicSim(t *testing.T) *sim.Simulation {
	t.Helper()
	g, err := emit.NewGaussian([]float64{0, 0}, []float64{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	s, err := sim.New(fields.NewHarmonic(), integrators.NewSymplecticEuler(), sim.Config{
		Dt:          0.05,
		Capacity:    50,
		EmitPerTick: 10,
		TrackAge:    true,
		Emission:    g,
		Seed:        7,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStoreRecordLoad(t *testing.T) {
	st := New(t.TempDir())
	s := harmonicSim(t)
	s.AddMetric(metrics.NewPopulation())

	rec, err := st.Create(RunMetadata{
		Field:       "harmonic",
		Integrator:  "symplectic_euler",
		Seed:        7,
		Dt:          0.05,
		Capacity:    50,
		EmitPerTick: 10,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.ID() == "" {
		t.Fatal("expected non-empty run id")
	}
	s.AddObserver(rec)

	result, err := s.Run(context.Background(), 8)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := rec.Close(result); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	meta, err := st.Load(rec.ID())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Field != "harmonic" || meta.Seed != 7 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Ticks != 8 || meta.Emitted != 80 || meta.Evicted != 30 || meta.Live != 50 {
		t.Errorf("totals = ticks %d emitted %d evicted %d live %d", meta.Ticks, meta.Emitted, meta.Evicted, meta.Live)
	}
	if meta.Metrics["population"] != 37.5 {
		t.Errorf("population metric = %v, want 37.5", meta.Metrics["population"])
	}

	ticks, err := st.LoadTicks(rec.ID())
	if err != nil {
		t.Fatalf("load ticks failed: %v", err)
	}
	if len(ticks) != 8 {
		t.Fatalf("expected 8 tick rows, got %d", len(ticks))
	}
	for i, r := range ticks {
		if r.Tick != i+1 {
			t.Errorf("row %d tick = %d", i, r.Tick)
		}
		if r.Emitted != 10 {
			t.Errorf("row %d emitted = %d", i, r.Emitted)
		}
		if r.MeanEnergy <= 0 {
			t.Errorf("row %d mean energy = %v", i, r.MeanEnergy)
		}
	}
	if ticks[7].Live != 50 || ticks[7].Evicted != 10 {
		t.Errorf("last row = %+v", ticks[7])
	}
}

func TestStoreRecordIDsUnique(t *testing.T) {
	st := New(t.TempDir())
	meta := RunMetadata{Field: "lorenz", Integrator: "rk4"}

	a, err := st.Create(meta)
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Create(meta)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() == b.ID() {
		t.Errorf("run ids collide: %s", a.ID())
	}
	for _, r := range []*Recorder{a, b} {
		if err := r.Close(nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	ticks, err := st.LoadTicks(a.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(ticks) != 0 {
		t.Errorf("expected no tick rows, got %d", len(ticks))
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list on empty store: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}
	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("directories without metadata must be skipped, got %d", len(runs))
	}
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestExportJSON(t *testing.T) {
	s := harmonicSim(t)
	if _, err := s.Run(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()

	var buf bytes.Buffer
	if err := ExportJSON(&buf, NewExportData("harmonic", "symplectic_euler", snap)); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Tick != 3 || got.Dim != 2 || len(got.Positions) != 30 {
		t.Errorf("tick %d dim %d rows %d", got.Tick, got.Dim, len(got.Positions))
	}
	if diff := cmp.Diff(snap.Position(4), got.Positions[4]); diff != "" {
		t.Errorf("row 4 mismatch (-want +got):\n%s", diff)
	}
	if len(got.Ages) != 30 || len(got.Energies) != 30 {
		t.Errorf("ages %d energies %d", len(got.Ages), len(got.Energies))
	}
}

func TestExportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := ExportJSONFile(path, ExportData{Field: "drift", Dim: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}
