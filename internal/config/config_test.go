package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/flowsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Field != "lorenz" {
		t.Errorf("expected field lorenz, got %s", cfg.Field)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("hamiltonian")

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "field: pendulum\nintegrator: symplectic_euler\ndt: 0.04\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Field != "pendulum" || cfg.Dt != 0.04 {
		t.Errorf("explicit values lost: %+v", cfg)
	}
	if cfg.Ticks != DefaultTicks || cfg.View.FrameMs != DefaultFrameMs {
		t.Errorf("defaults not applied: ticks %d frame %d", cfg.Ticks, cfg.View.FrameMs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no field", func(c *Config) { c.Field = "" }, dynamo.ErrInvalidConfig},
		{"no integrator", func(c *Config) { c.Integrator = "" }, dynamo.ErrInvalidConfig},
		{"zero dt", func(c *Config) { c.Dt = 0 }, dynamo.ErrInvalidConfig},
		{"negative capacity", func(c *Config) { c.Capacity = -1 }, dynamo.ErrInvalidConfig},
		{"negative emit", func(c *Config) { c.EmitPerTick = -3 }, dynamo.ErrInvalidConfig},
		{"negative max age", func(c *Config) { c.MaxAge = -1 }, dynamo.ErrInvalidConfig},
		{"nothing emitted", func(c *Config) { c.EmitPerTick = 0 }, dynamo.ErrInvalidConfig},
		{"bad domain", func(c *Config) { c.Domain.Kind = "torus" }, dynamo.ErrUnknownComponent},
		{"compare only", func(c *Config) { c.Integrator = ""; c.Compare = []string{"rk4"} }, nil},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			if err := GetPreset(name).Validate(); err != nil {
				t.Errorf("preset %s: %v", name, err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("lorenz")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.MaxAge != 4.5 || cfg.EmitPerTick != 40 || cfg.Capacity != 6000 {
		t.Errorf("lorenz preset %+v", cfg)
	}

	cfg.Emission.Min[0] = 999
	if Presets["lorenz"].Emission.Min[0] == 999 {
		t.Error("GetPreset returned shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresetsSorted(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("got %d names for %d presets", len(names), len(Presets))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("not sorted: %v", names)
		}
	}
}

func TestIntegrators(t *testing.T) {
	if diff := cmp.Diff([]string{"rk4", "symplectic_euler"}, GetPreset("hamiltonian").Integrators()); diff != "" {
		t.Errorf("compare preset (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"rk4"}, GetPreset("lorenz").Integrators()); diff != "" {
		t.Errorf("single preset (-want +got):\n%s", diff)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FLOWSIM_DT", "0.02")
	t.Setenv("FLOWSIM_CAPACITY", "100")
	t.Setenv("FLOWSIM_INTEGRATOR", "euler")

	o, err := LoadOverrides()
	if err != nil {
		t.Fatal(err)
	}
	if o.Ticks != nil || o.Seed != nil {
		t.Errorf("unset variables produced values: %+v", o)
	}

	cfg := GetPreset("hamiltonian")
	o.Apply(cfg)

	if cfg.Dt != 0.02 || cfg.Capacity != 100 {
		t.Errorf("overrides not applied: dt %g capacity %d", cfg.Dt, cfg.Capacity)
	}
	if cfg.Integrator != "euler" || cfg.Compare != nil {
		t.Errorf("integrator override: %q compare %v", cfg.Integrator, cfg.Compare)
	}
	if cfg.Ticks != 1000 {
		t.Errorf("ticks changed to %d", cfg.Ticks)
	}
}

func TestEnvBadValue(t *testing.T) {
	t.Setenv("FLOWSIM_TICKS", "many")
	if _, err := LoadOverrides(); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadEnvDefaults(t *testing.T) {
	e, err := LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if e.DataDir != ".flowsim" || e.LogLevel != "info" {
		t.Errorf("defaults %+v", e)
	}

	t.Setenv("FLOWSIM_DATA", "/tmp/runs")
	t.Setenv("FLOWSIM_LOG_JSON", "true")
	e, err = LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if e.DataDir != "/tmp/runs" || !e.LogJSON {
		t.Errorf("env values %+v", e)
	}
}
