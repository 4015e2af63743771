package config

import "sort"

// Presets reproduce the reference flows: each entry is a complete
// configuration.
var Presets = map[string]*Config{
	"lorenz": {
		Field: "lorenz", Integrator: "rk4", Dt: 0.01, Ticks: 1000,
		Capacity: 6000, EmitPerTick: 40, MaxAge: 4.5, Seed: 1,
		Domain:   DomainConfig{Kind: "none"},
		Emission: EmissionConfig{Kind: "uniform", Min: []float64{-30, -30, 0}, Max: []float64{30, 30, 50}},
		View: ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{-30, -30}, Max: []float64{30, 30},
			Color: "channel", Channel: 2, Fade: true},
	},
	"lorenz_rot": {
		Field: "lorenz", Integrator: "rk4", Dt: 0.01, Ticks: 2000,
		Capacity: 6000, EmitPerTick: 40, MaxAge: 4.5, Seed: 1,
		Domain:   DomainConfig{Kind: "none"},
		Emission: EmissionConfig{Kind: "uniform", Min: []float64{-30, -30, 0}, Max: []float64{30, 30, 50}},
		View: ViewConfig{FrameMs: 30, Min: []float64{-40, 0}, Max: []float64{40, 55},
			Rotate: 0.01, Color: "depth", Fade: true},
	},
	"double_gyre": {
		Field: "double_gyre", Integrator: "rk4", Dt: 0.05, Ticks: 400,
		Capacity: 7200, Seed: 1,
		Domain:       DomainConfig{Kind: "none"},
		Initial:      &EmissionConfig{Kind: "grid", Min: []float64{0, 0}, Max: []float64{2, 1}, Counts: []int{120, 60}},
		InitialCount: 7200,
		View: ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{0, 0}, Max: []float64{2, 1},
			Color: "channel", Channel: 0, Scale: 2},
	},
	"hamiltonian": {
		Field: "harmonic", Compare: []string{"rk4", "symplectic_euler"}, Dt: 0.05, Ticks: 1000,
		Capacity: 12000, EmitPerTick: 120, TrackAge: true, Seed: 1,
		Domain:   DomainConfig{Kind: "box", Min: []float64{-4.5, -4.5}, Max: []float64{4.5, 4.5}},
		Emission: EmissionConfig{Kind: "uniform", Min: []float64{-2, -2}, Max: []float64{2, 2}},
		View: ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{-4.5, -4.5}, Max: []float64{4.5, 4.5},
			Color: "age", Scale: 20},
	},
	"flow_compare": {
		Field: "shear", Compare: []string{"euler", "rk4"}, Dt: 0.01, Ticks: 1000,
		Capacity: 12000, EmitPerTick: 120, TrackAge: true, Seed: 1,
		Domain:   DomainConfig{Kind: "box", Min: []float64{-4.5, -4.5}, Max: []float64{4.5, 4.5}},
		Emission: EmissionConfig{Kind: "uniform", Min: []float64{-4.5, -4.5}, Max: []float64{4.5, 4.5}},
		View: ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{-4.5, -4.5}, Max: []float64{4.5, 4.5},
			Color: "age", Scale: 6},
	},
	"bistable": {
		Field: "bistable", Integrator: "euler", Dt: 0.01, Ticks: 1000,
		Capacity: 20000, EmitPerTick: 200, Seed: 1,
		Domain:   DomainConfig{Kind: "box", Min: []float64{-4.5, -4.5}, Max: []float64{4.5, 4.5}},
		Emission: EmissionConfig{Kind: "uniform", Min: []float64{-4.5, -4.5}, Max: []float64{4.5, 4.5}},
		View:     ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{-4.5, -4.5}, Max: []float64{4.5, 4.5}},
	},
	"pendulum": {
		Field: "pendulum", Integrator: "symplectic_euler", Dt: 0.04, Ticks: 1000,
		Capacity: 40000, EmitPerTick: 40, Seed: 1,
		Domain:   DomainConfig{Kind: "none"},
		Emission: EmissionConfig{Kind: "uniform", Min: []float64{-3.141592653589793, -2.5}, Max: []float64{3.141592653589793, 2.5}},
		View: ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{-3.141592653589793, -3}, Max: []float64{3.141592653589793, 3},
			Color: "energy", Scale: 3},
	},
	"nonlinear": {
		Field: "bistable", Integrator: "rk4", Dt: 0.05, Ticks: 500,
		Capacity: 5000, EmitPerTick: 10, Seed: 1,
		Domain:   DomainConfig{Kind: "ball", Center: []float64{0, 0}, Radius: 2.5},
		Emission: EmissionConfig{Kind: "gaussian", Mean: []float64{0, 0}, Std: []float64{1, 1}},
		View:     ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{-2, -2}, Max: []float64{2, 2}},
	},
	"radial": {
		Field: "radial", Integrator: "euler", Dt: 0.005, Ticks: 200,
		Capacity: 5000, Seed: 1,
		Domain:       DomainConfig{Kind: "none"},
		Initial:      &EmissionConfig{Kind: "uniform", Min: []float64{-1.5, -1.5}, Max: []float64{1.5, 1.5}},
		InitialCount: 5000,
		View:         ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{-2, -2}, Max: []float64{2, 2}},
	},
	"drift": {
		Field: "drift", Integrator: "euler", Dt: 0.1, Ticks: 100,
		Capacity: 400, Seed: 1,
		Domain:       DomainConfig{Kind: "box", Min: []float64{-2.5, -2.5}, Max: []float64{2.5, 2.5}},
		Initial:      &EmissionConfig{Kind: "grid", Min: []float64{-2, -2}, Max: []float64{2, 2}, Counts: []int{20, 20}},
		InitialCount: 400,
		View:         ViewConfig{FrameMs: 30, Axes: []int{0, 1}, Min: []float64{-2, -2}, Max: []float64{2, 2}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
