package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/fields"
	"github.com/san-kum/flowsim/internal/integrators"
	"github.com/san-kum/flowsim/internal/metrics"
	"github.com/san-kum/flowsim/internal/sim"
)

type Registry struct {
	fields      map[string]func() dynamo.Field
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		fields:      make(map[string]func() dynamo.Field),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.fields["lorenz"] = func() dynamo.Field { return fields.NewLorenz() }
	r.fields["rossler"] = func() dynamo.Field { return fields.NewRossler() }
	r.fields["double_gyre"] = func() dynamo.Field { return fields.NewDoubleGyre() }
	r.fields["pendulum"] = func() dynamo.Field { return fields.NewPendulum() }
	r.fields["harmonic"] = func() dynamo.Field { return fields.NewHarmonic() }
	r.fields["bistable"] = func() dynamo.Field { return fields.NewBistable() }
	r.fields["radial"] = func() dynamo.Field { return fields.NewRadial() }
	r.fields["shear"] = func() dynamo.Field { return fields.NewShear() }
	r.fields["drift"] = func() dynamo.Field { return fields.NewDrift() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["symplectic_euler"] = func() dynamo.Integrator { return integrators.NewSymplecticEuler() }
	r.integrators["leapfrog"] = func() dynamo.Integrator { return integrators.NewLeapfrog() }

	return r
}

func (r *Registry) RegisterField(name string, fn func() dynamo.Field) {
	r.fields[name] = fn
}

func (r *Registry) RegisterIntegrator(name string, fn func() dynamo.Integrator) {
	r.integrators[name] = fn
}

// Field builds a fresh field and applies params to it.
func (r *Registry) Field(name string, params map[string]float64) (dynamo.Field, error) {
	fn, ok := r.fields[name]
	if !ok {
		return nil, fmt.Errorf("field %q: %w", name, dynamo.ErrUnknownComponent)
	}
	f := fn()
	if len(params) == 0 {
		return f, nil
	}
	c, ok := f.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("field %q takes no parameters: %w", name, dynamo.ErrInvalidConfig)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.SetParam(k, params[k]); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
	}
	return f, nil
}

func (r *Registry) Integrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("integrator %q: %w", name, dynamo.ErrUnknownComponent)
	}
	return fn(), nil
}

func (r *Registry) ListFields() []string {
	return sortedKeys(r.fields)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the metrics attached to every run of f.
func (r *Registry) DefaultMetrics(f dynamo.Field) []sim.Metric {
	ms := []sim.Metric{
		metrics.NewPopulation(),
		metrics.NewDivergence(),
		metrics.NewContainment(1e3),
	}
	if _, ok := f.(dynamo.Hamiltonian); ok {
		ms = append(ms, metrics.NewMeanEnergy(), metrics.NewEnergyDrift())
	}
	return ms
}
