package dynamo

// Field is a vector field over particle state. Derive writes the time
// derivative of every row of x into the matching row of dst and must not
// modify x or retain either batch.
type Field interface {
	Dim() int
	Derive(dst, x Batch, t float64)
}

// Hamiltonian is implemented by conservative fields whose rows are laid out
// as (q..., p...).
type Hamiltonian interface {
	Energy(x []float64) float64
}

// Integrator advances x by one step of size dt and writes the result into
// dst. x is never modified; dst may alias x.
type Integrator interface {
	Name() string
	Advance(dst, x Batch, f Field, t, dt float64)
}

// DimValidator is implemented by integrators that only accept certain
// state layouts.
type DimValidator interface {
	ValidateDim(dim int) error
}

type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}
