package integrators

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// SymplecticEuler is the semi-implicit Euler scheme for rows laid out as
// (q..., p...). The momentum half is kicked first using the old positions,
// then the positions drift using the new momentum:
//
//	p' = p + dt*F_p(q, p, t)
//	q' = q + dt*F_q(q, p', t)
//
// For separable fields with q' = p this is p' = p - dt*dH/dq(q),
// q' = q + dt*p'. The field is evaluated twice; the unused half of each
// evaluation is discarded.
type SymplecticEuler struct {
	x0, k dynamo.Batch
}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (s *SymplecticEuler) Name() string { return "symplectic_euler" }

func (s *SymplecticEuler) ValidateDim(dim int) error {
	return validateCanonical(s.Name(), dim)
}

func (s *SymplecticEuler) Advance(dst, x dynamo.Batch, f dynamo.Field, t, dt float64) {
	half := x.Dim / 2
	s.x0 = gather(s.x0, x)
	s.k = ensure(s.k, x.Rows, x.Dim)

	f.Derive(s.k, s.x0, t)
	for i := 0; i < x.Rows; i++ {
		floats.AddScaled(s.x0.Row(i)[half:], dt, s.k.Row(i)[half:])
	}

	f.Derive(s.k, s.x0, t)
	for i := 0; i < x.Rows; i++ {
		floats.AddScaled(s.x0.Row(i)[:half], dt, s.k.Row(i)[:half])
	}

	dst.CopyFrom(s.x0)
}

func validateCanonical(name string, dim int) error {
	if dim < 2 || dim%2 != 0 {
		return fmt.Errorf("%s needs an even (q, p) layout, got %d channels: %w", name, dim, dynamo.ErrDimensionMismatch)
	}
	return nil
}
