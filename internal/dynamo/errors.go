package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a configuration that cannot start a simulation.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched channel counts between
	// field, pool, emission policy or domain.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and field")

	// ErrUnknownComponent indicates a field, integrator or policy name
	// that is not registered.
	ErrUnknownComponent = errors.New("dynamo: unknown component")

	// ErrTerminated indicates a tick was requested after Stop.
	ErrTerminated = errors.New("dynamo: simulation terminated")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Tick    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
