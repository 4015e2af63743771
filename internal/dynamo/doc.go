// Package dynamo provides the core primitives for particle-flow simulation.
//
// The package defines the fundamental types shared by every other package:
//
//   - [Batch]: a block of per-particle state vectors stored row-major
//   - [Field]: a vector field evaluated over a whole batch (dX/dt = F(X, t))
//   - [Integrator]: a fixed-step numerical scheme advancing a batch
//   - [Hamiltonian]: optional energy function for conservative fields
//   - [Configurable]: optional runtime parameter access
//
// # Example
//
//	f := fields.NewLorenz()
//	in := integrators.NewRK4()
//	x := dynamo.NewBatch(n, f.Dim())
//	in.Advance(x, x, f, t, 0.01)
//
// # Thread Safety
//
// Fields are safe for concurrent evaluation. Integrators keep scratch
// buffers between calls and belong to a single simulation.
package dynamo
