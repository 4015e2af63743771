// Package fields provides vector fields for particle advection.
//
// Each field implements [dynamo.Field] and is defined point-wise, then
// evaluated over a whole batch:
//
//   - [DoubleGyre]: time-periodic double gyre flow
//   - [Lorenz]: butterfly attractor
//   - [Rossler]: spiral chaotic attractor
//   - [Pendulum], [Harmonic]: separable Hamiltonian fields on (q, p)
//   - [Bistable], [Radial], [Shear], [Drift]: planar test flows
//
// Parameterised fields implement [dynamo.Configurable]; Hamiltonian fields
// implement [dynamo.Hamiltonian] so snapshots can carry per-particle energy.
package fields
