// Package analysis measures integrators and fields on single trajectories.
//
// Everything here drives a one-row batch through a [dynamo.Integrator], so
// the numbers describe exactly what a simulation tick would do to one
// particle:
//
//   - [Integrate]: a sampled trajectory from one initial point
//   - [ConvergenceOrder]: empirical global order of accuracy against a
//     closed-form solution
//   - [EnergySeries] and [RelativeDrift]: conservation of a Hamiltonian
//   - [LyapunovExponent]: largest exponent by trajectory separation
//   - [DominantFrequency]: strongest oscillation in a sampled coordinate
//   - [PhasePortrait]: 2D projection of a trajectory as ASCII art
//
// # Order of accuracy
//
//	order, err := analysis.ConvergenceOrder(h, integrators.NewRK4(), x0,
//	    exact, 1.0, []float64{0.1, 0.05, 0.025})
//	// order ≈ 4
package analysis
