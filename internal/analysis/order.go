package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// ExactFunc returns the true state at time t for the initial point the
// study started from.
type ExactFunc func(t float64) []float64

// OrderStudy is the global error of one integrator at several step sizes.
type OrderStudy struct {
	Integrator string
	T          float64
	Dts        []float64
	Errors     []float64
	// Order is the least-squares slope of log error against log dt.
	Order float64
}

// StudyOrder integrates x0 up to T with every step size in dts and records
// the max-norm error against exact.
func StudyOrder(f dynamo.Field, in dynamo.Integrator, x0 []float64, exact ExactFunc, T float64, dts []float64) (*OrderStudy, error) {
	if len(dts) < 2 {
		return nil, fmt.Errorf("analysis: order needs at least two step sizes: %w", dynamo.ErrInvalidConfig)
	}

	want := exact(T)
	st := &OrderStudy{
		Integrator: in.Name(),
		T:          T,
		Dts:        append([]float64(nil), dts...),
		Errors:     make([]float64, len(dts)),
	}
	logDt := make([]float64, len(dts))
	logErr := make([]float64, len(dts))
	for i, dt := range dts {
		got, err := Final(f, in, x0, dt, T)
		if err != nil {
			return nil, err
		}
		e := floats.Distance(got, want, math.Inf(1))
		if e == 0 {
			return nil, fmt.Errorf("analysis: %s is exact at dt=%v, order undefined", in.Name(), dt)
		}
		st.Errors[i] = e
		logDt[i] = math.Log(dt)
		logErr[i] = math.Log(e)
	}

	_, st.Order = stat.LinearRegression(logDt, logErr, nil, false)
	return st, nil
}

// ConvergenceOrder is StudyOrder reduced to the fitted order.
func ConvergenceOrder(f dynamo.Field, in dynamo.Integrator, x0 []float64, exact ExactFunc, T float64, dts []float64) (float64, error) {
	st, err := StudyOrder(f, in, x0, exact, T, dts)
	if err != nil {
		return 0, err
	}
	return st.Order, nil
}

// Halving returns n step sizes starting at dt, each half the previous.
func Halving(dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = dt
		dt /= 2
	}
	return out
}
