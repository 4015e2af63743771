package metrics

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/flowsim/internal/sim"
)

// Distribution describes one scalar channel across the ensemble.
type Distribution struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	P05  float64
	P50  float64
	P95  float64
}

// Describe computes a Distribution of v. It returns false when v is empty.
func Describe(v []float64) (Distribution, bool) {
	if len(v) == 0 {
		return Distribution{}, false
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)

	var d Distribution
	d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		d.Std = 0
	}
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	d.P05 = stat.Quantile(0.05, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	d.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return d, true
}

func (d Distribution) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean", d.Mean),
		slog.Float64("std", d.Std),
		slog.Float64("min", d.Min),
		slog.Float64("p50", d.P50),
		slog.Float64("max", d.Max),
	)
}

// Summary condenses a snapshot into per-channel distributions.
type Summary struct {
	Tick     int
	Time     float64
	Live     int
	Channels []Distribution
	Energy   *Distribution
	Age      *Distribution
}

func Summarize(s sim.Snapshot) Summary {
	sum := Summary{Tick: s.Tick, Time: s.Time, Live: s.Len()}
	if sum.Live == 0 {
		return sum
	}

	col := make([]float64, sum.Live)
	sum.Channels = make([]Distribution, s.Dim)
	for j := 0; j < s.Dim; j++ {
		for i := range col {
			col[i] = s.Positions[i*s.Dim+j]
		}
		sum.Channels[j], _ = Describe(col)
	}

	if d, ok := Describe(s.Energies); ok {
		sum.Energy = &d
	}
	if d, ok := Describe(s.Ages); ok {
		sum.Age = &d
	}
	return sum
}
