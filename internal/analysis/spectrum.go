package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X_k| for k in [0, n/2] of the mean-removed series.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	mean := stat.Mean(series, nil)
	centred := make([]float64, len(series))
	for i, v := range series {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(len(centred))
	coeff := fft.Coefficients(nil, centred)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the frequency in cycles per unit time of the
// strongest non-constant component of a series sampled every dt.
func DominantFrequency(series []float64, dt float64) float64 {
	ps := PowerSpectrum(series)
	if len(ps) < 2 {
		return 0
	}
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return float64(best) / (float64(len(series)) * dt)
}
