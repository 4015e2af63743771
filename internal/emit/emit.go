// Package emit provides emission policies that generate the initial state of
// newly created particles.
package emit

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// Policy fills the rows of dst with initial kinematic state. dst has Dim()
// channels and may be a strided view into a wider row layout; channels past
// Dim() are left alone.
type Policy interface {
	Dim() int
	Sample(dst dynamo.Batch, rng *rand.Rand)
}

// Uniform samples each channel independently from [Min[i], Max[i]).
type Uniform struct {
	Min, Max []float64
}

func NewUniform(min, max []float64) (*Uniform, error) {
	if err := checkBounds(min, max); err != nil {
		return nil, err
	}
	return &Uniform{Min: clone(min), Max: clone(max)}, nil
}

func (u *Uniform) Dim() int { return len(u.Min) }

func (u *Uniform) Sample(dst dynamo.Batch, rng *rand.Rand) {
	for i := 0; i < dst.Rows; i++ {
		row := dst.Row(i)
		for j := range row {
			row[j] = u.Min[j] + rng.Float64()*(u.Max[j]-u.Min[j])
		}
	}
}

// Gaussian samples each channel from N(Mean[i], Std[i]^2).
type Gaussian struct {
	Mean, Std []float64
}

func NewGaussian(mean, std []float64) (*Gaussian, error) {
	if len(mean) == 0 || len(mean) != len(std) {
		return nil, fmt.Errorf("gaussian: mean has %d channels, std %d: %w", len(mean), len(std), dynamo.ErrDimensionMismatch)
	}
	for i, s := range std {
		if s < 0 {
			return nil, fmt.Errorf("gaussian: std[%d] = %g: %w", i, s, dynamo.ErrParameterBounds)
		}
	}
	return &Gaussian{Mean: clone(mean), Std: clone(std)}, nil
}

func (g *Gaussian) Dim() int { return len(g.Mean) }

func (g *Gaussian) Sample(dst dynamo.Batch, rng *rand.Rand) {
	for i := 0; i < dst.Rows; i++ {
		row := dst.Row(i)
		for j := range row {
			row[j] = g.Mean[j] + rng.NormFloat64()*g.Std[j]
		}
	}
}

func checkBounds(min, max []float64) error {
	if len(min) == 0 || len(min) != len(max) {
		return fmt.Errorf("bounds: min has %d channels, max %d: %w", len(min), len(max), dynamo.ErrDimensionMismatch)
	}
	for i := range min {
		if min[i] > max[i] {
			return fmt.Errorf("bounds: min[%d]=%g > max[%d]=%g: %w", i, min[i], i, max[i], dynamo.ErrParameterBounds)
		}
	}
	return nil
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
