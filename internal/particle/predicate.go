package particle

import (
	"fmt"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// Predicate decides whether a row stays in the pool.
type Predicate func(row []float64) bool

// Domain is a region of the leading Dim() channels of a row.
type Domain interface {
	Dim() int
	Contains(x []float64) bool
}

// Box is the open axis-aligned box Min < x < Max.
type Box struct {
	Min, Max []float64
}

func NewBox(min, max []float64) (*Box, error) {
	if len(min) == 0 || len(min) != len(max) {
		return nil, fmt.Errorf("box: min has %d channels, max %d: %w", len(min), len(max), dynamo.ErrDimensionMismatch)
	}
	for i := range min {
		if min[i] >= max[i] {
			return nil, fmt.Errorf("box: axis %d is empty (%g, %g): %w", i, min[i], max[i], dynamo.ErrInvalidConfig)
		}
	}
	return &Box{Min: append([]float64(nil), min...), Max: append([]float64(nil), max...)}, nil
}

// Symmetric returns the box (-h, h) in dim channels.
func Symmetric(dim int, h float64) (*Box, error) {
	min := make([]float64, dim)
	max := make([]float64, dim)
	for i := range min {
		min[i], max[i] = -h, h
	}
	return NewBox(min, max)
}

func (b *Box) Dim() int { return len(b.Min) }

func (b *Box) Contains(x []float64) bool {
	for i, lo := range b.Min {
		if !(x[i] > lo && x[i] < b.Max[i]) {
			return false
		}
	}
	return true
}

// Ball is the open ball |x - Center| < Radius.
type Ball struct {
	Center []float64
	Radius float64
}

func NewBall(center []float64, radius float64) (*Ball, error) {
	if len(center) == 0 {
		return nil, fmt.Errorf("ball: no channels: %w", dynamo.ErrDimensionMismatch)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("ball: radius %g: %w", radius, dynamo.ErrInvalidConfig)
	}
	return &Ball{Center: append([]float64(nil), center...), Radius: radius}, nil
}

func (b *Ball) Dim() int { return len(b.Center) }

func (b *Ball) Contains(x []float64) bool {
	var r2 float64
	for i, c := range b.Center {
		d := x[i] - c
		r2 += d * d
	}
	return r2 < b.Radius*b.Radius
}

// InDomain keeps rows inside d. NaN coordinates are outside every domain.
func InDomain(d Domain) Predicate {
	return d.Contains
}

// YoungerThan keeps rows whose age channel is below maxAge.
func YoungerThan(ageIdx int, maxAge float64) Predicate {
	return func(row []float64) bool {
		return row[ageIdx] < maxAge
	}
}

// Finite keeps rows whose leading dim channels are all finite.
func Finite(dim int) Predicate {
	return func(row []float64) bool {
		return dynamo.Finite(row[:dim])
	}
}

// All keeps a row only if every predicate keeps it.
func All(ps ...Predicate) Predicate {
	return func(row []float64) bool {
		for _, p := range ps {
			if !p(row) {
				return false
			}
		}
		return true
	}
}
