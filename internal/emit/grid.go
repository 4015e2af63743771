package emit

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flowsim/internal/dynamo"
)

// Grid places particles on a regular lattice spanning [Min, Max] inclusive
// with Counts[i] nodes along axis i. Axis 0 varies fastest. Successive
// samples continue where the previous one stopped and wrap after Size()
// nodes, so a single Sample of Size() rows covers the lattice exactly once.
type Grid struct {
	axes [][]float64
	next int
}

func NewGrid(min, max []float64, counts []int) (*Grid, error) {
	if err := checkBounds(min, max); err != nil {
		return nil, err
	}
	if len(counts) != len(min) {
		return nil, fmt.Errorf("grid: %d counts for %d axes: %w", len(counts), len(min), dynamo.ErrDimensionMismatch)
	}
	axes := make([][]float64, len(counts))
	for i, n := range counts {
		if n < 1 {
			return nil, fmt.Errorf("grid: count[%d] = %d: %w", i, n, dynamo.ErrParameterBounds)
		}
		axes[i] = make([]float64, n)
		if n == 1 {
			axes[i][0] = (min[i] + max[i]) / 2
			continue
		}
		floats.Span(axes[i], min[i], max[i])
	}
	return &Grid{axes: axes}, nil
}

func (g *Grid) Dim() int { return len(g.axes) }

// Size is the number of lattice nodes.
func (g *Grid) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a)
	}
	return n
}

func (g *Grid) Sample(dst dynamo.Batch, _ *rand.Rand) {
	size := g.Size()
	for i := 0; i < dst.Rows; i++ {
		row := dst.Row(i)
		idx := g.next
		for j, axis := range g.axes {
			row[j] = axis[idx%len(axis)]
			idx /= len(axis)
		}
		g.next = (g.next + 1) % size
	}
}

// Seeds cycles through a literal list of initial states.
type Seeds struct {
	points [][]float64
	next   int
}

func NewSeeds(points [][]float64) (*Seeds, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("seeds: empty list: %w", dynamo.ErrInvalidConfig)
	}
	dim := len(points[0])
	cp := make([][]float64, len(points))
	for i, p := range points {
		if len(p) != dim || dim == 0 {
			return nil, fmt.Errorf("seeds: point %d has %d channels, want %d: %w", i, len(p), dim, dynamo.ErrDimensionMismatch)
		}
		cp[i] = clone(p)
	}
	return &Seeds{points: cp}, nil
}

func (s *Seeds) Dim() int { return len(s.points[0]) }

func (s *Seeds) Sample(dst dynamo.Batch, _ *rand.Rand) {
	for i := 0; i < dst.Rows; i++ {
		copy(dst.Row(i), s.points[s.next])
		s.next = (s.next + 1) % len(s.points)
	}
}
