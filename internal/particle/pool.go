// Package particle implements the particle ensemble: a single contiguous
// arena of fixed-width rows with an explicit logical length.
package particle

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/emit"
)

// Layout describes the channels of one row: Dim kinematic channels followed
// by an optional age channel.
type Layout struct {
	Dim int
	Age bool
}

func (l Layout) Channels() int {
	if l.Age {
		return l.Dim + 1
	}
	return l.Dim
}

// AgeIndex returns the column of the age channel, or -1.
func (l Layout) AgeIndex() int {
	if !l.Age {
		return -1
	}
	return l.Dim
}

// Pool owns the ensemble buffer. It is not safe for concurrent use.
type Pool struct {
	layout Layout
	stride int
	data   []float64
	n      int
}

// NewPool creates an empty pool. hint preallocates room for that many rows.
func NewPool(layout Layout, hint int) (*Pool, error) {
	if layout.Dim < 1 {
		return nil, fmt.Errorf("pool: %d kinematic channels: %w", layout.Dim, dynamo.ErrInvalidConfig)
	}
	if hint < 0 {
		hint = 0
	}
	stride := layout.Channels()
	return &Pool{
		layout: layout,
		stride: stride,
		data:   make([]float64, 0, hint*stride),
	}, nil
}

func (p *Pool) Len() int       { return p.n }
func (p *Pool) Layout() Layout { return p.layout }
func (p *Pool) Channels() int  { return p.stride }

// Row returns live row i. It aliases the arena.
func (p *Pool) Row(i int) []float64 {
	off := i * p.stride
	return p.data[off : off+p.stride : off+p.stride]
}

// Rows returns a full-width view of the live rows. The view is invalidated
// by the next Append, Cull or Cap.
func (p *Pool) Rows() dynamo.Batch {
	return dynamo.Batch{Data: p.data, Rows: p.n, Dim: p.stride, Stride: p.stride}
}

// Kinematic returns a strided view over the leading Dim channels of every
// live row. Integrators advance it in place.
func (p *Pool) Kinematic() dynamo.Batch {
	return dynamo.Batch{Data: p.data, Rows: p.n, Dim: p.layout.Dim, Stride: p.stride}
}

// Emit produces n fresh rows in the pool's layout without appending them.
// Kinematic channels come from the policy; every other channel is zero.
func (p *Pool) Emit(policy emit.Policy, rng *rand.Rand, n int) (dynamo.Batch, error) {
	if policy.Dim() != p.layout.Dim {
		return dynamo.Batch{}, fmt.Errorf("emit: policy has %d channels, pool %d: %w",
			policy.Dim(), p.layout.Dim, dynamo.ErrDimensionMismatch)
	}
	if n < 0 {
		return dynamo.Batch{}, fmt.Errorf("emit: negative count %d: %w", n, dynamo.ErrInvalidConfig)
	}
	rows := dynamo.NewBatch(n, p.stride)
	if n == 0 {
		return rows, nil
	}
	policy.Sample(dynamo.Batch{Data: rows.Data, Rows: n, Dim: p.layout.Dim, Stride: p.stride}, rng)
	return rows, nil
}

// Append copies rows onto the end of the ensemble. It is the only operation
// that grows the pool.
func (p *Pool) Append(rows dynamo.Batch) error {
	if rows.Rows == 0 {
		return nil
	}
	if rows.Dim != p.stride {
		return fmt.Errorf("append: rows have %d channels, pool %d: %w", rows.Dim, p.stride, dynamo.ErrDimensionMismatch)
	}
	start := p.n * p.stride
	need := start + rows.Rows*p.stride
	if need > cap(p.data) {
		grown := make([]float64, need, max(need, 2*cap(p.data)))
		copy(grown, p.data[:start])
		p.data = grown
	}
	p.data = p.data[:need]
	tail := dynamo.Batch{Data: p.data[start:need], Rows: rows.Rows, Dim: p.stride, Stride: p.stride}
	tail.CopyFrom(rows)
	p.n += rows.Rows
	return nil
}

// Cull drops every row for which keep returns false, preserving the relative
// order of survivors, and returns the number removed.
func (p *Pool) Cull(keep Predicate) int {
	w := 0
	for r := 0; r < p.n; r++ {
		if !keep(p.Row(r)) {
			continue
		}
		if w != r {
			copy(p.Row(w), p.Row(r))
		}
		w++
	}
	removed := p.n - w
	p.truncate(w)
	return removed
}

// Cap keeps the most recently appended capacity rows, in order, and returns
// the number evicted. A negative capacity is treated as zero.
func (p *Pool) Cap(capacity int) int {
	if capacity < 0 {
		capacity = 0
	}
	if p.n <= capacity {
		return 0
	}
	drop := p.n - capacity
	copy(p.data, p.data[drop*p.stride:p.n*p.stride])
	p.truncate(capacity)
	return drop
}

// AgeTick adds dt to the age channel of every live row.
func (p *Pool) AgeTick(dt float64) {
	idx := p.layout.AgeIndex()
	if idx < 0 {
		return
	}
	for off := idx; off < p.n*p.stride; off += p.stride {
		p.data[off] += dt
	}
}

// Reset empties the pool and keeps the arena.
func (p *Pool) Reset() {
	p.truncate(0)
}

func (p *Pool) truncate(n int) {
	p.n = n
	p.data = p.data[:n*p.stride]
}
