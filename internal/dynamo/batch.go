package dynamo

import "math"

// Batch is a block of state vectors. Row i occupies
// Data[i*Stride : i*Stride+Dim]; a Stride wider than Dim views the leading
// channels of wider rows without copying.
type Batch struct {
	Data   []float64
	Rows   int
	Dim    int
	Stride int
}

// NewBatch allocates a dense zeroed batch.
func NewBatch(rows, dim int) Batch {
	return Batch{
		Data:   make([]float64, rows*dim),
		Rows:   rows,
		Dim:    dim,
		Stride: dim,
	}
}

// FromRows builds a dense batch from literal rows. All rows must have the
// same length.
func FromRows(rows [][]float64) Batch {
	if len(rows) == 0 {
		return Batch{}
	}
	b := NewBatch(len(rows), len(rows[0]))
	for i, r := range rows {
		copy(b.Row(i), r)
	}
	return b
}

func (b Batch) Row(i int) []float64 {
	off := i * b.Stride
	return b.Data[off : off+b.Dim : off+b.Dim]
}

func (b Batch) Dense() bool { return b.Stride == b.Dim }

// Clone returns a dense copy.
func (b Batch) Clone() Batch {
	c := NewBatch(b.Rows, b.Dim)
	c.CopyFrom(b)
	return c
}

// CopyFrom copies src row by row into b. Both batches must have the same
// shape; strides may differ.
func (b Batch) CopyFrom(src Batch) {
	if b.Dense() && src.Dense() {
		copy(b.Data[:b.Rows*b.Dim], src.Data[:src.Rows*src.Dim])
		return
	}
	for i := 0; i < b.Rows; i++ {
		copy(b.Row(i), src.Row(i))
	}
}

// Slice returns rows [lo, hi) sharing storage with b.
func (b Batch) Slice(lo, hi int) Batch {
	if lo == hi {
		return Batch{Dim: b.Dim, Stride: b.Stride}
	}
	return Batch{
		Data:   b.Data[lo*b.Stride : (hi-1)*b.Stride+b.Dim],
		Rows:   hi - lo,
		Dim:    b.Dim,
		Stride: b.Stride,
	}
}

// RowFinite reports whether every channel of row i is neither NaN nor Inf.
func (b Batch) RowFinite(i int) bool {
	return Finite(b.Row(i))
}

func Finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (b Batch) ToRows() [][]float64 {
	rows := make([][]float64, b.Rows)
	for i := range rows {
		rows[i] = append([]float64(nil), b.Row(i)...)
	}
	return rows
}
