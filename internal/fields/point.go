package fields

import "github.com/san-kum/flowsim/internal/dynamo"

// minChunk is the smallest row range handed to a worker goroutine.
const minChunk = 512

// PointFunc writes the derivative of a single state vector x into dst.
type PointFunc func(dst, x []float64, t float64)

type pointField struct {
	dim int
	fn  PointFunc
}

// Point lifts a per-particle derivative into a batched field.
func Point(dim int, fn PointFunc) dynamo.Field {
	return &pointField{dim: dim, fn: fn}
}

func (p *pointField) Dim() int { return p.dim }

func (p *pointField) Derive(dst, x dynamo.Batch, t float64) {
	eachRow(dst, x, t, p.fn)
}

func eachRow(dst, x dynamo.Batch, t float64, fn PointFunc) {
	dynamo.ParallelFor(x.Rows, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			fn(dst.Row(i), x.Row(i), t)
		}
	})
}

func unknownParam(name string) error {
	return &ParamError{Name: name}
}

// ParamError reports a parameter name the field does not define.
type ParamError struct {
	Name string
}

func (e *ParamError) Error() string {
	return "unknown param: " + e.Name
}

func (e *ParamError) Unwrap() error {
	return dynamo.ErrUnknownComponent
}
