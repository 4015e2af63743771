package integrators

import "github.com/san-kum/flowsim/internal/dynamo"

// ensure returns a dense rows x dim batch backed by buf's storage when it
// is large enough.
func ensure(buf dynamo.Batch, rows, dim int) dynamo.Batch {
	n := rows * dim
	data := buf.Data
	if cap(data) < n {
		data = make([]float64, n)
	}
	return dynamo.Batch{Data: data[:n], Rows: rows, Dim: dim, Stride: dim}
}

// gather copies x into a dense scratch batch.
func gather(buf, x dynamo.Batch) dynamo.Batch {
	b := ensure(buf, x.Rows, x.Dim)
	b.CopyFrom(x)
	return b
}

// Step is the allocating form of Advance: it returns the advanced state as
// a new dense batch and leaves x untouched.
func Step(in dynamo.Integrator, f dynamo.Field, x dynamo.Batch, t, dt float64) dynamo.Batch {
	out := dynamo.NewBatch(x.Rows, x.Dim)
	in.Advance(out, x, f, t, dt)
	return out
}
