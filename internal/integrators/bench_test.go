package integrators

import (
	"math/rand"
	"testing"

	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/fields"
)

func benchBatch(rows, dim int) dynamo.Batch {
	rng := rand.New(rand.NewSource(1))
	x := dynamo.NewBatch(rows, dim)
	for i := range x.Data {
		x.Data[i] = rng.Float64()*2 - 1
	}
	return x
}

func benchAdvance(b *testing.B, in dynamo.Integrator, f dynamo.Field, rows int) {
	x := benchBatch(rows, f.Dim())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		in.Advance(x, x, f, 0, 0.001)
	}
}

func BenchmarkEuler(b *testing.B) {
	benchAdvance(b, NewEuler(), fields.NewHarmonic(), 1)
}

func BenchmarkRK4(b *testing.B) {
	benchAdvance(b, NewRK4(), fields.NewHarmonic(), 1)
}

func BenchmarkSymplecticEuler(b *testing.B) {
	benchAdvance(b, NewSymplecticEuler(), fields.NewHarmonic(), 1)
}

func BenchmarkLeapfrog(b *testing.B) {
	benchAdvance(b, NewLeapfrog(), fields.NewHarmonic(), 1)
}

func BenchmarkRK4_Lorenz6000(b *testing.B) {
	benchAdvance(b, NewRK4(), fields.NewLorenz(), 6000)
}

func BenchmarkSymplecticEuler_Pendulum12000(b *testing.B) {
	benchAdvance(b, NewSymplecticEuler(), fields.NewPendulum(), 12000)
}
