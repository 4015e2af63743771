package sim_test

import (
	"bytes"
	"context"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/emit"
	"github.com/san-kum/flowsim/internal/fields"
	"github.com/san-kum/flowsim/internal/integrators"
	"github.com/san-kum/flowsim/internal/particle"
	"github.com/san-kum/flowsim/internal/sim"
)

var quiet = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

type collector struct {
	maxLive int
	maxAge  float64
}

func (c *collector) Render(s sim.Snapshot) {
	if s.Len() > c.maxLive {
		c.maxLive = s.Len()
	}
	for _, a := range s.Ages {
		c.maxAge = math.Max(c.maxAge, a)
	}
}

var _ = Describe("Lorenz tracers", func() {
	var (
		s   *sim.Simulation
		col *collector
	)

	BeforeEach(func() {
		policy, err := emit.NewUniform([]float64{-30, -30, 0}, []float64{30, 30, 50})
		Expect(err).NotTo(HaveOccurred())

		s, err = sim.New(fields.NewLorenz(), integrators.NewRK4(), sim.Config{
			Dt:          0.01,
			Capacity:    6000,
			EmitPerTick: 40,
			MaxAge:      4.5,
			Emission:    policy,
			Seed:        1,
			Logger:      quiet,
		})
		Expect(err).NotTo(HaveOccurred())

		col = &collector{}
		s.AddRenderer(col)
	})

	It("stays within capacity and expires old particles over 1000 ticks", func() {
		result, err := s.Run(context.Background(), 1000)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Ticks).To(Equal(1000))
		Expect(col.maxLive).To(BeNumerically("<=", 6000))
		Expect(col.maxAge).To(BeNumerically("<", 4.5))
		Expect(result.Final.Ages).To(HaveLen(result.Final.Len()))
		for _, a := range result.Final.Ages {
			Expect(a).To(BeNumerically(">", 0))
			Expect(a).To(BeNumerically("<", 4.5))
		}
		Expect(result.Diverged).To(BeZero())
		Expect(result.Emitted).To(Equal(40000))
	})

	It("is reproducible for a fixed seed", func() {
		first, err := s.Run(context.Background(), 50)
		Expect(err).NotTo(HaveOccurred())

		policy, _ := emit.NewUniform([]float64{-30, -30, 0}, []float64{30, 30, 50})
		again, err := sim.New(fields.NewLorenz(), integrators.NewRK4(), sim.Config{
			Dt: 0.01, Capacity: 6000, EmitPerTick: 40, MaxAge: 4.5, Emission: policy, Seed: 1, Logger: quiet,
		})
		Expect(err).NotTo(HaveOccurred())
		second, err := again.Run(context.Background(), 50)
		Expect(err).NotTo(HaveOccurred())

		Expect(second.Final.Positions).To(Equal(first.Final.Positions))
	})
})

var _ = Describe("Pendulum", func() {
	It("stays finite and bounded under the semi-implicit step", func() {
		pend := fields.NewPendulum()
		s, err := sim.New(pend, integrators.NewSymplecticEuler(), sim.Config{
			Dt:       0.04,
			Capacity: 1,
			Logger:   quiet,
		})
		Expect(err).NotTo(HaveOccurred())

		start, err := emit.NewSeeds([][]float64{{0, 2.5}})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Seed(start, 1)).To(Succeed())

		h0 := pend.Energy([]float64{0, 2.5})
		for i := 0; i < 5000; i++ {
			snap, err := s.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Len()).To(Equal(1))

			x := snap.Position(0)
			Expect(dynamo.Finite(x)).To(BeTrue())
			Expect(math.Abs(x[1])).To(BeNumerically("<=", 2.6))
			Expect(math.Abs(x[0])).To(BeNumerically("<=", 2.6*5000*0.04))
			Expect(snap.Energies[0]).To(BeNumerically("~", h0, 0.05*h0))
		}
	})
})

var _ = Describe("Comparison", func() {
	newMember := func(integ dynamo.Integrator, policy emit.Policy) *sim.Simulation {
		box, err := particle.Symmetric(2, 4.5)
		Expect(err).NotTo(HaveOccurred())
		s, err := sim.New(fields.NewHarmonic(), integ, sim.Config{
			Dt:          0.05,
			Capacity:    12000,
			EmitPerTick: 120,
			Emission:    policy,
			Domain:      box,
			Logger:      quiet,
		})
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	It("feeds identical emission to every member", func() {
		policy, _ := emit.NewUniform([]float64{-2, -2}, []float64{2, 2})
		a := newMember(integrators.NewRK4(), policy)
		b := newMember(integrators.NewRK4(), policy)

		cmp, err := sim.NewComparison(a, b)
		Expect(err).NotTo(HaveOccurred())

		results, err := cmp.Run(context.Background(), 20)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[1].Final.Positions).To(Equal(results[0].Final.Positions))
		Expect(results[0].Emitted).To(Equal(2400))
	})

	It("separates integrators on the same input", func() {
		policy, _ := emit.NewUniform([]float64{-2, -2}, []float64{2, 2})
		rk4 := newMember(integrators.NewRK4(), policy)
		symp := newMember(integrators.NewSymplecticEuler(), policy)

		cmp, err := sim.NewComparison(rk4, symp)
		Expect(err).NotTo(HaveOccurred())

		snaps, err := cmp.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(snaps[0].Len()).To(Equal(snaps[1].Len()))
		Expect(snaps[0].Positions).NotTo(Equal(snaps[1].Positions))
	})

	It("rejects members with different layouts", func() {
		policy, _ := emit.NewUniform([]float64{-2, -2}, []float64{2, 2})
		a := newMember(integrators.NewRK4(), policy)
		lorenz, err := sim.New(fields.NewLorenz(), integrators.NewRK4(), sim.Config{Dt: 0.05, Logger: quiet})
		Expect(err).NotTo(HaveOccurred())

		_, err = sim.NewComparison(a, lorenz)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("stops every member", func() {
		policy, _ := emit.NewUniform([]float64{-2, -2}, []float64{2, 2})
		cmp, err := sim.NewComparison(newMember(integrators.NewEuler(), policy), newMember(integrators.NewRK4(), policy))
		Expect(err).NotTo(HaveOccurred())

		cmp.Stop()
		_, err = cmp.Tick()
		Expect(err).To(MatchError(dynamo.ErrTerminated))
		for _, m := range cmp.Members() {
			Expect(m.Phase()).To(Equal(sim.Terminated))
		}
	})
})
