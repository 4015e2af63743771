package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/flowsim/internal/sim"
)

const namespace = "flowsim"

// Prometheus exports tick statistics as prometheus series. It implements
// sim.Observer. Several simulations can share a registry as long as their
// constant labels differ.
type Prometheus struct {
	emitted prometheus.Counter
	removed *prometheus.CounterVec
	live    prometheus.Gauge
	ticks   prometheus.Counter
	simTime prometheus.Gauge
}

func NewPrometheus(reg prometheus.Registerer, labels prometheus.Labels) (*Prometheus, error) {
	p := &Prometheus{
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "particles_emitted_total",
			Help:        "Particles emitted into the pool.",
			ConstLabels: labels,
		}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "particles_removed_total",
			Help:        "Particles removed from the pool, by cause.",
			ConstLabels: labels,
		}, []string{"cause"}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "particles_live",
			Help:        "Live particles after the last tick.",
			ConstLabels: labels,
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "ticks_total",
			Help:        "Completed simulation ticks.",
			ConstLabels: labels,
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "sim_time_seconds",
			Help:        "Simulated time after the last tick.",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{p.emitted, p.removed, p.live, p.ticks, p.simTime} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return p, nil
}

func (p *Prometheus) OnTick(s sim.Snapshot) {
	st := s.Stats
	p.emitted.Add(float64(st.Emitted))
	p.removed.WithLabelValues("evicted").Add(float64(st.Evicted))
	p.removed.WithLabelValues("diverged").Add(float64(st.Diverged))
	p.removed.WithLabelValues("exited").Add(float64(st.Exited))
	p.removed.WithLabelValues("expired").Add(float64(st.Expired))
	p.live.Set(float64(st.Live))
	p.ticks.Inc()
	p.simTime.Set(s.Time)
}
