package metrics

import (
	"math"

	"github.com/san-kum/flowsim/internal/sim"
)

// Containment is the fraction of observed particles whose kinematic
// channels all stay within threshold. A bounded flow scores 1.
type Containment struct {
	name      string
	threshold float64
	outside   int
	samples   int
}

func NewContainment(threshold float64) *Containment {
	return &Containment{
		name:      "containment",
		threshold: threshold,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(s sim.Snapshot) {
	for i := 0; i < s.Len(); i++ {
		c.samples++
		for _, val := range s.Position(i) {
			if math.Abs(val) > c.threshold {
				c.outside++
				break
			}
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.outside)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.outside = 0
	c.samples = 0
}

// Population is the mean live particle count per tick.
type Population struct {
	name    string
	sum     int
	samples int
}

func NewPopulation() *Population {
	return &Population{name: "population"}
}

func (p *Population) Name() string { return p.name }

func (p *Population) Observe(s sim.Snapshot) {
	p.sum += s.Len()
	p.samples++
}

func (p *Population) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return float64(p.sum) / float64(p.samples)
}

func (p *Population) Reset() {
	p.sum = 0
	p.samples = 0
}

// Divergence counts rows dropped for non-finite state.
type Divergence struct {
	total int
}

func NewDivergence() *Divergence { return &Divergence{} }

func (d *Divergence) Name() string           { return "diverged" }
func (d *Divergence) Observe(s sim.Snapshot) { d.total += s.Stats.Diverged }
func (d *Divergence) Value() float64         { return float64(d.total) }
func (d *Divergence) Reset()                 { d.total = 0 }
