package metrics

import (
	"math"

	"github.com/san-kum/flowsim/internal/sim"
)

// MeanEnergy averages the ensemble mean energy over every observed tick.
// Ticks without energies (non-Hamiltonian fields, empty pools) are skipped.
type MeanEnergy struct {
	name    string
	sum     float64
	samples int
}

func NewMeanEnergy() *MeanEnergy {
	return &MeanEnergy{name: "mean_energy"}
}

func (e *MeanEnergy) Name() string { return e.name }

func (e *MeanEnergy) Observe(s sim.Snapshot) {
	if len(s.Energies) == 0 {
		return
	}
	e.sum += mean(s.Energies)
	e.samples++
}

func (e *MeanEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *MeanEnergy) Reset() {
	e.sum = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative deviation of the ensemble mean
// energy from its first observed value. It is meaningful for seeded runs
// without continuous emission, where the ensemble membership is fixed.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s sim.Snapshot) {
	if len(s.Energies) == 0 {
		return
	}
	energy := mean(s.Energies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Current returns the last observed ensemble mean energy.
func (e *EnergyDrift) Current() float64 {
	return e.currentEnergy
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}
