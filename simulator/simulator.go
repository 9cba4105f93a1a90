// Package simulator orchestrates one simulation run: it validates and
// schedules a circuit description, selects a kernel, evolves the state
// timestep by timestep with optional noise, and extracts the probability
// distribution.
//
// Noise policy: the statevector kernel tracks a stochastic single-sample
// trajectory (a random Pauli drawn with probability p/3 each after every
// gate, per touched qubit); repeated trials average toward the exact
// channel. The density kernel applies the depolarizing channel exactly and
// is selected automatically for small noisy circuits, where the
// Bloch-sphere and Q-sphere views need an exact reduced state.
package simulator

import (
	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/gate"
	"github.com/quarclab/quarc/simulator/density"
)

// Kernel is the evolution surface shared by the statevector and density
// implementations.
type Kernel interface {
	NumQubits() int
	ApplySingle(m gate.Matrix, q int) error
	ApplyControlledX(controls, targets []int) error
	ApplyControlledZ(controls, targets []int) error
	ApplySwap(q1, q2 int) error
	Renormalize() float64
	Probabilities() map[string]float64
	Finalize()
}

// KernelID selects a simulation kernel.
type KernelID uint8

const (
	// Auto picks the kernel from qubit count and noise configuration.
	Auto KernelID = iota
	// Statevector is the dense pure-state kernel, O(2^n) memory.
	Statevector
	// Density is the exact mixed-state kernel, O(4^n) memory.
	Density
)

func (id KernelID) String() string {
	switch id {
	case Auto:
		return "auto"
	case Statevector:
		return "statevector"
	case Density:
		return "density"
	default:
		return "unknown"
	}
}

// Analysis summarizes the structure of a scheduled circuit.
type Analysis struct {
	NumGates       int
	NumMeasurement int
	CliffordOnly   bool
	HasParametric  bool
}

// Analyze inspects a scheduled operation sequence.
func Analyze(ops []circuit.Op) Analysis {
	a := Analysis{CliffordOnly: true}
	for _, op := range ops {
		if op.Measure {
			a.NumMeasurement++
			continue
		}
		a.NumGates++
		if !op.Gate.IsClifford() {
			a.CliffordOnly = false
		}
		if op.Gate.IsParametric() {
			a.HasParametric = true
		}
	}
	return a
}

// selectKernel resolves Auto: the density kernel is used when noise is
// requested, the register fits its ceiling, a single exact run is wanted,
// and no damping trajectory (which only the statevector kernel supports)
// is configured.
func selectKernel(cfg *config, numQubits int, depolarizing float64) KernelID {
	if cfg.kernel != Auto {
		return cfg.kernel
	}
	exactNoise := depolarizing > 0 &&
		numQubits <= density.MaxQubits &&
		cfg.trials <= 1 &&
		cfg.model.T1 <= 0 && cfg.model.T2 <= 0
	if exactNoise {
		return Density
	}
	return Statevector
}
