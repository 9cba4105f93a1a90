// Package noise implements the error channels applied after gate
// operations. The statevector kernel receives sampled single-trajectory
// events (Monte-Carlo); the density kernel applies the depolarizing channel
// exactly and does not use this package's sampling.
package noise

import (
	"math"
	"math/rand"

	"github.com/quarclab/quarc/backend"
	"github.com/quarclab/quarc/gate"
)

// Kernel is the operation surface a trajectory needs.
type Kernel interface {
	ApplySingle(m gate.Matrix, q int) error
}

// damper is implemented by kernels supporting decoherence trajectories.
type damper interface {
	ApplyAmplitudeDamping(q int, gamma float64, rng *rand.Rand) error
	ApplyPhaseDamping(q int, lambda float64, rng *rand.Rand) error
}

// Model captures the per-gate error parameters of one channel
// configuration. T1/T2 are microseconds, GateTime nanoseconds.
type Model struct {
	Depolarizing float64
	T1           float64
	T2           float64
	GateTime     float64
}

// FromProfile derives a noise model from a hardware profile.
func FromProfile(p backend.Profile) Model {
	return Model{
		Depolarizing: p.Depolarizing,
		T1:           p.T1,
		T2:           p.T2,
		GateTime:     p.SingleQubitTime,
	}
}

// Enabled reports whether the model perturbs the state at all.
func (m Model) Enabled() bool {
	return m.Depolarizing > 0 || m.T1 > 0 || m.T2 > 0
}

// Trajectory draws noise events for one Monte-Carlo run. Each run owns its
// rng; repeated trials with distinct seeds average toward the exact
// channel.
type Trajectory struct {
	Model Model
	Rng   *rand.Rand
}

// AfterGate applies the configured channels to every qubit the preceding
// gate touched: a depolarizing draw (probability p/3 each of X, Y, Z),
// then T1/T2 damping scaled by the gate duration.
func (t *Trajectory) AfterGate(k Kernel, qubits ...int) error {
	for _, q := range qubits {
		if err := t.depolarize(k, q); err != nil {
			return err
		}
		if err := t.damp(k, q); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trajectory) depolarize(k Kernel, q int) error {
	p := t.Model.Depolarizing
	if p <= 0 {
		return nil
	}
	r := t.Rng.Float64()
	paulis := gate.Paulis()
	switch {
	case r < p/3:
		return k.ApplySingle(paulis[0], q)
	case r < 2*p/3:
		return k.ApplySingle(paulis[1], q)
	case r < p:
		return k.ApplySingle(paulis[2], q)
	default:
		return nil
	}
}

func (t *Trajectory) damp(k Kernel, q int) error {
	d, ok := k.(damper)
	if !ok || (t.Model.T1 <= 0 && t.Model.T2 <= 0) {
		return nil
	}
	// gate time in the T1/T2 unit (µs)
	dt := t.Model.GateTime / 1000

	if t.Model.T1 > 0 {
		gamma := 1 - math.Exp(-dt/t.Model.T1)
		if gamma > 1e-10 {
			if err := d.ApplyAmplitudeDamping(q, gamma, t.Rng); err != nil {
				return err
			}
		}
	}
	if t.Model.T2 > 0 {
		// T2 includes T1 decay; damp only the pure-dephasing remainder
		rate := 1 / t.Model.T2
		if t.Model.T1 > 0 {
			rate = math.Max(0, 1/t.Model.T2-1/(2*t.Model.T1))
		}
		lambda := 1 - math.Exp(-rate*dt)
		if lambda > 1e-10 {
			if err := d.ApplyPhaseDamping(q, lambda, t.Rng); err != nil {
				return err
			}
		}
	}
	return nil
}
