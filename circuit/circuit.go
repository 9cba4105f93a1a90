// Package circuit defines the declarative circuit description the editor
// submits, its validation rules, and the scheduler that linearizes it into a
// deterministic operation sequence for the simulation kernels.
package circuit

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/quarclab/quarc/gate"
)

var (
	// ErrInvalidQubitIndex is returned when a gate or measurement references
	// a qubit (or classical bit) outside the declared register.
	ErrInvalidQubitIndex = errors.New("invalid qubit index")

	// ErrSlotCollision is returned when two operations claim the same
	// (qubit, timestep) slot.
	ErrSlotCollision = errors.New("slot collision")

	// ErrCircuitTooLarge is returned before any allocation when the qubit
	// count exceeds the dense-simulation ceiling.
	ErrCircuitTooLarge = errors.New("circuit too large")
)

// DefaultMaxQubits bounds dense statevector simulation; a 20-qubit vector of
// complex128 amplitudes is 16 MiB.
const DefaultMaxQubits = 20

// MaxNoiseLevel caps the depolarizing probability the editor slider exposes.
const MaxNoiseLevel = 0.1

// StructuralMaxQubits bounds validation for operations that never allocate
// simulation state (export, optimization, resource estimation).
const StructuralMaxQubits = 4096

// SingleGate is one single-qubit gate placement.
type SingleGate struct {
	Kind     gate.Kind `json:"gateType"`
	Qubit    int       `json:"qubit"`
	Timestep int       `json:"timestep"`
	Theta    *float64  `json:"theta,omitempty"`
}

// MultiGate is a multi-qubit gate placement with explicit control and target
// sets. Controls and targets must be disjoint.
type MultiGate struct {
	Kind     gate.Kind `json:"gateType"`
	Timestep int       `json:"timestep"`
	Controls []int     `json:"controls"`
	Targets  []int     `json:"targets"`
}

// Measurement associates a qubit with a classical bit at a timestep. For
// probability reporting, measurements are deferred to the end of the run;
// the classical bit is bookkeeping for code emission.
type Measurement struct {
	Qubit        int `json:"qubit"`
	ClassicalBit int `json:"classicalBit"`
	Timestep     int `json:"timestep"`
}

// Circuit is the immutable description of one simulation request. The Gates
// map is keyed by the editor's "qubit-timestep" placement key; only the
// record fields are authoritative.
type Circuit struct {
	NumQubits    int                   `json:"numQubits"`
	NumClassical int                   `json:"numClassicalBits"`
	NumTimesteps int                   `json:"numTimesteps,omitempty"`
	Gates        map[string]SingleGate `json:"gates"`
	MultiGates   []MultiGate           `json:"multiQubitGates"`
	Measurements []Measurement         `json:"measurements"`
	NoiseLevel   float64               `json:"noiseLevel"`
}

// NormalizeNoise converts editor noise input to a depolarizing probability.
// Values above 1 are treated as percentages; the result is clamped to
// [0, MaxNoiseLevel].
func NormalizeNoise(raw float64) float64 {
	if raw > 1 {
		raw /= 100
	}
	if raw < 0 {
		return 0
	}
	if raw > MaxNoiseLevel {
		return MaxNoiseLevel
	}
	return raw
}

// Depth is the circuit depth restricted to occupied slots: the maximum
// occupied timestep index plus one, or 0 for an empty circuit.
func (c *Circuit) Depth() int {
	max := -1
	for _, g := range c.Gates {
		if g.Timestep > max {
			max = g.Timestep
		}
	}
	for _, g := range c.MultiGates {
		if g.Timestep > max {
			max = g.Timestep
		}
	}
	for _, m := range c.Measurements {
		if m.Timestep > max {
			max = m.Timestep
		}
	}
	return max + 1
}

// GateCount returns the number of gate placements (measurements excluded).
func (c *Circuit) GateCount() int {
	return len(c.Gates) + len(c.MultiGates)
}

// multiArity returns the control and target counts a multi-qubit kind
// requires on the wire.
func multiArity(k gate.Kind) (controls, targets int) {
	switch k {
	case gate.CCNOT:
		return 2, 1
	case gate.SWAP:
		return 0, 2
	default: // CNOT, CZ
		return 1, 1
	}
}

// Validate checks every structural invariant before any simulation work:
// register bounds, the dense-simulation ceiling, slot uniqueness, control /
// target counts and disjointness, and angle presence for parametric kinds.
// maxQubits <= 0 selects DefaultMaxQubits.
func (c *Circuit) Validate(maxQubits int) error {
	if maxQubits <= 0 {
		maxQubits = DefaultMaxQubits
	}
	if c.NumQubits < 1 {
		return fmt.Errorf("%w: numQubits must be >= 1, got %d", ErrInvalidQubitIndex, c.NumQubits)
	}
	if c.NumQubits > maxQubits {
		return fmt.Errorf("%w: %d qubits exceeds the %d-qubit dense simulation ceiling",
			ErrCircuitTooLarge, c.NumQubits, maxQubits)
	}

	// per-timestep occupancy; sparse timesteps, so a map of bitsets
	occupied := make(map[int]*bitset.BitSet)
	claim := func(q, t int, what string) error {
		if q < 0 || q >= c.NumQubits {
			return fmt.Errorf("%w: %s references qubit %d on a %d-qubit register",
				ErrInvalidQubitIndex, what, q, c.NumQubits)
		}
		slots, ok := occupied[t]
		if !ok {
			slots = bitset.New(uint(c.NumQubits))
			occupied[t] = slots
		}
		if slots.Test(uint(q)) {
			return fmt.Errorf("%w: qubit %d, timestep %d claimed twice (%s)",
				ErrSlotCollision, q, t, what)
		}
		slots.Set(uint(q))
		return nil
	}

	for key, g := range c.Gates {
		if g.Kind.IsMulti() {
			return fmt.Errorf("%w: %s placed as a single-qubit gate (key %q)",
				gate.ErrUnsupportedGate, g.Kind, key)
		}
		if g.Kind.IsParametric() && g.Theta == nil {
			return fmt.Errorf("%w: %s at qubit %d, timestep %d",
				gate.ErrMissingParameter, g.Kind, g.Qubit, g.Timestep)
		}
		if err := claim(g.Qubit, g.Timestep, g.Kind.String()); err != nil {
			return err
		}
	}

	for i, g := range c.MultiGates {
		if !g.Kind.IsMulti() {
			return fmt.Errorf("%w: %s in multiQubitGates[%d]", gate.ErrUnsupportedGate, g.Kind, i)
		}
		// the code emitters address controls and targets positionally, so
		// the wire format pins each kind to its exact shape
		wantControls, wantTargets := multiArity(g.Kind)
		if len(g.Controls) != wantControls || len(g.Targets) != wantTargets {
			return fmt.Errorf("%w: %s in multiQubitGates[%d] needs %d control(s) and %d target(s), got %d and %d",
				ErrInvalidQubitIndex, g.Kind, i, wantControls, wantTargets, len(g.Controls), len(g.Targets))
		}
		seen := bitset.New(uint(c.NumQubits))
		for _, q := range append(append([]int{}, g.Controls...), g.Targets...) {
			if q < 0 || q >= c.NumQubits {
				return fmt.Errorf("%w: %s references qubit %d on a %d-qubit register",
					ErrInvalidQubitIndex, g.Kind, q, c.NumQubits)
			}
			if seen.Test(uint(q)) {
				return fmt.Errorf("%w: %s in multiQubitGates[%d] lists qubit %d twice",
					ErrSlotCollision, g.Kind, i, q)
			}
			seen.Set(uint(q))
		}
		for _, q := range append(append([]int{}, g.Controls...), g.Targets...) {
			if err := claim(q, g.Timestep, g.Kind.String()); err != nil {
				return err
			}
		}
	}

	// code emission falls back to a classical register of NumQubits bits
	// when none is declared; classical bits are bounded either way
	classical := c.NumClassical
	if classical < 1 {
		classical = c.NumQubits
	}
	for i, m := range c.Measurements {
		if m.Qubit < 0 || m.Qubit >= c.NumQubits {
			return fmt.Errorf("%w: measurements[%d] references qubit %d on a %d-qubit register",
				ErrInvalidQubitIndex, i, m.Qubit, c.NumQubits)
		}
		if m.ClassicalBit < 0 || m.ClassicalBit >= classical {
			return fmt.Errorf("%w: measurements[%d] references classical bit %d on a %d-bit register",
				ErrInvalidQubitIndex, i, m.ClassicalBit, classical)
		}
		// measurements share the slot grid with gates
		if err := claim(m.Qubit, m.Timestep, "measurement"); err != nil {
			return err
		}
	}

	return nil
}
