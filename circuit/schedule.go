package circuit

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/quarclab/quarc/gate"
)

// Op is one scheduled operation. Gate ops carry the resolved 2x2 matrix for
// single-qubit kinds; multi-qubit kinds are applied by the kernels as
// bit-indexed permutations. Measurement ops carry only bookkeeping.
type Op struct {
	Timestep int
	Gate     gate.Kind
	Controls []int
	Targets  []int
	Theta    float64
	HasTheta bool

	// Mat is the resolved single-qubit matrix; valid when HasMat is set.
	Mat    gate.Matrix
	HasMat bool

	Measure      bool
	ClassicalBit int
}

// Qubits returns every qubit the operation touches, controls first.
func (op Op) Qubits() []int {
	out := make([]int, 0, len(op.Controls)+len(op.Targets))
	out = append(out, op.Controls...)
	out = append(out, op.Targets...)
	return out
}

// MinQubit is the scheduling tie-break key among gates of one timestep.
func (op Op) MinQubit() int {
	min := -1
	for _, q := range op.Qubits() {
		if min < 0 || q < min {
			min = q
		}
	}
	return min
}

// Schedule linearizes the three collections into one strictly ordered
// sequence: ascending timestep; within a timestep gates precede
// measurements; among gates, ascending minimum qubit index. The relative
// order of same-timestep gates has no numerical effect (they touch disjoint
// qubits), the tie-break exists for reproducibility only. Conflicting slots
// are rejected, never double-applied.
func Schedule(c *Circuit) ([]Op, error) {
	ops := make([]Op, 0, len(c.Gates)+len(c.MultiGates)+len(c.Measurements))

	for _, g := range c.Gates {
		op := Op{
			Timestep: g.Timestep,
			Gate:     g.Kind,
			Targets:  []int{g.Qubit},
		}
		var err error
		if g.Kind.IsParametric() {
			if g.Theta == nil {
				return nil, fmt.Errorf("%w: %s at qubit %d, timestep %d",
					gate.ErrMissingParameter, g.Kind, g.Qubit, g.Timestep)
			}
			op.Theta = *g.Theta
			op.HasTheta = true
			op.Mat, err = g.Kind.Rotation(*g.Theta)
		} else {
			op.Mat, err = g.Kind.Matrix()
		}
		if err != nil {
			return nil, err
		}
		op.HasMat = true
		ops = append(ops, op)
	}

	for _, g := range c.MultiGates {
		ops = append(ops, Op{
			Timestep: g.Timestep,
			Gate:     g.Kind,
			Controls: append([]int{}, g.Controls...),
			Targets:  append([]int{}, g.Targets...),
		})
	}

	for _, m := range c.Measurements {
		ops = append(ops, Op{
			Timestep:     m.Timestep,
			Targets:      []int{m.Qubit},
			Measure:      true,
			ClassicalBit: m.ClassicalBit,
		})
	}

	sort.SliceStable(ops, func(i, j int) bool {
		a, b := ops[i], ops[j]
		if a.Timestep != b.Timestep {
			return a.Timestep < b.Timestep
		}
		if a.Measure != b.Measure {
			return !a.Measure // gates before measurements
		}
		return a.MinQubit() < b.MinQubit()
	})

	// defensive re-check of the slot invariant on the linearized sequence
	occupied := make(map[int]*bitset.BitSet)
	for _, op := range ops {
		slots, ok := occupied[op.Timestep]
		if !ok {
			slots = bitset.New(16)
			occupied[op.Timestep] = slots
		}
		for _, q := range op.Qubits() {
			if slots.Test(uint(q)) {
				return nil, fmt.Errorf("%w: qubit %d, timestep %d", ErrSlotCollision, q, op.Timestep)
			}
			slots.Set(uint(q))
		}
	}

	return ops, nil
}
