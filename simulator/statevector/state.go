// Package statevector implements the dense pure-state simulation kernel: a
// vector of 2^n complex amplitudes evolved in place by bit-indexed
// amplitude pairing, O(2^n) per gate, never materializing a full operator.
package statevector

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/gate"
	"github.com/quarclab/quarc/internal/utils"
)

// ErrFinalized is returned when an operation is applied to a finalized
// state; a fresh instance is required per simulation run.
var ErrFinalized = errors.New("state already finalized")

// parallelThreshold is the amplitude count above which gate application
// fans out across cores.
const parallelThreshold = 1 << 14

// hardCap guards the shift arithmetic; callers enforce the practical
// memory ceiling through circuit.Validate.
const hardCap = 30

// State is a dense statevector. Lifecycle: initialized (|0...0⟩) →
// evolving → finalized; no transition back.
type State struct {
	amps      []complex128
	n         int
	finalized bool
}

// New returns a fresh n-qubit state initialized to |0...0⟩.
func New(numQubits int) (*State, error) {
	if numQubits < 1 || numQubits > hardCap {
		return nil, fmt.Errorf("%w: %d qubits", circuit.ErrCircuitTooLarge, numQubits)
	}
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &State{amps: amps, n: numQubits}, nil
}

// NumQubits returns the register size.
func (s *State) NumQubits() int { return s.n }

// Amplitudes returns a copy of the amplitude vector.
func (s *State) Amplitudes() []complex128 {
	out := make([]complex128, len(s.amps))
	copy(out, s.amps)
	return out
}

// Finalize seals the state; further applies fail with ErrFinalized.
func (s *State) Finalize() { s.finalized = true }

func (s *State) checkQubit(q int) error {
	if q < 0 || q >= s.n {
		return fmt.Errorf("%w: qubit %d on a %d-qubit register", circuit.ErrInvalidQubitIndex, q, s.n)
	}
	return nil
}

func (s *State) guard(qubits ...int) error {
	if s.finalized {
		return ErrFinalized
	}
	for _, q := range qubits {
		if err := s.checkQubit(q); err != nil {
			return err
		}
	}
	return nil
}

// ApplySingle applies a 2x2 unitary to qubit q: for every basis index pair
// differing only in bit q, the amplitude sub-vector is replaced by m times
// the sub-vector.
func (s *State) ApplySingle(m gate.Matrix, q int) error {
	if err := s.guard(q); err != nil {
		return err
	}
	bit := 1 << q
	s.forRange(func(from, to int) {
		for i := from; i < to; i++ {
			if i&bit == 0 {
				j := i | bit
				a0, a1 := s.amps[i], s.amps[j]
				s.amps[i] = m[0][0]*a0 + m[0][1]*a1
				s.amps[j] = m[1][0]*a0 + m[1][1]*a1
			}
		}
	})
	return nil
}

// ApplyControlledX flips every target qubit iff all control qubits are 1.
// With no controls it is a plain multi-target X.
func (s *State) ApplyControlledX(controls, targets []int) error {
	if err := s.guard(append(append([]int{}, controls...), targets...)...); err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}
	cmask, tmask := mask(controls), mask(targets)
	low := 1 << lowest(targets)
	s.forRange(func(from, to int) {
		for i := from; i < to; i++ {
			// process each {i, i^tmask} pair once, at the representative
			// with the lowest target bit clear
			if i&cmask == cmask && i&low == 0 {
				j := i ^ tmask
				s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
			}
		}
	})
	return nil
}

// ApplyControlledZ applies a -1 phase iff all control and target qubits
// are 1.
func (s *State) ApplyControlledZ(controls, targets []int) error {
	if err := s.guard(append(append([]int{}, controls...), targets...)...); err != nil {
		return err
	}
	m := mask(controls) | mask(targets)
	s.forRange(func(from, to int) {
		for i := from; i < to; i++ {
			if i&m == m {
				s.amps[i] = -s.amps[i]
			}
		}
	})
	return nil
}

// ApplySwap exchanges the basis assignments of two qubits.
func (s *State) ApplySwap(q1, q2 int) error {
	if err := s.guard(q1, q2); err != nil {
		return err
	}
	if q1 == q2 {
		return nil
	}
	b1, b2 := 1<<q1, 1<<q2
	s.forRange(func(from, to int) {
		for i := from; i < to; i++ {
			if i&b1 != 0 && i&b2 == 0 {
				j := i ^ b1 ^ b2
				s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
			}
		}
	})
	return nil
}

// Measure collapses qubit q to a sampled outcome and renormalizes.
// Simulation runs defer measurements and never call this; it serves the
// explicit collapse and reset primitives.
func (s *State) Measure(q int, rng *rand.Rand) (int, error) {
	if err := s.guard(q); err != nil {
		return 0, err
	}
	bit := 1 << q
	probOne := 0.0
	for i, a := range s.amps {
		if i&bit != 0 {
			probOne += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	outcome := 0
	if rng.Float64() < probOne {
		outcome = 1
	}
	s.project(q, outcome)
	return outcome, nil
}

// ResetQubit forces qubit q to |0⟩: measure, then flip if the outcome was 1.
func (s *State) ResetQubit(q int, rng *rand.Rand) error {
	outcome, err := s.Measure(q, rng)
	if err != nil {
		return err
	}
	if outcome == 1 {
		x, _ := gate.X.Matrix()
		return s.ApplySingle(x, q)
	}
	return nil
}

// project zeroes the branch inconsistent with outcome and renormalizes.
func (s *State) project(q, outcome int) {
	bit := 1 << q
	norm := 0.0
	for i, a := range s.amps {
		b := 0
		if i&bit != 0 {
			b = 1
		}
		if b != outcome {
			s.amps[i] = 0
		} else {
			norm += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	if norm > 0 {
		inv := complex(1/math.Sqrt(norm), 0)
		for i := range s.amps {
			s.amps[i] *= inv
		}
	}
}

// Renormalize rescales the vector to unit norm and returns the drift
// |1 - Σ|a|²| it corrected.
func (s *State) Renormalize() float64 {
	norm := 0.0
	for _, a := range s.amps {
		norm += real(a)*real(a) + imag(a)*imag(a)
	}
	drift := math.Abs(1 - norm)
	if norm > 0 && drift > 0 {
		inv := complex(1/math.Sqrt(norm), 0)
		for i := range s.amps {
			s.amps[i] *= inv
		}
	}
	return drift
}

// Probabilities maps bitstrings to |amplitude|², omitting entries below
// 1e-12. Bit i of the basis index is qubit i; bitstrings are printed
// most-significant qubit first.
func (s *State) Probabilities() map[string]float64 {
	out := make(map[string]float64)
	for i, a := range s.amps {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p > 1e-12 {
			out[Bitstring(i, s.n)] = p
		}
	}
	return out
}

// Sample draws shot outcomes from the current distribution.
func (s *State) Sample(rng *rand.Rand, shots int) map[string]int {
	counts := make(map[string]int)
	for t := 0; t < shots; t++ {
		r := rng.Float64()
		acc := 0.0
		idx := len(s.amps) - 1
		for i, a := range s.amps {
			acc += real(a)*real(a) + imag(a)*imag(a)
			if r < acc {
				idx = i
				break
			}
		}
		counts[Bitstring(idx, s.n)]++
	}
	return counts
}

// Reduced traces out every qubit except q and returns the 2x2 reduced
// density matrix of q.
func (s *State) Reduced(q int) ([2][2]complex128, error) {
	var rho [2][2]complex128
	if err := s.checkQubit(q); err != nil {
		return rho, err
	}
	bit := 1 << q
	for i, a := range s.amps {
		if i&bit == 0 {
			j := i | bit
			b := s.amps[j]
			rho[0][0] += a * cmplx.Conj(a)
			rho[1][1] += b * cmplx.Conj(b)
			rho[0][1] += a * cmplx.Conj(b)
			rho[1][0] += b * cmplx.Conj(a)
		}
	}
	return rho, nil
}

// Bitstring renders basis index i over n qubits, qubit n-1 first.
func Bitstring(i, n int) string {
	buf := make([]byte, n)
	for q := 0; q < n; q++ {
		if i&(1<<q) != 0 {
			buf[n-1-q] = '1'
		} else {
			buf[n-1-q] = '0'
		}
	}
	return string(buf)
}

// forRange runs fn over the index space, fanning out across cores above
// parallelThreshold. Chunks may read the paired high index of another
// chunk, but every pair is written only by the goroutine owning its
// representative low index.
func (s *State) forRange(fn func(from, to int)) {
	size := len(s.amps)
	if size < parallelThreshold {
		fn(0, size)
		return
	}
	utils.Execute(0, size, fn)
}

func mask(qubits []int) int {
	m := 0
	for _, q := range qubits {
		m |= 1 << q
	}
	return m
}

func lowest(qubits []int) int {
	low := qubits[0]
	for _, q := range qubits[1:] {
		if q < low {
			low = q
		}
	}
	return low
}
