// Package density implements the exact mixed-state simulation kernel. It
// stores the full 2^n × 2^n density matrix, so memory is O(4^n) and the
// qubit ceiling is far lower than the statevector kernel's; in exchange the
// depolarizing channel is applied exactly instead of as a sampled
// trajectory.
package density

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/gate"
	"github.com/quarclab/quarc/simulator/statevector"
)

// MaxQubits bounds the density representation: 10 qubits is a 1024x1024
// complex matrix, 16 MiB.
const MaxQubits = 10

// ErrFinalized mirrors the statevector lifecycle contract.
var ErrFinalized = errors.New("state already finalized")

// State is a dense density matrix ρ, row-major, initialized to |0...0⟩⟨0...0|.
type State struct {
	rho       []complex128
	n         int
	d         int
	finalized bool
}

// New returns a fresh n-qubit density matrix for |0...0⟩.
func New(numQubits int) (*State, error) {
	if numQubits < 1 || numQubits > MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits exceeds the %d-qubit density-matrix ceiling",
			circuit.ErrCircuitTooLarge, numQubits, MaxQubits)
	}
	d := 1 << numQubits
	rho := make([]complex128, d*d)
	rho[0] = 1
	return &State{rho: rho, n: numQubits, d: d}, nil
}

// NumQubits returns the register size.
func (s *State) NumQubits() int { return s.n }

// Finalize seals the state.
func (s *State) Finalize() { s.finalized = true }

func (s *State) at(i, j int) complex128     { return s.rho[i*s.d+j] }
func (s *State) set(i, j int, v complex128) { s.rho[i*s.d+j] = v }

func (s *State) guard(qubits ...int) error {
	if s.finalized {
		return ErrFinalized
	}
	for _, q := range qubits {
		if q < 0 || q >= s.n {
			return fmt.Errorf("%w: qubit %d on a %d-qubit register", circuit.ErrInvalidQubitIndex, q, s.n)
		}
	}
	return nil
}

// ApplySingle conjugates ρ by a single-qubit unitary: ρ ← UρU†.
func (s *State) ApplySingle(m gate.Matrix, q int) error {
	if err := s.guard(q); err != nil {
		return err
	}
	bit := 1 << q

	// rows: ρ ← Uρ
	for c := 0; c < s.d; c++ {
		for i := 0; i < s.d; i++ {
			if i&bit == 0 {
				j := i | bit
				a0, a1 := s.at(i, c), s.at(j, c)
				s.set(i, c, m[0][0]*a0+m[0][1]*a1)
				s.set(j, c, m[1][0]*a0+m[1][1]*a1)
			}
		}
	}
	// columns: ρ ← ρU†
	for r := 0; r < s.d; r++ {
		for i := 0; i < s.d; i++ {
			if i&bit == 0 {
				j := i | bit
				a0, a1 := s.at(r, i), s.at(r, j)
				s.set(r, i, a0*cmplx.Conj(m[0][0])+a1*cmplx.Conj(m[0][1]))
				s.set(r, j, a0*cmplx.Conj(m[1][0])+a1*cmplx.Conj(m[1][1]))
			}
		}
	}
	return nil
}

// ApplyControlledX conjugates ρ by the generalized multi-controlled X
// permutation.
func (s *State) ApplyControlledX(controls, targets []int) error {
	if err := s.guard(append(append([]int{}, controls...), targets...)...); err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}
	cmask, tmask := mask(controls), mask(targets)
	low := 1 << lowestOf(targets)
	s.permute(func(i int) (int, bool) {
		if i&cmask == cmask && i&low == 0 {
			return i ^ tmask, true
		}
		return 0, false
	})
	return nil
}

// ApplyControlledZ conjugates ρ by the multi-controlled phase flip.
func (s *State) ApplyControlledZ(controls, targets []int) error {
	if err := s.guard(append(append([]int{}, controls...), targets...)...); err != nil {
		return err
	}
	m := mask(controls) | mask(targets)
	for i := 0; i < s.d; i++ {
		for j := 0; j < s.d; j++ {
			// sign flips when exactly one side satisfies the mask
			if (i&m == m) != (j&m == m) {
				s.set(i, j, -s.at(i, j))
			}
		}
	}
	return nil
}

// ApplySwap conjugates ρ by the SWAP permutation.
func (s *State) ApplySwap(q1, q2 int) error {
	if err := s.guard(q1, q2); err != nil {
		return err
	}
	if q1 == q2 {
		return nil
	}
	b1, b2 := 1<<q1, 1<<q2
	s.permute(func(i int) (int, bool) {
		if i&b1 != 0 && i&b2 == 0 {
			return i ^ b1 ^ b2, true
		}
		return 0, false
	})
	return nil
}

// permute conjugates ρ by the basis permutation generated by rep: for every
// representative index i, rep returns its image j and the pair (i, j) is
// exchanged, first across rows, then across columns.
func (s *State) permute(rep func(int) (int, bool)) {
	for c := 0; c < s.d; c++ {
		for i := 0; i < s.d; i++ {
			if j, ok := rep(i); ok {
				vi, vj := s.at(i, c), s.at(j, c)
				s.set(i, c, vj)
				s.set(j, c, vi)
			}
		}
	}
	for r := 0; r < s.d; r++ {
		for i := 0; i < s.d; i++ {
			if j, ok := rep(i); ok {
				vi, vj := s.at(r, i), s.at(r, j)
				s.set(r, i, vj)
				s.set(r, j, vi)
			}
		}
	}
}

// Depolarize applies the exact single-qubit depolarizing channel
//
//	ρ ← (1−p)ρ + (p/3)(XρX + YρY + ZρZ)
//
// using the closed form of the Pauli sum on one qubit: entries whose row
// and column bits agree mix with their bit-flipped partners; entries whose
// bits differ are uniformly damped.
func (s *State) Depolarize(q int, p float64) error {
	if err := s.guard(q); err != nil {
		return err
	}
	if p <= 0 {
		return nil
	}
	bit := 1 << q
	keep := complex(1-4*p/3, 0)
	stay := complex(1-2*p/3, 0)
	swap := complex(2*p/3, 0)

	for i := 0; i < s.d; i++ {
		if i&bit != 0 {
			continue
		}
		ib := i | bit
		for j := 0; j < s.d; j++ {
			if j&bit != 0 {
				continue
			}
			jb := j | bit
			// diagonal-in-q block pair: (i,j) ↔ (ib,jb)
			a, b := s.at(i, j), s.at(ib, jb)
			s.set(i, j, stay*a+swap*b)
			s.set(ib, jb, swap*a+stay*b)
			// off-diagonal-in-q entries are damped
			s.set(i, jb, keep*s.at(i, jb))
			s.set(ib, j, keep*s.at(ib, j))
		}
	}
	return nil
}

// Probabilities reads the diagonal, omitting entries below 1e-12.
func (s *State) Probabilities() map[string]float64 {
	out := make(map[string]float64)
	for i := 0; i < s.d; i++ {
		p := real(s.at(i, i))
		if p > 1e-12 {
			out[statevector.Bitstring(i, s.n)] = p
		}
	}
	return out
}

// Renormalize rescales ρ to unit trace and returns the corrected drift.
func (s *State) Renormalize() float64 {
	tr := 0.0
	for i := 0; i < s.d; i++ {
		tr += real(s.at(i, i))
	}
	drift := math.Abs(1 - tr)
	if tr > 0 && drift > 0 {
		inv := complex(1/tr, 0)
		for i := range s.rho {
			s.rho[i] *= inv
		}
	}
	return drift
}

// Reduced traces out every qubit except q.
func (s *State) Reduced(q int) ([2][2]complex128, error) {
	var out [2][2]complex128
	if q < 0 || q >= s.n {
		return out, fmt.Errorf("%w: qubit %d on a %d-qubit register", circuit.ErrInvalidQubitIndex, q, s.n)
	}
	bit := 1 << q
	for i := 0; i < s.d; i++ {
		if i&bit != 0 {
			continue
		}
		ib := i | bit
		out[0][0] += s.at(i, i)
		out[0][1] += s.at(i, ib)
		out[1][0] += s.at(ib, i)
		out[1][1] += s.at(ib, ib)
	}
	return out, nil
}

func mask(qubits []int) int {
	m := 0
	for _, q := range qubits {
		m |= 1 << q
	}
	return m
}

func lowestOf(qubits []int) int {
	low := qubits[0]
	for _, q := range qubits[1:] {
		if q < low {
			low = q
		}
	}
	return low
}
