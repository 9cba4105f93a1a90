// Package metrics derives the editor's visualization data from an evolved
// state or from the circuit structure: basis-state probabilities, reduced
// single-qubit Bloch vectors, Q-sphere points, entanglement edges, and
// resource estimates against hardware profiles.
package metrics

import (
	"math/cmplx"
	"sort"

	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/simulator/statevector"
)

// epsilon below which probabilities are omitted from reported maps.
const epsilon = 1e-12

// Probabilities maps bitstrings to |amplitude|², omitting entries below
// epsilon. Bit i of the basis index is qubit i.
func Probabilities(amps []complex128, numQubits int) map[string]float64 {
	out := make(map[string]float64)
	for i, a := range amps {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p > epsilon {
			out[statevector.Bitstring(i, numQubits)] = p
		}
	}
	return out
}

// BlochVector is the 3D representation of a single qubit's reduced state.
// |r| < 1 indicates a mixed reduced state (entanglement or noise).
type BlochVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BlochFromReduced converts a 2x2 reduced density matrix using
//
//	x = 2·Re ρ01,  y = −2·Im ρ01,  z = ρ00 − ρ11
//
// i.e. ρ = (I + xX + yY + zZ)/2. The y sign follows from reading the
// off-diagonal as ρ01 = (x − iy)/2; every consumer shares this convention.
func BlochFromReduced(rho [2][2]complex128) BlochVector {
	return BlochVector{
		X: 2 * real(rho[0][1]),
		Y: -2 * imag(rho[0][1]),
		Z: real(rho[0][0]) - real(rho[1][1]),
	}
}

// Bloch traces out every qubit but q from a pure state and returns q's
// Bloch vector.
func Bloch(amps []complex128, numQubits, q int) (BlochVector, error) {
	s := &reducedSource{amps: amps, n: numQubits}
	rho, err := s.Reduced(q)
	if err != nil {
		return BlochVector{}, err
	}
	return BlochFromReduced(rho), nil
}

// QSpherePoint is one basis state with non-negligible amplitude.
type QSpherePoint struct {
	State       string  `json:"state"`
	Magnitude   float64 `json:"magnitude"`
	Phase       float64 `json:"phase"`
	Probability float64 `json:"probability"`
	Hamming     int     `json:"hamming"`
}

// QSphere lists every basis state with probability above epsilon, ordered
// by basis index. Phase is atan2(Im, Re) of the amplitude.
func QSphere(amps []complex128, numQubits int) []QSpherePoint {
	points := make([]QSpherePoint, 0)
	for i, a := range amps {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p <= epsilon {
			continue
		}
		points = append(points, QSpherePoint{
			State:       statevector.Bitstring(i, numQubits),
			Magnitude:   cmplx.Abs(a),
			Phase:       cmplx.Phase(a),
			Probability: p,
			Hamming:     hamming(i),
		})
	}
	return points
}

func hamming(x int) int {
	count := 0
	for x > 0 {
		count += x & 1
		x >>= 1
	}
	return count
}

// reducedSource computes single-qubit reduced density matrices from a raw
// amplitude slice without copying it into a kernel.
type reducedSource struct {
	amps []complex128
	n    int
}

func (s *reducedSource) Reduced(q int) ([2][2]complex128, error) {
	var rho [2][2]complex128
	if q < 0 || q >= s.n {
		return rho, circuit.ErrInvalidQubitIndex
	}
	bit := 1 << q
	for i, a := range s.amps {
		if i&bit == 0 {
			b := s.amps[i|bit]
			rho[0][0] += a * cmplx.Conj(a)
			rho[1][1] += b * cmplx.Conj(b)
			rho[0][1] += a * cmplx.Conj(b)
			rho[1][0] += b * cmplx.Conj(a)
		}
	}
	return rho, nil
}

// Edge is a qubit pair with a normalized interaction weight.
type Edge struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Weight float64 `json:"weight"`
}

// EntanglementEdges counts multi-qubit-gate co-occurrences between qubit
// pairs across the circuit description, normalized by the maximum pair
// count.
//
// This is a structural heuristic, not a physical entanglement measure: it
// reflects circuit connectivity only. The physically correct metric is the
// Von Neumann entropy of each pair's reduced density matrix, which would
// require the evolved state; the structural count is kept because the
// editor draws it live while the circuit is edited.
func EntanglementEdges(c *circuit.Circuit) []Edge {
	type pair struct{ a, b int }
	counts := make(map[pair]int)
	maxCount := 0

	for _, g := range c.MultiGates {
		qubits := append(append([]int{}, g.Controls...), g.Targets...)
		sort.Ints(qubits)
		for i := 0; i < len(qubits); i++ {
			for j := i + 1; j < len(qubits); j++ {
				p := pair{qubits[i], qubits[j]}
				counts[p]++
				if counts[p] > maxCount {
					maxCount = counts[p]
				}
			}
		}
	}
	if maxCount == 0 {
		return nil
	}

	edges := make([]Edge, 0, len(counts))
	for p, n := range counts {
		edges = append(edges, Edge{A: p.a, B: p.b, Weight: float64(n) / float64(maxCount)})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

// Sample draws shot outcomes from a probability distribution; used for
// histogram views over noisy averaged runs.
func Sample(probs map[string]float64, rnd func() float64, shots int) map[string]int {
	states := make([]string, 0, len(probs))
	for s := range probs {
		states = append(states, s)
	}
	sort.Strings(states)

	counts := make(map[string]int)
	for t := 0; t < shots; t++ {
		r := rnd()
		acc := 0.0
		picked := ""
		for _, s := range states {
			acc += probs[s]
			if r < acc {
				picked = s
				break
			}
		}
		if picked == "" && len(states) > 0 {
			picked = states[len(states)-1]
		}
		if picked != "" {
			counts[picked]++
		}
	}
	return counts
}
