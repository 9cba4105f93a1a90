// Package fingerprint computes stable content digests of circuit
// descriptions plus run parameters. Two requests with the same fingerprint
// are guaranteed the same simulation output, so the digest doubles as a
// memoization key.
package fingerprint

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/quarclab/quarc/circuit"
)

// payload is the canonical form fed to the hash. Map keys in the circuit
// description are editor-assigned identifiers with no semantic content, so
// they are dropped and the entries sorted by position instead.
type payload struct {
	NumQubits    int                   `cbor:"1,keyasint"`
	NumClassical int                   `cbor:"2,keyasint"`
	NumTimesteps int                   `cbor:"3,keyasint"`
	NoiseLevel   float64               `cbor:"4,keyasint"`
	Gates        []circuit.SingleGate  `cbor:"5,keyasint"`
	MultiGates   []circuit.MultiGate   `cbor:"6,keyasint"`
	Measurements []circuit.Measurement `cbor:"7,keyasint"`
	Params       map[string]string     `cbor:"8,keyasint,omitempty"`
}

var encMode cbor.EncMode

func init() {
	var err error
	// core deterministic encoding: sorted map keys, shortest-form integers
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("fingerprint: cbor mode: %v", err))
	}
}

// Circuit digests a circuit description together with request parameters
// that influence the output (kernel, trials, seed and the like). The
// digest is independent of map iteration order and of the editor's slot
// key naming.
func Circuit(c *circuit.Circuit, params map[string]string) ([32]byte, error) {
	p := payload{
		NumQubits:    c.NumQubits,
		NumClassical: c.NumClassical,
		NumTimesteps: c.NumTimesteps,
		NoiseLevel:   c.NoiseLevel,
		Gates:        make([]circuit.SingleGate, 0, len(c.Gates)),
		MultiGates:   make([]circuit.MultiGate, 0, len(c.MultiGates)),
		Measurements: make([]circuit.Measurement, 0, len(c.Measurements)),
		Params:       params,
	}
	for _, g := range c.Gates {
		p.Gates = append(p.Gates, g)
	}
	sort.Slice(p.Gates, func(i, j int) bool {
		a, b := p.Gates[i], p.Gates[j]
		if a.Timestep != b.Timestep {
			return a.Timestep < b.Timestep
		}
		return a.Qubit < b.Qubit
	})
	for _, g := range c.MultiGates {
		p.MultiGates = append(p.MultiGates, g)
	}
	sort.Slice(p.MultiGates, func(i, j int) bool {
		a, b := p.MultiGates[i], p.MultiGates[j]
		if a.Timestep != b.Timestep {
			return a.Timestep < b.Timestep
		}
		return minQubit(a) < minQubit(b)
	})
	for _, m := range c.Measurements {
		p.Measurements = append(p.Measurements, m)
	}
	sort.Slice(p.Measurements, func(i, j int) bool {
		a, b := p.Measurements[i], p.Measurements[j]
		if a.Timestep != b.Timestep {
			return a.Timestep < b.Timestep
		}
		return a.Qubit < b.Qubit
	})

	raw, err := encMode.Marshal(p)
	if err != nil {
		return [32]byte{}, fmt.Errorf("fingerprint: encode: %w", err)
	}
	return blake2b.Sum256(raw), nil
}

// Hex renders a digest for logs and cache keys.
func Hex(sum [32]byte) string {
	return fmt.Sprintf("%x", sum)
}

func minQubit(g circuit.MultiGate) int {
	min := 1 << 30
	for _, q := range g.Controls {
		if q < min {
			min = q
		}
	}
	for _, q := range g.Targets {
		if q < min {
			min = q
		}
	}
	return min
}
