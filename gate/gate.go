// Package gate defines the closed set of gate kinds the engine supports and
// their 2x2 unitary matrices. Multi-qubit kinds (CNOT, CCNOT, CZ, SWAP) have
// no dense matrix here; they are applied as bit-indexed permutations and
// phase flips by the simulation kernels.
package gate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedGate is returned when a gate record carries an unknown
	// kind tag, or a kind is used in a position it cannot serve.
	ErrUnsupportedGate = errors.New("unsupported gate kind")

	// ErrMissingParameter is returned when a parametric gate record has no
	// angle.
	ErrMissingParameter = errors.New("missing angle parameter")
)

// Kind identifies a supported gate.
type Kind uint8

const (
	I Kind = iota
	X
	Y
	Z
	H
	S
	SDG
	T
	TDG
	RX
	RY
	RZ
	CNOT
	CCNOT
	CZ
	SWAP
)

func (k Kind) String() string {
	switch k {
	case I:
		return "I"
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	case H:
		return "H"
	case S:
		return "S"
	case SDG:
		return "SDG"
	case T:
		return "T"
	case TDG:
		return "TDG"
	case RX:
		return "RX"
	case RY:
		return "RY"
	case RZ:
		return "RZ"
	case CNOT:
		return "CNOT"
	case CCNOT:
		return "CCNOT"
	case CZ:
		return "CZ"
	case SWAP:
		return "SWAP"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// aliases maps the editor's spelling variants onto canonical tags.
var aliases = map[string]string{
	"S†":       "SDG",
	"SDAGGER":  "SDG",
	"T†":       "TDG",
	"TDAGGER":  "TDG",
	"CX":       "CNOT",
	"CCX":      "CCNOT",
	"TOFFOLI":  "CCNOT",
	"ID":       "I",
	"IDENTITY": "I",
}

var kindByTag = map[string]Kind{
	"I": I, "X": X, "Y": Y, "Z": Z, "H": H,
	"S": S, "SDG": SDG, "T": T, "TDG": TDG,
	"RX": RX, "RY": RY, "RZ": RZ,
	"CNOT": CNOT, "CCNOT": CCNOT, "CZ": CZ, "SWAP": SWAP,
}

// ParseKind resolves a string tag (case-insensitive, aliases accepted) to a
// Kind. Unknown tags fail with ErrUnsupportedGate; gate records are rejected
// at construction time, never at apply time.
func ParseKind(tag string) (Kind, error) {
	canonical := strings.ToUpper(strings.TrimSpace(tag))
	if alias, ok := aliases[canonical]; ok {
		canonical = alias
	}
	k, ok := kindByTag[canonical]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedGate, tag)
	}
	return k, nil
}

// MarshalText implements encoding.TextMarshaler so kinds serialize as their
// canonical tags in JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindByTag[k.String()]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedGate, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(data []byte) error {
	parsed, err := ParseKind(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsParametric reports whether the kind requires an angle.
func (k Kind) IsParametric() bool {
	return k == RX || k == RY || k == RZ
}

// IsMulti reports whether the kind acts on more than one qubit.
func (k Kind) IsMulti() bool {
	return k == CNOT || k == CCNOT || k == CZ || k == SWAP
}

// IsClifford reports membership in the Clifford group, used by the kernel
// analyzer.
func (k Kind) IsClifford() bool {
	switch k {
	case I, X, Y, Z, H, S, SDG, CNOT, CZ, SWAP:
		return true
	default:
		return false
	}
}

// Inverse returns the kind whose matrix is the adjoint of k's. ok is false
// for parametric kinds, whose inverse depends on the angle.
func (k Kind) Inverse() (Kind, bool) {
	switch k {
	case I, X, Y, Z, H, CNOT, CCNOT, CZ, SWAP:
		return k, true
	case S:
		return SDG, true
	case SDG:
		return S, true
	case T:
		return TDG, true
	case TDG:
		return T, true
	default:
		return 0, false
	}
}

// SelfInverse reports whether applying k twice is the identity.
func (k Kind) SelfInverse() bool {
	inv, ok := k.Inverse()
	return ok && inv == k
}
