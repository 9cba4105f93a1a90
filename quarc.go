package quarc

import (
	"github.com/blang/semver/v4"

	"github.com/quarclab/quarc/gate"
)

var Version = semver.MustParse("0.3.0")

// Gates returns the gate kinds supported by quarc.
func Gates() []gate.Kind {
	return []gate.Kind{
		gate.I,
		gate.X,
		gate.Y,
		gate.Z,
		gate.H,
		gate.S,
		gate.SDG,
		gate.T,
		gate.TDG,
		gate.RX,
		gate.RY,
		gate.RZ,
		gate.CNOT,
		gate.CCNOT,
		gate.CZ,
		gate.SWAP,
	}
}
