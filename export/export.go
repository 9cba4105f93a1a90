// Package export renders a circuit description as source code for external
// toolchains. Emission follows the simulation schedule, so exported
// programs replay operations in the exact order the simulator applies
// them.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/gate"
)

// ErrUnknownDialect is returned for an unrecognized target.
var ErrUnknownDialect = errors.New("unknown export dialect")

// Dialect names an export target.
type Dialect string

const (
	Qiskit Dialect = "qiskit"
	Braket Dialect = "braket"
	QASM3  Dialect = "qasm3"
)

// Dialects returns the supported targets.
func Dialects() []Dialect {
	return []Dialect{Qiskit, Braket, QASM3}
}

// ParseDialect resolves a dialect name, case-insensitive.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qiskit":
		return Qiskit, nil
	case "braket", "aws", "amazon-braket":
		return Braket, nil
	case "qasm", "qasm3", "openqasm", "openqasm3":
		return QASM3, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, s)
	}
}

// Export renders the circuit for the given dialect. An empty circuit is
// valid and produces a program that allocates the register and does
// nothing else (plus the dialect's measurement fallback).
func Export(c *circuit.Circuit, d Dialect) (string, error) {
	if err := c.Validate(circuit.StructuralMaxQubits); err != nil {
		return "", err
	}
	ops, err := circuit.Schedule(c)
	if err != nil {
		return "", err
	}
	switch d {
	case Qiskit:
		return exportQiskit(c, ops), nil
	case Braket:
		return exportBraket(c, ops), nil
	case QASM3:
		return exportQASM3(c, ops), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, d)
	}
}

func formatAngle(theta float64) string {
	return strconv.FormatFloat(theta, 'g', -1, 64)
}

func exportQiskit(c *circuit.Circuit, ops []circuit.Op) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from qiskit import QuantumCircuit\n")
	fmt.Fprintf(&b, "from qiskit_aer import AerSimulator\n\n")

	classical := c.NumClassical
	if classical < 1 {
		classical = c.NumQubits
	}
	fmt.Fprintf(&b, "qc = QuantumCircuit(%d, %d)\n", c.NumQubits, classical)

	measured := false
	for _, op := range ops {
		if op.Measure {
			fmt.Fprintf(&b, "qc.measure(%d, %d)\n", op.Targets[0], op.ClassicalBit)
			measured = true
			continue
		}
		switch op.Gate {
		case gate.I:
			fmt.Fprintf(&b, "qc.id(%d)\n", op.Targets[0])
		case gate.H, gate.X, gate.Y, gate.Z, gate.S, gate.T:
			fmt.Fprintf(&b, "qc.%s(%d)\n", strings.ToLower(op.Gate.String()), op.Targets[0])
		case gate.SDG:
			fmt.Fprintf(&b, "qc.sdg(%d)\n", op.Targets[0])
		case gate.TDG:
			fmt.Fprintf(&b, "qc.tdg(%d)\n", op.Targets[0])
		case gate.RX, gate.RY, gate.RZ:
			fmt.Fprintf(&b, "qc.%s(%s, %d)\n", strings.ToLower(op.Gate.String()), formatAngle(op.Theta), op.Targets[0])
		case gate.CNOT:
			fmt.Fprintf(&b, "qc.cx(%d, %d)\n", op.Controls[0], op.Targets[0])
		case gate.CZ:
			fmt.Fprintf(&b, "qc.cz(%d, %d)\n", op.Controls[0], op.Targets[0])
		case gate.CCNOT:
			fmt.Fprintf(&b, "qc.ccx(%d, %d, %d)\n", op.Controls[0], op.Controls[1], op.Targets[0])
		case gate.SWAP:
			fmt.Fprintf(&b, "qc.swap(%d, %d)\n", op.Targets[0], op.Targets[1])
		default:
			fmt.Fprintf(&b, "# unsupported gate: %s\n", op.Gate)
		}
	}
	if !measured {
		fmt.Fprintf(&b, "qc.measure_all()\n")
	}

	fmt.Fprintf(&b, "\nsimulator = AerSimulator()\n")
	fmt.Fprintf(&b, "result = simulator.run(qc, shots=1000).result()\n")
	fmt.Fprintf(&b, "print(result.get_counts())\n")
	return b.String()
}

func exportBraket(c *circuit.Circuit, ops []circuit.Op) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from braket.circuits import Circuit\n")
	fmt.Fprintf(&b, "from braket.devices import LocalSimulator\n\n")
	fmt.Fprintf(&b, "circuit = Circuit()\n")

	empty := true
	for _, op := range ops {
		if op.Measure {
			// braket measures every qubit at shot time
			continue
		}
		empty = false
		switch op.Gate {
		case gate.I:
			fmt.Fprintf(&b, "circuit.i(%d)\n", op.Targets[0])
		case gate.H, gate.X, gate.Y, gate.Z, gate.S, gate.T:
			fmt.Fprintf(&b, "circuit.%s(%d)\n", strings.ToLower(op.Gate.String()), op.Targets[0])
		case gate.SDG:
			fmt.Fprintf(&b, "circuit.si(%d)\n", op.Targets[0])
		case gate.TDG:
			fmt.Fprintf(&b, "circuit.ti(%d)\n", op.Targets[0])
		case gate.RX, gate.RY, gate.RZ:
			// braket argument order is qubit then angle
			fmt.Fprintf(&b, "circuit.%s(%d, %s)\n", strings.ToLower(op.Gate.String()), op.Targets[0], formatAngle(op.Theta))
		case gate.CNOT:
			fmt.Fprintf(&b, "circuit.cnot(%d, %d)\n", op.Controls[0], op.Targets[0])
		case gate.CZ:
			fmt.Fprintf(&b, "circuit.cz(%d, %d)\n", op.Controls[0], op.Targets[0])
		case gate.CCNOT:
			fmt.Fprintf(&b, "circuit.ccnot(%d, %d, %d)\n", op.Controls[0], op.Controls[1], op.Targets[0])
		case gate.SWAP:
			fmt.Fprintf(&b, "circuit.swap(%d, %d)\n", op.Targets[0], op.Targets[1])
		default:
			fmt.Fprintf(&b, "# unsupported gate: %s\n", op.Gate)
		}
	}
	if empty {
		// a Braket circuit must contain at least one instruction to run
		fmt.Fprintf(&b, "circuit.i(0)\n")
	}

	fmt.Fprintf(&b, "\ndevice = LocalSimulator()\n")
	fmt.Fprintf(&b, "result = device.run(circuit, shots=1000).result()\n")
	fmt.Fprintf(&b, "print(result.measurement_counts)\n")
	return b.String()
}

func exportQASM3(c *circuit.Circuit, ops []circuit.Op) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OPENQASM 3.0;\n")
	fmt.Fprintf(&b, "include \"stdgates.inc\";\n\n")

	classical := c.NumClassical
	if classical < 1 {
		classical = c.NumQubits
	}
	fmt.Fprintf(&b, "qubit[%d] q;\n", c.NumQubits)
	fmt.Fprintf(&b, "bit[%d] c;\n\n", classical)

	measured := false
	for _, op := range ops {
		if op.Measure {
			fmt.Fprintf(&b, "c[%d] = measure q[%d];\n", op.ClassicalBit, op.Targets[0])
			measured = true
			continue
		}
		switch op.Gate {
		case gate.I:
			fmt.Fprintf(&b, "id q[%d];\n", op.Targets[0])
		case gate.H, gate.X, gate.Y, gate.Z, gate.S, gate.T:
			fmt.Fprintf(&b, "%s q[%d];\n", strings.ToLower(op.Gate.String()), op.Targets[0])
		case gate.SDG:
			fmt.Fprintf(&b, "sdg q[%d];\n", op.Targets[0])
		case gate.TDG:
			fmt.Fprintf(&b, "tdg q[%d];\n", op.Targets[0])
		case gate.RX, gate.RY, gate.RZ:
			fmt.Fprintf(&b, "%s(%s) q[%d];\n", strings.ToLower(op.Gate.String()), formatAngle(op.Theta), op.Targets[0])
		case gate.CNOT:
			fmt.Fprintf(&b, "cx q[%d], q[%d];\n", op.Controls[0], op.Targets[0])
		case gate.CZ:
			fmt.Fprintf(&b, "cz q[%d], q[%d];\n", op.Controls[0], op.Targets[0])
		case gate.CCNOT:
			fmt.Fprintf(&b, "ccx q[%d], q[%d], q[%d];\n", op.Controls[0], op.Controls[1], op.Targets[0])
		case gate.SWAP:
			fmt.Fprintf(&b, "swap q[%d], q[%d];\n", op.Targets[0], op.Targets[1])
		default:
			fmt.Fprintf(&b, "// unsupported gate: %s\n", op.Gate)
		}
	}
	if !measured {
		fmt.Fprintf(&b, "c = measure q;\n")
	}
	return b.String()
}
