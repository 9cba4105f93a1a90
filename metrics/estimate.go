package metrics

import (
	"github.com/quarclab/quarc/backend"
	"github.com/quarclab/quarc/circuit"
)

// ResourceEstimate predicts how a circuit would perform on a hardware
// profile without simulating it.
type ResourceEstimate struct {
	Backend          string  `json:"backend"`
	NumQubits        int     `json:"numQubits"`
	SingleQubitGates int     `json:"singleQubitGates"`
	MultiQubitGates  int     `json:"multiQubitGates"`
	Measurements     int     `json:"measurements"`
	Depth            int     `json:"depth"`
	RuntimeNs        float64 `json:"estimatedRuntimeNs"`

	// Fidelity is the product of per-operation success probabilities,
	// (1-e1)^n1 · (1-e2)^n2 · (1-eR)^nM. One for an empty circuit.
	Fidelity float64 `json:"estimatedFidelity"`

	// FitsBackend is false when the register exceeds the device's qubit
	// count.
	FitsBackend bool `json:"fitsBackend"`
}

// Estimate computes gate counts, a serialized runtime estimate and a
// success-probability fidelity for the circuit on the named backend. An
// empty name selects the default profile.
func Estimate(c *circuit.Circuit, backendName string) (*ResourceEstimate, error) {
	p, err := backend.Get(backendName)
	if err != nil {
		return nil, err
	}
	// estimation is structural, so the dense-simulation qubit ceiling does
	// not apply; registers larger than the device only clear FitsBackend
	if err := c.Validate(circuit.StructuralMaxQubits); err != nil {
		return nil, err
	}

	est := &ResourceEstimate{
		Backend:          p.Name,
		NumQubits:        c.NumQubits,
		SingleQubitGates: len(c.Gates),
		MultiQubitGates:  len(c.MultiGates),
		Measurements:     len(c.Measurements),
		Depth:            c.Depth(),
		FitsBackend:      c.NumQubits <= p.Qubits,
	}

	est.RuntimeNs = float64(est.SingleQubitGates)*p.SingleQubitTime +
		float64(est.MultiQubitGates)*p.TwoQubitTime +
		float64(est.Measurements)*p.ReadoutTime

	fidelity := 1.0
	for i := 0; i < est.SingleQubitGates; i++ {
		fidelity *= 1 - p.SingleQubitErr
	}
	for i := 0; i < est.MultiQubitGates; i++ {
		fidelity *= 1 - p.TwoQubitErr
	}
	for i := 0; i < est.Measurements; i++ {
		fidelity *= 1 - p.ReadoutErr
	}
	est.Fidelity = fidelity

	return est, nil
}
