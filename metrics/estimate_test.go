package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarclab/quarc/backend"
	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/gate"
)

func TestEstimateEmptyCircuit(t *testing.T) {
	c := &circuit.Circuit{NumQubits: 2, NumTimesteps: 4}
	est, err := Estimate(c, "")
	require.NoError(t, err)

	assert.Equal(t, backend.Default, est.Backend)
	assert.Zero(t, est.SingleQubitGates)
	assert.Zero(t, est.MultiQubitGates)
	assert.Zero(t, est.Depth)
	assert.Zero(t, est.RuntimeNs)
	assert.Equal(t, 1.0, est.Fidelity)
	assert.True(t, est.FitsBackend)
}

func TestEstimateCounts(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    2,
		NumClassical: 2,
		NumTimesteps: 4,
		Gates: map[string]circuit.SingleGate{
			"h": {Kind: gate.H, Qubit: 0, Timestep: 0},
		},
		MultiGates: []circuit.MultiGate{
			{Kind: gate.CNOT, Timestep: 1, Controls: []int{0}, Targets: []int{1}},
		},
		Measurements: []circuit.Measurement{
			{Qubit: 0, ClassicalBit: 0, Timestep: 2},
		},
	}
	p, err := backend.Get("ibm_brisbane")
	require.NoError(t, err)

	est, err := Estimate(c, "ibm_brisbane")
	require.NoError(t, err)

	assert.Equal(t, 1, est.SingleQubitGates)
	assert.Equal(t, 1, est.MultiQubitGates)
	assert.Equal(t, 1, est.Measurements)
	assert.Equal(t, 3, est.Depth)
	assert.InDelta(t, p.SingleQubitTime+p.TwoQubitTime+p.ReadoutTime, est.RuntimeNs, 1e-9)

	want := (1 - p.SingleQubitErr) * (1 - p.TwoQubitErr) * (1 - p.ReadoutErr)
	assert.InDelta(t, want, est.Fidelity, 1e-12)
}

func TestEstimateOversizedRegister(t *testing.T) {
	c := &circuit.Circuit{NumQubits: 200, NumTimesteps: 1}
	est, err := Estimate(c, "ibm_brisbane")
	require.NoError(t, err)
	assert.False(t, est.FitsBackend)
}

func TestEstimateUnknownBackend(t *testing.T) {
	c := &circuit.Circuit{NumQubits: 1, NumTimesteps: 1}
	_, err := Estimate(c, "nope")
	require.ErrorIs(t, err, backend.ErrUnknownBackend)
}
