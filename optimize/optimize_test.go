package optimize

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/gate"
	"github.com/quarclab/quarc/simulator"
)

func theta(v float64) *float64 { return &v }

func singles(gates ...circuit.SingleGate) map[string]circuit.SingleGate {
	out := make(map[string]circuit.SingleGate, len(gates))
	for i, g := range gates {
		out[fmt.Sprintf("g%d", i)] = g
	}
	return out
}

func TestOptimizeCancelsSelfInversePair(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    1,
		NumTimesteps: 2,
		Gates: singles(
			circuit.SingleGate{Kind: gate.H, Qubit: 0, Timestep: 0},
			circuit.SingleGate{Kind: gate.H, Qubit: 0, Timestep: 1},
		),
	}
	res, err := Optimize(c, LevelCancel)
	require.NoError(t, err)
	assert.Equal(t, 2, res.OriginalGateCount)
	assert.Zero(t, res.OptimizedGateCount)
	assert.Equal(t, 2, res.RemovedCount)
}

func TestOptimizeCancelsInversePair(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    1,
		NumTimesteps: 2,
		Gates: singles(
			circuit.SingleGate{Kind: gate.S, Qubit: 0, Timestep: 0},
			circuit.SingleGate{Kind: gate.SDG, Qubit: 0, Timestep: 1},
		),
	}
	res, err := Optimize(c, LevelCancel)
	require.NoError(t, err)
	assert.Zero(t, res.OptimizedGateCount)
}

func TestOptimizeCancellationCascades(t *testing.T) {
	// X H H X collapses from the inside out
	c := &circuit.Circuit{
		NumQubits:    1,
		NumTimesteps: 4,
		Gates: singles(
			circuit.SingleGate{Kind: gate.X, Qubit: 0, Timestep: 0},
			circuit.SingleGate{Kind: gate.H, Qubit: 0, Timestep: 1},
			circuit.SingleGate{Kind: gate.H, Qubit: 0, Timestep: 2},
			circuit.SingleGate{Kind: gate.X, Qubit: 0, Timestep: 3},
		),
	}
	res, err := Optimize(c, LevelCancel)
	require.NoError(t, err)
	assert.Zero(t, res.OptimizedGateCount)
}

func TestOptimizeDropsIdentity(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    1,
		NumTimesteps: 2,
		Gates: singles(
			circuit.SingleGate{Kind: gate.I, Qubit: 0, Timestep: 0},
			circuit.SingleGate{Kind: gate.T, Qubit: 0, Timestep: 1},
		),
	}
	res, err := Optimize(c, LevelCancel)
	require.NoError(t, err)
	assert.Equal(t, 1, res.OptimizedGateCount)
}

func TestOptimizeBarrierBlocksCancellation(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    2,
		NumTimesteps: 3,
		Gates: singles(
			circuit.SingleGate{Kind: gate.H, Qubit: 0, Timestep: 0},
			circuit.SingleGate{Kind: gate.H, Qubit: 0, Timestep: 2},
		),
		MultiGates: []circuit.MultiGate{
			{Kind: gate.CNOT, Timestep: 1, Controls: []int{0}, Targets: []int{1}},
		},
	}
	res, err := Optimize(c, LevelCancel)
	require.NoError(t, err)
	assert.Equal(t, 3, res.OptimizedGateCount)
	assert.Zero(t, res.RemovedCount)
}

func TestOptimizeRotationFusion(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    1,
		NumTimesteps: 2,
		Gates: singles(
			circuit.SingleGate{Kind: gate.RX, Qubit: 0, Timestep: 0, Theta: theta(math.Pi / 4)},
			circuit.SingleGate{Kind: gate.RX, Qubit: 0, Timestep: 1, Theta: theta(math.Pi / 4)},
		),
	}

	// level 1 leaves rotations alone
	res, err := Optimize(c, LevelCancel)
	require.NoError(t, err)
	assert.Equal(t, 2, res.OptimizedGateCount)

	// level 2 merges them into one half-pi rotation
	res, err = Optimize(c, LevelFuse)
	require.NoError(t, err)
	require.Equal(t, 1, res.OptimizedGateCount)
	for _, g := range res.Circuit.Gates {
		require.NotNil(t, g.Theta)
		assert.InDelta(t, math.Pi/2, *g.Theta, 1e-12)
	}
}

func TestOptimizeRotationFusionToIdentity(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    1,
		NumTimesteps: 2,
		Gates: singles(
			circuit.SingleGate{Kind: gate.RZ, Qubit: 0, Timestep: 0, Theta: theta(math.Pi / 3)},
			circuit.SingleGate{Kind: gate.RZ, Qubit: 0, Timestep: 1, Theta: theta(-math.Pi / 3)},
		),
	}
	res, err := Optimize(c, LevelFuse)
	require.NoError(t, err)
	assert.Zero(t, res.OptimizedGateCount)
}

func TestOptimizeLevelZeroPassThrough(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    1,
		NumTimesteps: 2,
		Gates: singles(
			circuit.SingleGate{Kind: gate.H, Qubit: 0, Timestep: 0},
			circuit.SingleGate{Kind: gate.H, Qubit: 0, Timestep: 1},
		),
	}
	res, err := Optimize(c, 0)
	require.NoError(t, err)
	assert.Same(t, c, res.Circuit)
	assert.Zero(t, res.RemovedCount)
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	c := &circuit.Circuit{
		NumQubits:    1,
		NumTimesteps: 2,
		Gates: singles(
			circuit.SingleGate{Kind: gate.RX, Qubit: 0, Timestep: 0, Theta: theta(0.5)},
			circuit.SingleGate{Kind: gate.RX, Qubit: 0, Timestep: 1, Theta: theta(0.25)},
		),
	}
	_, err := Optimize(c, LevelFuse)
	require.NoError(t, err)
	assert.Len(t, c.Gates, 2)
	assert.Equal(t, 0.5, *c.Gates["g0"].Theta)
	assert.Equal(t, 0.25, *c.Gates["g1"].Theta)
}

// randomCircuit builds a valid 3-qubit circuit from a seed: each timestep
// holds either one CNOT plus a single gate, or up to three single gates.
func randomCircuit(seed int64) *circuit.Circuit {
	rng := rand.New(rand.NewSource(seed))
	kinds := []gate.Kind{
		gate.I, gate.X, gate.Y, gate.Z, gate.H,
		gate.S, gate.SDG, gate.T, gate.TDG,
		gate.RX, gate.RY, gate.RZ,
	}

	c := &circuit.Circuit{
		NumQubits:    3,
		NumTimesteps: 8,
		Gates:        make(map[string]circuit.SingleGate),
	}
	id := 0
	place := func(q, t int) {
		k := kinds[rng.Intn(len(kinds))]
		g := circuit.SingleGate{Kind: k, Qubit: q, Timestep: t}
		if k.IsParametric() {
			g.Theta = theta(rng.Float64()*4*math.Pi - 2*math.Pi)
		}
		c.Gates[fmt.Sprintf("g%d", id)] = g
		id++
	}
	for t := 0; t < c.NumTimesteps; t++ {
		if rng.Float64() < 0.3 {
			control := rng.Intn(3)
			target := (control + 1 + rng.Intn(2)) % 3
			c.MultiGates = append(c.MultiGates, circuit.MultiGate{
				Kind: gate.CNOT, Timestep: t, Controls: []int{control}, Targets: []int{target},
			})
			spare := 3 - control - target
			if rng.Float64() < 0.5 {
				place(spare, t)
			}
			continue
		}
		for q := 0; q < 3; q++ {
			if rng.Float64() < 0.5 {
				place(q, t)
			}
		}
	}
	return c
}

func TestOptimizePreservesDistribution(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60

	properties := gopter.NewProperties(parameters)

	properties.Property("optimized circuit yields the same probabilities", prop.ForAll(
		func(seed int64) bool {
			c := randomCircuit(seed)
			res, err := Optimize(c, LevelFuse)
			if err != nil {
				return false
			}

			before, err := simulator.Run(context.Background(), c)
			if err != nil {
				return false
			}
			after, err := simulator.Run(context.Background(), res.Circuit)
			if err != nil {
				return false
			}

			keys := make(map[string]struct{})
			for k := range before.Probabilities {
				keys[k] = struct{}{}
			}
			for k := range after.Probabilities {
				keys[k] = struct{}{}
			}
			for k := range keys {
				if math.Abs(before.Probabilities[k]-after.Probabilities[k]) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
