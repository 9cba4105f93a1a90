package statevector

import (
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
)

const tol = 1e-12

func mustMatrix(t *testing.T, k gate.Kind) gate.Matrix {
	t.Helper()
	m, err := k.Matrix()
	require.NoError(t, err)
	return m
}

func TestNewInitialState(t *testing.T) {
	s, err := New(3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumQubits())

	probs := s.Probabilities()
	require.Len(t, probs, 1)
	assert.InDelta(t, 1.0, probs["000"], tol)
}

func TestNewRejectsBadSizes(t *testing.T) {
	for _, n := range []int{0, -1, hardCap + 1} {
		_, err := New(n)
		require.ErrorIs(t, err, circuit.ErrCircuitTooLarge, n)
	}
}

func TestHadamardSuperposition(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	require.NoError(t, s.ApplySingle(mustMatrix(t, gate.H), 0))

	probs := s.Probabilities()
	assert.InDelta(t, 0.5, probs["0"], tol)
	assert.InDelta(t, 0.5, probs["1"], tol)
}

func TestBellPair(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	require.NoError(t, s.ApplySingle(mustMatrix(t, gate.H), 0))
	require.NoError(t, s.ApplyControlledX([]int{0}, []int{1}))

	probs := s.Probabilities()
	require.Len(t, probs, 2)
	assert.InDelta(t, 0.5, probs["00"], tol)
	assert.InDelta(t, 0.5, probs["11"], tol)
}

func TestGHZ(t *testing.T) {
	s, err := New(3)
	require.NoError(t, err)
	require.NoError(t, s.ApplySingle(mustMatrix(t, gate.H), 0))
	require.NoError(t, s.ApplyControlledX([]int{0}, []int{1}))
	require.NoError(t, s.ApplyControlledX([]int{1}, []int{2}))

	probs := s.Probabilities()
	require.Len(t, probs, 2)
	assert.InDelta(t, 0.5, probs["000"], tol)
	assert.InDelta(t, 0.5, probs["111"], tol)
}

func TestToffoli(t *testing.T) {
	s, err := New(3)
	require.NoError(t, err)
	x := mustMatrix(t, gate.X)
	require.NoError(t, s.ApplySingle(x, 0))
	require.NoError(t, s.ApplySingle(x, 1))
	require.NoError(t, s.ApplyControlledX([]int{0, 1}, []int{2}))

	probs := s.Probabilities()
	require.Len(t, probs, 1)
	assert.InDelta(t, 1.0, probs["111"], tol)
}

func TestControlledZPhase(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	x := mustMatrix(t, gate.X)
	require.NoError(t, s.ApplySingle(x, 0))
	require.NoError(t, s.ApplySingle(x, 1))
	require.NoError(t, s.ApplyControlledZ([]int{0}, []int{1}))

	amps := s.Amplitudes()
	assert.InDelta(t, -1.0, real(amps[3]), tol)
}

func TestSwap(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	require.NoError(t, s.ApplySingle(mustMatrix(t, gate.X), 0))
	require.NoError(t, s.ApplySwap(0, 1))

	probs := s.Probabilities()
	require.Len(t, probs, 1)
	// qubit 1 now holds the |1⟩; printed most-significant qubit first
	assert.InDelta(t, 1.0, probs["10"], tol)
}

func TestBitstringOrdering(t *testing.T) {
	// basis index 1 = qubit 0 set; qubit 0 prints last
	assert.Equal(t, "001", Bitstring(1, 3))
	assert.Equal(t, "100", Bitstring(4, 3))
	assert.Equal(t, "0000", Bitstring(0, 4))
}

func TestInvalidQubit(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	require.ErrorIs(t, s.ApplySingle(mustMatrix(t, gate.X), 2), circuit.ErrInvalidQubitIndex)
	require.ErrorIs(t, s.ApplySingle(mustMatrix(t, gate.X), -1), circuit.ErrInvalidQubitIndex)
	require.ErrorIs(t, s.ApplyControlledX([]int{0}, []int{5}), circuit.ErrInvalidQubitIndex)
	_, err = s.Reduced(2)
	require.ErrorIs(t, err, circuit.ErrInvalidQubitIndex)
}

func TestFinalizedRejectsApplies(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	s.Finalize()
	require.ErrorIs(t, s.ApplySingle(mustMatrix(t, gate.X), 0), ErrFinalized)
}

func TestMeasureCollapses(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s, err := New(2)
	require.NoError(t, err)
	require.NoError(t, s.ApplySingle(mustMatrix(t, gate.H), 0))
	require.NoError(t, s.ApplyControlledX([]int{0}, []int{1}))

	outcome, err := s.Measure(0, rng)
	require.NoError(t, err)

	// the Bell pair is perfectly correlated; both qubits collapse together
	probs := s.Probabilities()
	require.Len(t, probs, 1)
	if outcome == 0 {
		assert.InDelta(t, 1.0, probs["00"], tol)
	} else {
		assert.InDelta(t, 1.0, probs["11"], tol)
	}

	second, err := s.Measure(0, rng)
	require.NoError(t, err)
	assert.Equal(t, outcome, second)
}

func TestResetQubit(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s, err := New(1)
	require.NoError(t, err)
	require.NoError(t, s.ApplySingle(mustMatrix(t, gate.X), 0))
	require.NoError(t, s.ResetQubit(0, rng))

	probs := s.Probabilities()
	require.Len(t, probs, 1)
	assert.InDelta(t, 1.0, probs["0"], tol)
}

func TestSample(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	s, err := New(2)
	require.NoError(t, err)
	require.NoError(t, s.ApplySingle(mustMatrix(t, gate.H), 0))
	require.NoError(t, s.ApplyControlledX([]int{0}, []int{1}))

	counts := s.Sample(rng, 1000)
	total := 0
	for state, n := range counts {
		assert.Contains(t, []string{"00", "11"}, state)
		total += n
	}
	assert.Equal(t, 1000, total)
	assert.Greater(t, counts["00"], 350)
	assert.Greater(t, counts["11"], 350)
}

func TestRenormalizeReportsDrift(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	s.amps[0] = complex(2, 0)

	drift := s.Renormalize()
	assert.InDelta(t, 3.0, drift, tol)

	probs := s.Probabilities()
	assert.InDelta(t, 1.0, probs["0"], tol)
}

func TestReducedOfPlusState(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	require.NoError(t, s.ApplySingle(mustMatrix(t, gate.H), 0))

	rho, err := s.Reduced(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, real(rho[0][0]), tol)
	assert.InDelta(t, 0.5, real(rho[0][1]), tol)
	assert.InDelta(t, 0.5, real(rho[1][1]), tol)
}

func normDelta(s *State) float64 {
	norm := 0.0
	for _, a := range s.Amplitudes() {
		norm += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Abs(1 - norm)
}

func TestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	selfInverse := []gate.Kind{gate.X, gate.Y, gate.Z, gate.H}

	properties.Property("self-inverse gates applied twice restore the state", prop.ForAll(
		func(pick, q int) bool {
			s, err := New(3)
			if err != nil {
				return false
			}
			// scramble with a couple of Hadamards first
			h, _ := gate.H.Matrix()
			_ = s.ApplySingle(h, 0)
			_ = s.ApplySingle(h, 2)
			before := s.Amplitudes()

			m, err := selfInverse[pick].Matrix()
			if err != nil {
				return false
			}
			if err := s.ApplySingle(m, q); err != nil {
				return false
			}
			if err := s.ApplySingle(m, q); err != nil {
				return false
			}
			after := s.Amplitudes()
			for i := range before {
				if cabs(before[i]-after[i]) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(selfInverse)-1),
		gen.IntRange(0, 2),
	))

	properties.Property("swap applied twice restores the state", prop.ForAll(
		func(q1, q2 int) bool {
			s, err := New(3)
			if err != nil {
				return false
			}
			h, _ := gate.H.Matrix()
			_ = s.ApplySingle(h, 1)
			before := s.Amplitudes()
			if err := s.ApplySwap(q1, q2); err != nil {
				return false
			}
			if err := s.ApplySwap(q1, q2); err != nil {
				return false
			}
			after := s.Amplitudes()
			for i := range before {
				if cabs(before[i]-after[i]) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 2),
		gen.IntRange(0, 2),
	))

	properties.Property("rotations preserve the norm", prop.ForAll(
		func(theta float64, q int) bool {
			s, err := New(2)
			if err != nil {
				return false
			}
			for _, k := range []gate.Kind{gate.RX, gate.RY, gate.RZ} {
				m, err := k.Rotation(theta)
				if err != nil {
					return false
				}
				if err := s.ApplySingle(m, q); err != nil {
					return false
				}
			}
			return normDelta(s) < 1e-9
		},
		gen.Float64Range(-4*math.Pi, 4*math.Pi),
		gen.IntRange(0, 1),
	))

	properties.TestingRun(t)
}

func cabs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
