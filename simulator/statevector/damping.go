package statevector

import (
	"math"
	"math/rand"
)

// ApplyAmplitudeDamping applies a T1 energy-relaxation channel to qubit q
// as a sampled Kraus trajectory with decay probability gamma:
//
//	K0 = [[1, 0], [0, √(1−γ)]]   K1 = [[0, √γ], [0, 0]]
//
// One of the two operators is drawn according to the state-dependent decay
// probability; the vector is renormalized afterwards.
func (s *State) ApplyAmplitudeDamping(q int, gamma float64, rng *rand.Rand) error {
	if err := s.guard(q); err != nil {
		return err
	}
	if gamma <= 0 {
		return nil
	}
	bit := 1 << q

	probDecay := 0.0
	for i, a := range s.amps {
		if i&bit != 0 {
			probDecay += gamma * (real(a)*real(a) + imag(a)*imag(a))
		}
	}

	if probDecay > 0 && rng.Float64() < probDecay {
		// K1: |1⟩ → |0⟩
		sqrtGamma := complex(math.Sqrt(gamma), 0)
		for i := range s.amps {
			if i&bit != 0 {
				j := i ^ bit
				s.amps[j] += sqrtGamma * s.amps[i]
				s.amps[i] = 0
			}
		}
	} else {
		// K0: damp the |1⟩ component
		sqrtKeep := complex(math.Sqrt(1-gamma), 0)
		for i := range s.amps {
			if i&bit != 0 {
				s.amps[i] *= sqrtKeep
			}
		}
	}
	s.Renormalize()
	return nil
}

// ApplyPhaseDamping applies a T2 pure-dephasing channel to qubit q as a
// sampled Kraus trajectory with dephasing parameter lambda.
func (s *State) ApplyPhaseDamping(q int, lambda float64, rng *rand.Rand) error {
	if err := s.guard(q); err != nil {
		return err
	}
	if lambda <= 0 {
		return nil
	}
	bit := 1 << q

	probDephase := 0.0
	for i, a := range s.amps {
		if i&bit != 0 {
			probDephase += lambda * (real(a)*real(a) + imag(a)*imag(a))
		}
	}

	factor := complex(math.Sqrt(1-lambda), 0)
	if probDephase > 0 && rng.Float64() < probDephase {
		factor = complex(math.Sqrt(lambda), 0)
	}
	for i := range s.amps {
		if i&bit != 0 {
			s.amps[i] *= factor
		}
	}
	s.Renormalize()
	return nil
}
