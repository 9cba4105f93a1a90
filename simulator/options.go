package simulator

import (
	"fmt"
	"time"

	"github.com/quarclab/quarc/backend"
	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/simulator/noise"
)

// Option configures a simulation run.
type Option func(*config) error

type config struct {
	maxQubits int
	seed      int64
	trials    int
	kernel    KernelID

	// model overrides the circuit's scalar noise level when set
	model    noise.Model
	hasModel bool
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		maxQubits: circuit.DefaultMaxQubits,
		seed:      time.Now().UnixNano(),
		trials:    1,
		kernel:    Auto,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	return cfg, nil
}

// WithMaxQubits overrides the dense-simulation qubit ceiling.
func WithMaxQubits(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("max qubits must be >= 1, got %d", n)
		}
		cfg.maxQubits = n
		return nil
	}
}

// WithSeed fixes the pseudo-random source of the Monte-Carlo noise
// trajectory, making noisy runs reproducible.
func WithSeed(seed int64) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		return nil
	}
}

// WithTrials averages probabilities over n independent noise trajectories.
// Only meaningful with noise; a noiseless run is exact in one pass.
func WithTrials(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("trials must be >= 1, got %d", n)
		}
		cfg.trials = n
		return nil
	}
}

// WithKernel pins the kernel instead of auto-selecting.
func WithKernel(id KernelID) Option {
	return func(cfg *config) error {
		cfg.kernel = id
		return nil
	}
}

// WithNoiseModel replaces the circuit's scalar noise level with a full
// channel configuration (depolarizing plus T1/T2 damping).
func WithNoiseModel(m noise.Model) Option {
	return func(cfg *config) error {
		cfg.model = m
		cfg.hasModel = true
		return nil
	}
}

// WithBackendNoise derives the noise model from a named hardware profile.
func WithBackendNoise(name string) Option {
	return func(cfg *config) error {
		p, err := backend.Get(name)
		if err != nil {
			return err
		}
		cfg.model = noise.FromProfile(p)
		cfg.hasModel = true
		return nil
	}
}
