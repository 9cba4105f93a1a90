package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/gate"
	"github.com/quarclab/quarc/logger"
	"github.com/quarclab/quarc/simulator/density"
	"github.com/quarclab/quarc/simulator/noise"
	"github.com/quarclab/quarc/simulator/statevector"
)

// driftTolerance is the probability-mass drift above which a run logs a
// numerical-instability warning. Drift is corrected by renormalization
// either way; it is never an error.
const driftTolerance = 1e-9

// Result is the outcome of one simulation run.
type Result struct {
	NumQubits     int
	Probabilities map[string]float64

	// Amplitudes is the final statevector; nil for density-kernel runs and
	// for trial-averaged noisy runs, where no single pure state exists.
	Amplitudes []complex128

	Kernel KernelID
	Noise  float64
	Trials int

	// Drift is the accumulated probability-mass drift that renormalization
	// corrected during evolution.
	Drift float64
}

// Run validates, schedules and simulates a circuit. With NoiseLevel == 0
// the result is exact and deterministic; with noise it follows the policy
// documented on the package.
func Run(ctx context.Context, c *circuit.Circuit, opts ...Option) (*Result, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return runPrefix(ctx, c, cfg, math.MaxInt)
}

// Timeline simulates every per-timestep snapshot: index 0 is the initial
// |0...0⟩ state, index k the state after timestep k-1. Each snapshot is an
// independent from-scratch run truncated at a schedule prefix, so snapshots
// share no mutable state; they are computed in parallel.
func Timeline(ctx context.Context, c *circuit.Circuit, opts ...Option) ([]*Result, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(cfg.maxQubits); err != nil {
		return nil, err
	}

	depth := c.Depth()
	results := make([]*Result, depth+1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := 0; t <= depth; t++ {
		t := t
		g.Go(func() error {
			r, err := runPrefix(ctx, c, cfg, t-1)
			if err != nil {
				return err
			}
			results[t] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runPrefix simulates ops with Timestep <= maxTimestep.
func runPrefix(ctx context.Context, c *circuit.Circuit, cfg *config, maxTimestep int) (*Result, error) {
	if err := c.Validate(cfg.maxQubits); err != nil {
		return nil, err
	}
	ops, err := circuit.Schedule(c)
	if err != nil {
		return nil, err
	}
	if maxTimestep != math.MaxInt {
		kept := ops[:0:0]
		for _, op := range ops {
			if op.Timestep <= maxTimestep {
				kept = append(kept, op)
			}
		}
		ops = kept
	}

	model := cfg.model
	if !cfg.hasModel {
		model = noise.Model{Depolarizing: circuit.NormalizeNoise(c.NoiseLevel)}
	}

	switch selectKernel(cfg, c.NumQubits, model.Depolarizing) {
	case Density:
		return runDensity(ctx, c.NumQubits, ops, model)
	default:
		return runStatevector(ctx, c.NumQubits, ops, model, cfg)
	}
}

func runStatevector(ctx context.Context, numQubits int, ops []circuit.Op, model noise.Model, cfg *config) (*Result, error) {
	trials := cfg.trials
	if !model.Enabled() {
		trials = 1
	}

	if trials == 1 {
		return statevectorTrajectory(ctx, numQubits, ops, model, cfg.seed)
	}

	// average independent trajectories; each owns an rng derived from the
	// base seed
	trajectories := make([]*Result, trials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < trials; i++ {
		i := i
		g.Go(func() error {
			r, err := statevectorTrajectory(ctx, numQubits, ops, model, cfg.seed+int64(i))
			if err != nil {
				return err
			}
			trajectories[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// accumulate in trial index order so a seeded run produces the same
	// float sums regardless of goroutine completion order
	agg := &Result{NumQubits: numQubits, Kernel: Statevector, Noise: model.Depolarizing, Trials: trials}
	sum := make(map[string]float64)
	for _, r := range trajectories {
		for state, p := range r.Probabilities {
			sum[state] += p
		}
		if r.Drift > agg.Drift {
			agg.Drift = r.Drift
		}
	}
	for state := range sum {
		sum[state] /= float64(trials)
	}
	agg.Probabilities = sum
	return agg, nil
}

func statevectorTrajectory(ctx context.Context, numQubits int, ops []circuit.Op, model noise.Model, seed int64) (*Result, error) {
	s, err := statevector.New(numQubits)
	if err != nil {
		return nil, err
	}
	traj := &noise.Trajectory{Model: model, Rng: rand.New(rand.NewSource(seed))}

	var after func(op circuit.Op) error
	if model.Enabled() {
		after = func(op circuit.Op) error {
			return traj.AfterGate(s, op.Qubits()...)
		}
	}

	drift, err := evolve(ctx, s, ops, after)
	if err != nil {
		return nil, err
	}
	s.Finalize()
	return &Result{
		NumQubits:     numQubits,
		Probabilities: s.Probabilities(),
		Amplitudes:    s.Amplitudes(),
		Kernel:        Statevector,
		Noise:         model.Depolarizing,
		Trials:        1,
		Drift:         drift,
	}, nil
}

func runDensity(ctx context.Context, numQubits int, ops []circuit.Op, model noise.Model) (*Result, error) {
	s, err := density.New(numQubits)
	if err != nil {
		return nil, err
	}
	after := func(op circuit.Op) error {
		for _, q := range op.Qubits() {
			if err := s.Depolarize(q, model.Depolarizing); err != nil {
				return err
			}
		}
		return nil
	}
	drift, err := evolve(ctx, s, ops, after)
	if err != nil {
		return nil, err
	}
	s.Finalize()
	return &Result{
		NumQubits:     numQubits,
		Probabilities: s.Probabilities(),
		Kernel:        Density,
		Noise:         model.Depolarizing,
		Trials:        1,
		Drift:         drift,
	}, nil
}

// evolve applies the scheduled operations in order. Measurements are
// deferred for probability reporting and skipped here; cancellation is
// checked cooperatively between timesteps.
func evolve(ctx context.Context, k Kernel, ops []circuit.Op, after func(op circuit.Op) error) (float64, error) {
	log := logger.Logger().With().Str("component", "simulator").Logger()

	totalDrift := 0.0
	lastTimestep := math.MinInt
	for _, op := range ops {
		if op.Timestep != lastTimestep {
			if err := ctx.Err(); err != nil {
				return totalDrift, err
			}
			lastTimestep = op.Timestep
		}
		if op.Measure {
			continue
		}
		if err := applyOp(k, op); err != nil {
			return totalDrift, err
		}
		if after != nil {
			if err := after(op); err != nil {
				return totalDrift, err
			}
			drift := k.Renormalize()
			totalDrift += drift
			if drift > driftTolerance {
				log.Warn().
					Float64("drift", drift).
					Int("timestep", op.Timestep).
					Msg("probability mass drift corrected by renormalization")
			}
		}
	}
	if after == nil {
		// noiseless runs renormalize once at the end; unitary evolution
		// only accumulates rounding error
		totalDrift = k.Renormalize()
		if totalDrift > driftTolerance {
			log.Warn().
				Float64("drift", totalDrift).
				Msg("probability mass drift corrected by renormalization")
		}
	}
	return totalDrift, nil
}

func applyOp(k Kernel, op circuit.Op) error {
	switch {
	case op.Measure:
		return nil
	case op.HasMat:
		return k.ApplySingle(op.Mat, op.Targets[0])
	case op.Gate == gate.CNOT || op.Gate == gate.CCNOT:
		return k.ApplyControlledX(op.Controls, op.Targets)
	case op.Gate == gate.CZ:
		return k.ApplyControlledZ(op.Controls, op.Targets)
	case op.Gate == gate.SWAP:
		return k.ApplySwap(op.Targets[0], op.Targets[1])
	default:
		return fmt.Errorf("%w: %s", gate.ErrUnsupportedGate, op.Gate)
	}
}
