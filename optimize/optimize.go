// Package optimize rewrites a circuit description into an equivalent one
// with fewer gates. The passes are peephole transforms over per-qubit gate
// sequences; multi-qubit gates and measurements act as barriers, so every
// rewrite preserves the simulated distribution (global phase excepted).
package optimize

import (
	"math"
	"sort"

	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/gate"
	"github.com/quarclab/quarc/logger"
)

// Levels. Level 0 is a no-op pass-through.
const (
	// LevelCancel removes identity gates and adjacent inverse pairs.
	LevelCancel = 1
	// LevelFuse additionally merges adjacent same-axis rotations.
	LevelFuse = 2
)

// DefaultLevel is applied when a request names none.
const DefaultLevel = LevelFuse

// fuseEpsilon is the angle below which a fused rotation is dropped; 2π
// rotations differ from identity only by global phase.
const fuseEpsilon = 1e-12

// Result pairs the rewritten circuit with its gate accounting.
type Result struct {
	Circuit            *circuit.Circuit `json:"circuit"`
	OriginalGateCount  int              `json:"originalGateCount"`
	OptimizedGateCount int              `json:"optimizedGateCount"`
	RemovedCount       int              `json:"removedCount"`
	Level              int              `json:"level"`
}

// event is one occupant of a qubit's wire, ordered by timestep.
type event struct {
	timestep int
	barrier  bool

	key string
	g   circuit.SingleGate
}

// Optimize rewrites c at the given level. The input circuit is not
// modified; timesteps of surviving gates are preserved, so the layout stays
// recognizable in the editor.
func Optimize(c *circuit.Circuit, level int) (*Result, error) {
	if err := c.Validate(circuit.StructuralMaxQubits); err != nil {
		return nil, err
	}
	if level > LevelFuse {
		level = LevelFuse
	}

	res := &Result{
		OriginalGateCount: c.GateCount(),
		Level:             level,
	}
	if level < LevelCancel {
		res.Circuit = c
		res.OptimizedGateCount = res.OriginalGateCount
		return res, nil
	}

	kept := make(map[string]circuit.SingleGate)
	for q := 0; q < c.NumQubits; q++ {
		for _, e := range reduceWire(wireEvents(c, q), level) {
			kept[e.key] = e.g
		}
	}

	out := &circuit.Circuit{
		NumQubits:    c.NumQubits,
		NumClassical: c.NumClassical,
		NumTimesteps: c.NumTimesteps,
		NoiseLevel:   c.NoiseLevel,
		Gates:        kept,
		MultiGates:   append([]circuit.MultiGate(nil), c.MultiGates...),
		Measurements: append([]circuit.Measurement(nil), c.Measurements...),
	}

	res.Circuit = out
	res.OptimizedGateCount = out.GateCount()
	res.RemovedCount = res.OriginalGateCount - res.OptimizedGateCount

	if res.RemovedCount > 0 {
		log := logger.Logger()
		log.Debug().
			Int("level", level).
			Int("removed", res.RemovedCount).
			Int("remaining", res.OptimizedGateCount).
			Msg("circuit optimized")
	}
	return res, nil
}

// wireEvents collects qubit q's single gates plus barrier markers for every
// multi gate or measurement touching q, sorted by timestep. Slot uniqueness
// is already validated, so the order is total.
func wireEvents(c *circuit.Circuit, q int) []event {
	var events []event
	for key, g := range c.Gates {
		if g.Qubit == q {
			events = append(events, event{timestep: g.Timestep, key: key, g: g})
		}
	}
	for _, g := range c.MultiGates {
		if touches(g, q) {
			events = append(events, event{timestep: g.Timestep, barrier: true})
		}
	}
	for _, m := range c.Measurements {
		if m.Qubit == q {
			events = append(events, event{timestep: m.Timestep, barrier: true})
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].timestep < events[j].timestep })
	return events
}

func touches(g circuit.MultiGate, q int) bool {
	for _, c := range g.Controls {
		if c == q {
			return true
		}
	}
	for _, t := range g.Targets {
		if t == q {
			return true
		}
	}
	return false
}

// reduceWire runs the peephole stack over one qubit's events and returns
// the surviving gate events.
func reduceWire(events []event, level int) []event {
	var out []event
	var stack []event

	flush := func() {
		out = append(out, stack...)
		stack = stack[:0]
	}

	for _, e := range events {
		if e.barrier {
			flush()
			continue
		}
		if e.g.Kind == gate.I {
			continue
		}
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			if cancels(top.g, e.g) {
				stack = stack[:len(stack)-1]
				continue
			}
			if level >= LevelFuse && e.g.Kind.IsParametric() && top.g.Kind == e.g.Kind {
				theta := fuseAngle(*top.g.Theta + *e.g.Theta)
				if math.Abs(theta) < fuseEpsilon {
					stack = stack[:len(stack)-1]
				} else {
					top.g.Theta = &theta
				}
				continue
			}
		}
		stack = append(stack, e)
	}
	flush()
	return out
}

// cancels reports whether b undoes a exactly. Parametric kinds cancel only
// through fusion, where the combined angle is inspected.
func cancels(a, b circuit.SingleGate) bool {
	if a.Kind.IsParametric() || b.Kind.IsParametric() {
		return false
	}
	inv, ok := a.Kind.Inverse()
	return ok && inv == b.Kind
}

// fuseAngle folds a summed rotation angle into (-2π, 2π] and snaps
// full-turn multiples to zero; a 2π rotation is identity up to global
// phase, which no probability can observe.
func fuseAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if math.Abs(theta) < fuseEpsilon || math.Abs(math.Abs(theta)-2*math.Pi) < fuseEpsilon {
		return 0
	}
	return theta
}
