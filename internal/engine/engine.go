// Package engine implements the per-cycle control decisions: VPD range
// control, DLI light stepping, and drying-mode evaluation.
//
// The engine never substitutes defaults for missing inputs. A missing
// measurement or target makes the evaluation return ErrMissingMeasurement
// and the caller skips the cycle for that axis.
package engine

import (
	"fmt"
	"math"

	"github.com/opengrow-box/growd/internal/types"
)

// VPDEpsilon is the band around the perfection target treated as "at
// target". Exact float equality is unreachable in practice, so the
// at-target state uses this tolerance instead.
const VPDEpsilon = 0.005 // kPa

// Decision is the engine's directional verdict for one control axis.
type Decision struct {
	Direction types.Direction `json:"direction"`
	Reason    string          `json:"reason"`
}

// EvaluateVPD compares the measured VPD against a target band and returns
// the directional decision. Used by both VPD-Perfection and VPD-Target
// modes; they differ only in how the target was derived.
//
// State machine: below range → increase, above range → reduce, in range but
// off target → fine-tune, at target → none.
func EvaluateVPD(current types.Metric, target types.ControlTarget) (Decision, error) {
	if !current.Valid {
		return Decision{}, fmt.Errorf("vpd unavailable: %w", types.ErrMissingMeasurement)
	}
	if target.Min >= target.Max {
		return Decision{}, fmt.Errorf("vpd target band [%.3f, %.3f] invalid: %w", target.Min, target.Max, types.ErrMissingMeasurement)
	}

	v := current.Value
	switch {
	case v < target.Min:
		return Decision{
			Direction: types.DirIncrease,
			Reason:    fmt.Sprintf("vpd %.3f below range min %.3f", v, target.Min),
		}, nil
	case v > target.Max:
		return Decision{
			Direction: types.DirReduce,
			Reason:    fmt.Sprintf("vpd %.3f above range max %.3f", v, target.Max),
		}, nil
	case math.Abs(v-target.Target) <= VPDEpsilon:
		return Decision{
			Direction: types.DirNone,
			Reason:    fmt.Sprintf("vpd %.3f at target %.3f", v, target.Target),
		}, nil
	default:
		dir := types.DirFineTune
		return Decision{
			Direction: dir,
			Reason:    fmt.Sprintf("vpd %.3f in range, off target %.3f", v, target.Target),
		}, nil
	}
}

// FineTuneDirection tells the dampening resolver which way a fine-tune
// decision should nudge: toward the target.
func FineTuneDirection(current types.Metric, target types.ControlTarget) types.Direction {
	if !current.Valid {
		return types.DirNone
	}
	if current.Value < target.Target {
		return types.DirIncrease
	}
	return types.DirReduce
}
