package engine

import (
	"fmt"

	"github.com/opengrow-box/growd/internal/types"
)

// Light control defaults. Device-specific limits from configuration
// override the intensity bounds.
const (
	DefaultMinIntensity = 10.0  // percent
	DefaultMaxIntensity = 100.0 // percent
	LightStepPercent    = 1.0   // intensity change per cycle
	DLITolerance        = 0.05  // ±5% of target
)

// LightControl steps a dimmable light's intensity toward the stage's DLI
// target, one percent per cycle.
type LightControl struct {
	MinIntensity float64
	MaxIntensity float64
}

// NewLightControl builds a LightControl from configured limits, applying
// the 10–100% defaults where limits are unset.
func NewLightControl(minIntensity, maxIntensity float64) LightControl {
	lc := LightControl{MinIntensity: minIntensity, MaxIntensity: maxIntensity}
	if lc.MinIntensity <= 0 {
		lc.MinIntensity = DefaultMinIntensity
	}
	if lc.MaxIntensity <= 0 {
		lc.MaxIntensity = DefaultMaxIntensity
	}
	return lc
}

// Evaluate returns the new intensity for the light. Inside the ±5% band the
// intensity is returned unchanged, so repeated cycles at target are
// idempotent. While a sunrise/sunset transition is active the light belongs
// to the transition sequencer and no adjustment happens here.
func (lc LightControl) Evaluate(measuredDLI types.Metric, targetDLI, currentIntensity float64, transitionActive bool) (float64, bool, error) {
	if transitionActive {
		return currentIntensity, false, nil
	}
	if !measuredDLI.Valid {
		return currentIntensity, false, fmt.Errorf("dli unavailable: %w", types.ErrMissingMeasurement)
	}
	if targetDLI <= 0 {
		return currentIntensity, false, fmt.Errorf("dli target unset: %w", types.ErrMissingMeasurement)
	}

	next := currentIntensity
	switch {
	case measuredDLI.Value < targetDLI*(1-DLITolerance):
		next = currentIntensity + LightStepPercent
	case measuredDLI.Value > targetDLI*(1+DLITolerance):
		next = currentIntensity - LightStepPercent
	default:
		return currentIntensity, false, nil
	}

	if next > lc.MaxIntensity {
		next = lc.MaxIntensity
	}
	if next < lc.MinIntensity {
		next = lc.MinIntensity
	}
	if next == currentIntensity {
		return currentIntensity, false, nil
	}
	return next, true, nil
}
