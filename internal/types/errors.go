package types

import "errors"

// Error kinds used throughout the control pipeline. Callers match with
// errors.Is after wrapping.
var (
	// ErrMissingMeasurement means a required aggregated value is unavailable.
	// The cycle is skipped, not failed.
	ErrMissingMeasurement = errors.New("missing measurement")

	// ErrInvalidMeasurement means a value is outside its physically plausible
	// domain. The reading is discarded from aggregation.
	ErrInvalidMeasurement = errors.New("invalid measurement")

	// ErrStageResolution means no stage profile exists for the current plant
	// type and phase.
	ErrStageResolution = errors.New("stage resolution failed")

	// ErrActuatorCommand means dispatch to a device failed after bounded
	// retries.
	ErrActuatorCommand = errors.New("actuator command failed")

	// ErrConflictUnresolvable means the dampening resolver could not produce
	// any safe action from the cycle's intents.
	ErrConflictUnresolvable = errors.New("conflict unresolvable")
)
