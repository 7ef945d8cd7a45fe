package engine

import (
	"fmt"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/envmath"
)

// Drying tolerance bands. Temperature and humidity are held inside these
// bands around the day's target.
const (
	dryTempTolerance = 0.5 // °C
	dryRHTolerance   = 2.0 // %RH
	depressionTol    = 0.5 // °C of dew-point spread
)

// dryDayTarget is one day-bucket's temperature and humidity target.
type dryDayTarget struct {
	throughDay int // inclusive upper bound of the bucket
	tempC      float64
	rh         float64
}

// ElClassico: slow classic dry, roughly 10 days of gently falling targets.
var elClassicoSchedule = []dryDayTarget{
	{throughDay: 2, tempC: 20.0, rh: 62},
	{throughDay: 4, tempC: 19.5, rh: 60},
	{throughDay: 7, tempC: 19.0, rh: 58},
	{throughDay: 10, tempC: 18.5, rh: 56},
}

// FiveDayDry: aggressive fixed 5-day schedule.
var fiveDaySchedule = []dryDayTarget{
	{throughDay: 1, tempC: 21.0, rh: 60},
	{throughDay: 2, tempC: 20.5, rh: 57},
	{throughDay: 3, tempC: 20.0, rh: 54},
	{throughDay: 4, tempC: 19.0, rh: 52},
	{throughDay: 5, tempC: 18.0, rh: 50},
}

// DryingDecision carries the per-axis verdicts for one drying cycle.
type DryingDecision struct {
	DayIndex    int      `json:"day_index"`
	Temperature Decision `json:"temperature"`
	Humidity    Decision `json:"humidity"`
}

// DryDayIndex computes the 1-based day of the dry from the recorded mode
// start timestamp.
func DryDayIndex(startedAt, now time.Time) int {
	d := int(now.Sub(startedAt).Hours()/24) + 1
	if d < 1 {
		d = 1
	}
	return d
}

func scheduleTarget(schedule []dryDayTarget, day int) dryDayTarget {
	for _, t := range schedule {
		if day <= t.throughDay {
			return t
		}
	}
	// Past the schedule: hold the final bucket.
	return schedule[len(schedule)-1]
}

func bandDecision(axis string, current, target, tolerance float64) Decision {
	switch {
	case current < target-tolerance:
		return Decision{
			Direction: types.DirIncrease,
			Reason:    fmt.Sprintf("%s %.1f below dry target %.1f", axis, current, target),
		}
	case current > target+tolerance:
		return Decision{
			Direction: types.DirReduce,
			Reason:    fmt.Sprintf("%s %.1f above dry target %.1f", axis, current, target),
		}
	default:
		return Decision{
			Direction: types.DirNone,
			Reason:    fmt.Sprintf("%s %.1f within dry band", axis, current),
		}
	}
}

// EvaluateDrying runs the drying-mode decision for the cycle. All three
// variants reduce to the same increase/reduce shape against a time-indexed
// target; only the target source differs.
func EvaluateDrying(mode types.ControlMode, startedAt, now time.Time, state types.EnvironmentalState, targetDepression float64) (DryingDecision, error) {
	if startedAt.IsZero() {
		return DryingDecision{}, fmt.Errorf("drying start timestamp unset: %w", types.ErrMissingMeasurement)
	}
	if !state.Temperature.Valid || !state.Humidity.Valid {
		return DryingDecision{}, fmt.Errorf("temperature or humidity unavailable: %w", types.ErrMissingMeasurement)
	}

	day := DryDayIndex(startedAt, now)
	out := DryingDecision{DayIndex: day}

	switch mode {
	case types.ModeDryElClassico, types.ModeDryFiveDay:
		schedule := elClassicoSchedule
		if mode == types.ModeDryFiveDay {
			schedule = fiveDaySchedule
		}
		target := scheduleTarget(schedule, day)
		out.Temperature = bandDecision("temperature", state.Temperature.Value, target.tempC, dryTempTolerance)
		out.Humidity = bandDecision("humidity", state.Humidity.Value, target.rh, dryRHTolerance)
		return out, nil

	case types.ModeDryDewBased:
		if targetDepression <= 0 {
			return DryingDecision{}, fmt.Errorf("dew-based drying needs a target depression: %w", types.ErrMissingMeasurement)
		}
		depression, err := envmath.DewPointDepression(state.Temperature.Value, state.Humidity.Value)
		if err != nil {
			return DryingDecision{}, fmt.Errorf("dew point depression: %w", err)
		}
		// Depression below target means the air is too moist: reduce
		// humidity to widen the spread. Above target means drying too hard.
		switch {
		case depression < targetDepression-depressionTol:
			out.Humidity = Decision{
				Direction: types.DirReduce,
				Reason:    fmt.Sprintf("depression %.1f below target %.1f", depression, targetDepression),
			}
		case depression > targetDepression+depressionTol:
			out.Humidity = Decision{
				Direction: types.DirIncrease,
				Reason:    fmt.Sprintf("depression %.1f above target %.1f", depression, targetDepression),
			}
		default:
			out.Humidity = Decision{
				Direction: types.DirNone,
				Reason:    fmt.Sprintf("depression %.1f within band", depression),
			}
		}
		out.Temperature = Decision{Direction: types.DirNone, Reason: "dew-based drying holds temperature"}
		return out, nil

	default:
		return DryingDecision{}, fmt.Errorf("mode %s is not a drying mode", mode)
	}
}
