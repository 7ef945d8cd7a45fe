package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/opengrow-box/growd/internal/types"
)

func dryState(tempC, rh float64) types.EnvironmentalState {
	return types.EnvironmentalState{
		Temperature: types.MetricOf(tempC),
		Humidity:    types.MetricOf(rh),
	}
}

func TestDryDayIndex(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		elapsed  time.Duration
		expected int
	}{
		{0, 1},
		{23 * time.Hour, 1},
		{25 * time.Hour, 2},
		{4*24*time.Hour + time.Hour, 5},
	}
	for _, tt := range tests {
		if got := DryDayIndex(start, start.Add(tt.elapsed)); got != tt.expected {
			t.Errorf("elapsed %v: expected day %d, got %d", tt.elapsed, tt.expected, got)
		}
	}
}

func TestElClassicoDayBuckets(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// Day 1 targets 20.0°C/62%: room at 21.5/65 is warm and wet.
	d, err := EvaluateDrying(types.ModeDryElClassico, start, start.Add(2*time.Hour), dryState(21.5, 65), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.DayIndex != 1 {
		t.Errorf("expected day 1, got %d", d.DayIndex)
	}
	if d.Temperature.Direction != types.DirReduce {
		t.Errorf("expected temperature reduce, got %s", d.Temperature.Direction)
	}
	if d.Humidity.Direction != types.DirReduce {
		t.Errorf("expected humidity reduce, got %s", d.Humidity.Direction)
	}

	// Day 6 falls in the 19.0/58 bucket; a room right on target holds.
	d, err = EvaluateDrying(types.ModeDryElClassico, start, start.Add(5*24*time.Hour+2*time.Hour), dryState(19.0, 58), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Temperature.Direction != types.DirNone || d.Humidity.Direction != types.DirNone {
		t.Errorf("expected hold on target, got temp=%s hum=%s", d.Temperature.Direction, d.Humidity.Direction)
	}
}

func TestFiveDayScheduleAndPlateau(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// Day 3 target is 20.0/54; a cold room heats up.
	d, err := EvaluateDrying(types.ModeDryFiveDay, start, start.Add(2*24*time.Hour+2*time.Hour), dryState(18.0, 54), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Temperature.Direction != types.DirIncrease {
		t.Errorf("expected temperature increase, got %s", d.Temperature.Direction)
	}

	// Past day 5 the final bucket holds rather than erroring.
	d, err = EvaluateDrying(types.ModeDryFiveDay, start, start.Add(9*24*time.Hour), dryState(18.0, 50), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Temperature.Direction != types.DirNone || d.Humidity.Direction != types.DirNone {
		t.Errorf("expected plateau hold, got temp=%s hum=%s", d.Temperature.Direction, d.Humidity.Direction)
	}
}

func TestDewBasedDrying(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(24 * time.Hour)

	// 20°C at 90% RH has a depression under 2°C: far below a 6°C target,
	// so the air must get drier.
	d, err := EvaluateDrying(types.ModeDryDewBased, start, now, dryState(20, 90), 6.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Humidity.Direction != types.DirReduce {
		t.Errorf("expected humidity reduce, got %s", d.Humidity.Direction)
	}
	if d.Temperature.Direction != types.DirNone {
		t.Errorf("dew-based mode should hold temperature, got %s", d.Temperature.Direction)
	}

	// 20°C at 30% RH has a depression well above 6°C: drying too hard.
	d, err = EvaluateDrying(types.ModeDryDewBased, start, now, dryState(20, 30), 6.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Humidity.Direction != types.DirIncrease {
		t.Errorf("expected humidity increase, got %s", d.Humidity.Direction)
	}
}

func TestDryingMissingInputsSkips(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(time.Hour)

	state := types.EnvironmentalState{Temperature: types.MetricOf(20)}
	if _, err := EvaluateDrying(types.ModeDryElClassico, start, now, state, 0); !errors.Is(err, types.ErrMissingMeasurement) {
		t.Errorf("expected ErrMissingMeasurement for missing humidity, got %v", err)
	}

	if _, err := EvaluateDrying(types.ModeDryElClassico, time.Time{}, now, dryState(20, 60), 0); !errors.Is(err, types.ErrMissingMeasurement) {
		t.Errorf("expected ErrMissingMeasurement for unset start, got %v", err)
	}

	if _, err := EvaluateDrying(types.ModeDryDewBased, start, now, dryState(20, 60), 0); !errors.Is(err, types.ErrMissingMeasurement) {
		t.Errorf("expected ErrMissingMeasurement for unset depression target, got %v", err)
	}
}

func TestNonDryingModeRejected(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := EvaluateDrying(types.ModeVPDPerfection, start, start, dryState(20, 60), 0); err == nil {
		t.Error("expected error for non-drying mode")
	}
}
