package engine

import (
	"errors"
	"testing"

	"github.com/opengrow-box/growd/internal/types"
)

func TestLightControlStepsTowardTarget(t *testing.T) {
	lc := NewLightControl(0, 0)

	// Under target by more than 5%: step up 1%.
	next, changed, err := lc.Evaluate(types.MetricOf(30), 40, 50, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || next != 51 {
		t.Errorf("expected step to 51, got %.1f (changed=%v)", next, changed)
	}

	// Over target by more than 5%: step down 1%.
	next, changed, err = lc.Evaluate(types.MetricOf(45), 40, 50, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || next != 49 {
		t.Errorf("expected step to 49, got %.1f (changed=%v)", next, changed)
	}
}

func TestLightControlIdempotentAtTarget(t *testing.T) {
	lc := NewLightControl(0, 0)

	// Within ±5% of target: repeated cycles must not move the intensity.
	intensity := 62.0
	for i := 0; i < 20; i++ {
		next, changed, err := lc.Evaluate(types.MetricOf(40.5), 40, intensity, false)
		if err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}
		if changed || next != intensity {
			t.Fatalf("cycle %d: intensity moved to %.1f inside tolerance band", i, next)
		}
	}
}

func TestLightControlClamping(t *testing.T) {
	lc := NewLightControl(20, 80)

	// Many consecutive increase cycles never exceed the configured max.
	intensity := 78.0
	for i := 0; i < 50; i++ {
		next, _, err := lc.Evaluate(types.MetricOf(10), 40, intensity, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next > 80 {
			t.Fatalf("intensity %.1f exceeded max 80", next)
		}
		intensity = next
	}
	if intensity != 80 {
		t.Errorf("expected intensity pinned at 80, got %.1f", intensity)
	}

	// And decrease cycles never go below the min.
	intensity = 22.0
	for i := 0; i < 50; i++ {
		next, _, err := lc.Evaluate(types.MetricOf(90), 40, intensity, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next < 20 {
			t.Fatalf("intensity %.1f fell below min 20", next)
		}
		intensity = next
	}
	if intensity != 20 {
		t.Errorf("expected intensity pinned at 20, got %.1f", intensity)
	}
}

func TestLightControlDefaults(t *testing.T) {
	lc := NewLightControl(0, 0)
	if lc.MinIntensity != 10 || lc.MaxIntensity != 100 {
		t.Errorf("expected default limits 10–100, got %.0f–%.0f", lc.MinIntensity, lc.MaxIntensity)
	}
}

func TestLightControlSuspendedDuringTransition(t *testing.T) {
	lc := NewLightControl(0, 0)

	// During a sunrise/sunset ramp the DLI controller must not touch the
	// light even when far off target.
	next, changed, err := lc.Evaluate(types.MetricOf(5), 40, 50, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed || next != 50 {
		t.Errorf("expected no change during transition, got %.1f", next)
	}
}

func TestLightControlMissingDLI(t *testing.T) {
	lc := NewLightControl(0, 0)

	_, _, err := lc.Evaluate(types.Metric{}, 40, 50, false)
	if !errors.Is(err, types.ErrMissingMeasurement) {
		t.Errorf("expected ErrMissingMeasurement, got %v", err)
	}

	_, _, err = lc.Evaluate(types.MetricOf(30), 0, 50, false)
	if !errors.Is(err, types.ErrMissingMeasurement) {
		t.Errorf("expected ErrMissingMeasurement for unset target, got %v", err)
	}
}
