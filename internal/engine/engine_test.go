package engine

import (
	"errors"
	"testing"

	"github.com/opengrow-box/growd/internal/types"
)

func perfectionTarget() types.ControlTarget {
	return types.ControlTarget{
		Mode:   types.ModeVPDPerfection,
		Target: 1.2,
		Min:    1.0,
		Max:    1.4,
	}
}

func TestEvaluateVPDBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		expected types.Direction
	}{
		{"below range", 0.9, types.DirIncrease},
		{"above range", 1.5, types.DirReduce},
		{"at target", 1.2, types.DirNone},
		{"in range below target", 1.1, types.DirFineTune},
		{"in range above target", 1.3, types.DirFineTune},
		{"exactly at min", 1.0, types.DirFineTune},
		{"exactly at max", 1.4, types.DirFineTune},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := EvaluateVPD(types.MetricOf(tt.current), perfectionTarget())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Direction != tt.expected {
				t.Errorf("current=%.2f: expected %s, got %s", tt.current, tt.expected, d.Direction)
			}
		})
	}
}

func TestEvaluateVPDEpsilon(t *testing.T) {
	// Values within the epsilon of the target count as at-target; exact
	// float equality would never fire in practice.
	d, err := EvaluateVPD(types.MetricOf(1.2003), perfectionTarget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Direction != types.DirNone {
		t.Errorf("value inside epsilon should be at-target, got %s", d.Direction)
	}

	d, err = EvaluateVPD(types.MetricOf(1.21), perfectionTarget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Direction != types.DirFineTune {
		t.Errorf("value outside epsilon should fine-tune, got %s", d.Direction)
	}
}

func TestEvaluateVPDMissingInput(t *testing.T) {
	_, err := EvaluateVPD(types.Metric{}, perfectionTarget())
	if !errors.Is(err, types.ErrMissingMeasurement) {
		t.Errorf("expected ErrMissingMeasurement for invalid metric, got %v", err)
	}

	_, err = EvaluateVPD(types.MetricOf(1.2), types.ControlTarget{Min: 1.4, Max: 1.0})
	if !errors.Is(err, types.ErrMissingMeasurement) {
		t.Errorf("expected ErrMissingMeasurement for inverted band, got %v", err)
	}
}

func TestFineTuneDirection(t *testing.T) {
	target := perfectionTarget()
	if d := FineTuneDirection(types.MetricOf(1.1), target); d != types.DirIncrease {
		t.Errorf("below target should nudge up, got %s", d)
	}
	if d := FineTuneDirection(types.MetricOf(1.3), target); d != types.DirReduce {
		t.Errorf("above target should nudge down, got %s", d)
	}
}
