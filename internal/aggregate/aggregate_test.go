package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/opengrow-box/growd/internal/types"
)

func reading(id string, ctx types.SensorContext, mt types.MeasurementType, v float64) types.SensorReading {
	return types.SensorReading{
		SensorID:  id,
		Context:   ctx,
		Type:      mt,
		Value:     v,
		Timestamp: time.Now(),
	}
}

func TestAggregateEqualWeightMean(t *testing.T) {
	readings := []types.SensorReading{
		reading("t1", types.ContextAir, types.MeasureTemperature, 24.0),
		reading("t2", types.ContextAir, types.MeasureTemperature, 25.0),
		reading("t3", types.ContextAir, types.MeasureTemperature, 26.0),
	}

	got := Aggregate(readings, types.ContextAir, types.MeasureTemperature, time.Now())
	if got.SampleCount != 3 {
		t.Fatalf("expected 3 samples, got %d", got.SampleCount)
	}
	if math.Abs(got.Value-25.0) > 1e-9 {
		t.Errorf("expected mean 25.0, got %.4f", got.Value)
	}
}

func TestAggregateFiltersOtherContextsAndTypes(t *testing.T) {
	readings := []types.SensorReading{
		reading("air-t", types.ContextAir, types.MeasureTemperature, 24.0),
		reading("water-t", types.ContextWater, types.MeasureTemperature, 19.0),
		reading("air-rh", types.ContextAir, types.MeasureHumidity, 60.0),
	}

	got := Aggregate(readings, types.ContextAir, types.MeasureTemperature, time.Now())
	if got.SampleCount != 1 {
		t.Fatalf("expected 1 sample, got %d", got.SampleCount)
	}
	if got.Value != 24.0 {
		t.Errorf("expected 24.0, got %.2f", got.Value)
	}
}

func TestAggregateDiscardsImplausibleValues(t *testing.T) {
	readings := []types.SensorReading{
		reading("rh1", types.ContextAir, types.MeasureHumidity, 58.0),
		reading("rh2", types.ContextAir, types.MeasureHumidity, math.NaN()),
		reading("rh3", types.ContextAir, types.MeasureHumidity, -5.0),
		reading("rh4", types.ContextAir, types.MeasureHumidity, 140.0),
	}

	got := Aggregate(readings, types.ContextAir, types.MeasureHumidity, time.Now())
	if got.SampleCount != 1 {
		t.Fatalf("expected only the plausible sample, got %d", got.SampleCount)
	}
	if got.Value != 58.0 {
		t.Errorf("expected 58.0, got %.2f", got.Value)
	}
}

func TestAggregateNoValidReadingsIsUnavailable(t *testing.T) {
	readings := []types.SensorReading{
		reading("rh1", types.ContextAir, types.MeasureHumidity, math.NaN()),
	}

	got := Aggregate(readings, types.ContextAir, types.MeasureHumidity, time.Now())
	if !got.Unavailable() {
		t.Fatal("expected unavailable result")
	}
	if got.Value != 0 {
		t.Errorf("unavailable measurement must not carry a value, got %.2f", got.Value)
	}

	// Downstream must see an invalid metric, never a propagated zero.
	m := Metric(got)
	if m.Valid {
		t.Error("metric of an unavailable aggregation must be invalid")
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	got := Aggregate(nil, types.ContextAir, types.MeasureTemperature, time.Now())
	if !got.Unavailable() {
		t.Error("expected unavailable result for no readings at all")
	}
}
