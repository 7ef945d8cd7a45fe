// Package aggregate combines calibrated readings from multiple same-type
// sensors into one measurement per (context, measurement type) pair.
//
// Sensors of the same type are averaged with equal weight. That is
// deliberate: per-sensor weighting adds configuration surface without a
// demonstrated accuracy win in small rooms.
package aggregate

import (
	"math"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"gonum.org/v1/gonum/stat"
)

// plausible reports whether a calibrated value is inside the physically
// plausible domain for its measurement type. Values outside are discarded
// from aggregation, never fatal.
func plausible(t types.MeasurementType, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	switch t {
	case types.MeasureTemperature:
		return v > -273.15 && v < 100
	case types.MeasureHumidity, types.MeasureMoisture:
		return v >= 0 && v <= 100
	case types.MeasureCO2, types.MeasurePPFD, types.MeasureLux, types.MeasureEC:
		return v >= 0
	case types.MeasurePH:
		return v >= 0 && v <= 14
	default:
		return true
	}
}

// Aggregate computes the equal-weight mean of all valid readings matching
// the given context and measurement type. A result with SampleCount zero
// means the measurement is unavailable this cycle; callers must skip the
// dependent control decision rather than default the value.
func Aggregate(readings []types.SensorReading, ctx types.SensorContext, mt types.MeasurementType, now time.Time) types.AggregatedMeasurement {
	var values []float64
	for _, r := range readings {
		if r.Context != ctx || r.Type != mt {
			continue
		}
		if !plausible(mt, r.Value) {
			continue
		}
		values = append(values, r.Value)
	}

	out := types.AggregatedMeasurement{
		Type:        mt,
		Context:     ctx,
		SampleCount: len(values),
		Timestamp:   now,
	}
	if len(values) == 0 {
		return out
	}
	out.Value = stat.Mean(values, nil)
	return out
}

// Metric converts an aggregated measurement into a Metric, invalid when the
// aggregation had no samples.
func Metric(a types.AggregatedMeasurement) types.Metric {
	if a.Unavailable() {
		return types.Metric{}
	}
	return types.MetricOf(a.Value)
}
