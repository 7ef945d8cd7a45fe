package serialbridge

import (
	"encoding/json"
	"testing"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

func testSource() *Source {
	return &Source{
		config: config.SensorData{Name: "bridge-1", Room: "tent-1"},
		logger: zap.NewNop().Sugar(),
	}
}

func TestConvertToReadingsSkipsAbsentFields(t *testing.T) {
	s := testSource()
	var pkt bridgePacket
	if err := json.Unmarshal([]byte(`{"temp_c":23.8,"rh":57.5}`), &pkt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	readings := s.convertToReadings(pkt)
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}
	byType := map[types.MeasurementType]types.SensorReading{}
	for _, r := range readings {
		byType[r.Type] = r
	}
	if r := byType[types.MeasureTemperature]; r.RawValue != 23.8 || r.Context != types.ContextAir {
		t.Errorf("temperature reading = %+v", r)
	}
	if r := byType[types.MeasureHumidity]; r.RawValue != 57.5 {
		t.Errorf("humidity reading = %+v", r)
	}
}

func TestConvertToReadingsContexts(t *testing.T) {
	s := testSource()
	var pkt bridgePacket
	line := `{"ppfd":612,"soil_pct":41.2,"ph":6.2,"ec":1.8,"co2_ppm":0}`
	if err := json.Unmarshal([]byte(line), &pkt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	readings := s.convertToReadings(pkt)
	want := map[types.MeasurementType]types.SensorContext{
		types.MeasurePPFD:     types.ContextLight,
		types.MeasureMoisture: types.ContextSoil,
		types.MeasurePH:       types.ContextWater,
		types.MeasureEC:       types.ContextWater,
		types.MeasureCO2:      types.ContextAir,
	}
	if len(readings) != len(want) {
		t.Fatalf("got %d readings, want %d", len(readings), len(want))
	}
	for _, r := range readings {
		if ctx, ok := want[r.Type]; !ok || r.Context != ctx {
			t.Errorf("%s: context = %s, want %s", r.Type, r.Context, ctx)
		}
		if r.Room != "tent-1" || r.SensorID == "" {
			t.Errorf("%s: identity = %s/%s", r.Type, r.SensorID, r.Room)
		}
	}
	// An explicit zero is still a reading; only absence is skipped.
	for _, r := range readings {
		if r.Type == types.MeasureCO2 && r.RawValue != 0 {
			t.Errorf("explicit zero CO2 lost: %v", r.RawValue)
		}
	}
}
