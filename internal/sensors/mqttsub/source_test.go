package mqttsub

import (
	"testing"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

func testSource() *Source {
	return &Source{
		config: config.SensorData{
			Name:    "tent1-mqtt",
			Room:    "tent-1",
			Context: "air",
		},
		logger: zap.NewNop().Sugar(),
	}
}

func TestDecodePacket(t *testing.T) {
	s := testSource()
	payload := []byte(`{"sensor_id":"scd41-1","type":"co2","value":812.5,"timestamp":"2026-03-10T08:30:00Z"}`)

	reading, err := s.decodePacket(payload)
	if err != nil {
		t.Fatalf("decodePacket: %v", err)
	}
	if reading.SensorID != "scd41-1" || reading.Room != "tent-1" {
		t.Errorf("identity = %s/%s", reading.SensorID, reading.Room)
	}
	if reading.Type != types.MeasureCO2 || reading.RawValue != 812.5 {
		t.Errorf("measurement = %s %v", reading.Type, reading.RawValue)
	}
	if reading.Context != types.ContextAir {
		t.Errorf("context = %s, want air (source default)", reading.Context)
	}
	want := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	if !reading.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", reading.Timestamp, want)
	}
}

func TestDecodePacketDefaultsTimestamp(t *testing.T) {
	s := testSource()
	before := time.Now()
	reading, err := s.decodePacket([]byte(`{"sensor_id":"sht45-1","type":"humidity","value":58.2}`))
	if err != nil {
		t.Fatalf("decodePacket: %v", err)
	}
	if reading.Timestamp.Before(before) {
		t.Error("missing timestamp should default to receipt time")
	}
}

func TestDecodePacketRejectsIncomplete(t *testing.T) {
	s := testSource()
	bad := []string{
		`not json`,
		`{"type":"co2","value":800}`,
		`{"sensor_id":"x","value":800}`,
		`{"sensor_id":"x","type":"co2"}`,
		`{"sensor_id":"x","type":"co2","value":800,"timestamp":"yesterday"}`,
	}
	for _, payload := range bad {
		if _, err := s.decodePacket([]byte(payload)); err == nil {
			t.Errorf("payload %q should fail to decode", payload)
		}
	}
}

func TestDecodePacketExplicitContextWins(t *testing.T) {
	s := testSource()
	reading, err := s.decodePacket([]byte(`{"sensor_id":"ph-1","context":"water","type":"ph","value":6.1}`))
	if err != nil {
		t.Fatalf("decodePacket: %v", err)
	}
	if reading.Context != types.ContextWater {
		t.Errorf("context = %s, want water", reading.Context)
	}
}
