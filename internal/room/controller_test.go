package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opengrow-box/growd/internal/actuators"
	"github.com/opengrow-box/growd/internal/calibration"
	"github.com/opengrow-box/growd/internal/events"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

type capturePublisher struct {
	mu   sync.Mutex
	cmds []types.ActuatorCommand
}

func (p *capturePublisher) Publish(_ context.Context, cmd types.ActuatorCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cmds = append(p.cmds, cmd)
	return nil
}

func (p *capturePublisher) commands() []types.ActuatorCommand {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.ActuatorCommand(nil), p.cmds...)
}

func testDevices() []actuators.Actuator {
	fan := actuators.FromConfig(config.ActuatorData{
		Name: "fan-1", Room: "tent-1", DeviceID: "fan-1", Enabled: true,
		Capabilities: []config.CapabilityData{{Name: string(types.CanExhaust)}},
	})
	hum := actuators.FromConfig(config.ActuatorData{
		Name: "hum-1", Room: "tent-1", DeviceID: "hum-1", Enabled: true,
		Capabilities: []config.CapabilityData{{Name: string(types.CanHumidify)}},
	})
	return []actuators.Actuator{fan, hum}
}

func testController(t *testing.T, cfg config.RoomData, pub *capturePublisher, devices []actuators.Actuator) (*Controller, *events.MemorySink, chan types.RoomSnapshot) {
	t.Helper()
	logger := zap.NewNop().Sugar()

	dispatcher, err := actuators.NewDispatcher(pub, nil, logger)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	t.Cleanup(dispatcher.Close)

	mem := events.NewMemorySink(16)
	emitter := events.NewEmitter(logger, mem)
	snapCh := make(chan types.RoomSnapshot, 4)

	c, err := NewController(cfg, devices, calibration.NewStore(), dispatcher, emitter,
		[]chan<- types.RoomSnapshot{snapCh}, logger)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, mem, snapCh
}

func feed(c *Controller, now time.Time, temp, rh float64) {
	c.ingest(types.SensorReading{
		SensorID: "sht45-1.temperature", Room: "tent-1",
		Context: types.ContextAir, Type: types.MeasureTemperature,
		RawValue: temp, Value: temp, Timestamp: now,
	})
	c.ingest(types.SensorReading{
		SensorID: "sht45-1.humidity", Room: "tent-1",
		Context: types.ContextAir, Type: types.MeasureHumidity,
		RawValue: rh, Value: rh, Timestamp: now,
	})
}

func growStart(now time.Time, daysAgo int) string {
	return now.AddDate(0, 0, -daysAgo).Format(dateLayout)
}

func TestCycleDispatchesOnHighVPD(t *testing.T) {
	now := time.Now()
	pub := &capturePublisher{}
	cfg := config.RoomData{
		Name: "tent-1", Enabled: true,
		PlantType: "cannabis", Phase: "photoperiod",
		GrowStart: growStart(now, 3), // week 1: vpd 0.40-0.80
		Mode:      string(types.ModeVPDPerfection),
	}
	c, mem, snapCh := testController(t, cfg, pub, testDevices())

	// 28°C / 40%RH is roughly 2.27 kPa, far above the week-1 range.
	feed(c, now, 28.0, 40.0)
	c.RunCycle(context.Background(), now)

	cmds := pub.commands()
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2 (exhaust + humidifier)", len(cmds))
	}
	byDev := map[string]types.ActuatorCommand{}
	for _, cmd := range cmds {
		byDev[cmd.DeviceID] = cmd
	}
	if byDev["fan-1"].Direction != types.DirReduce {
		t.Errorf("exhaust direction = %s, want reduce (lowering vpd)", byDev["fan-1"].Direction)
	}
	if byDev["hum-1"].Direction != types.DirIncrease {
		t.Errorf("humidifier direction = %s, want increase", byDev["hum-1"].Direction)
	}

	snap := <-snapCh
	if snap.Outcome != types.OutcomeDispatched {
		t.Errorf("snapshot outcome = %s, want dispatched", snap.Outcome)
	}
	if !snap.State.VPD.Valid || snap.State.VPD.Value < 2.0 {
		t.Errorf("snapshot vpd = %+v, want valid > 2.0", snap.State.VPD)
	}

	evs := mem.Recent("tent-1", 0)
	if len(evs) != 1 || evs[0].Outcome != types.OutcomeDispatched {
		t.Fatalf("events = %+v, want one dispatched event", evs)
	}
}

func TestCycleSkipsOnMissingHumidity(t *testing.T) {
	now := time.Now()
	pub := &capturePublisher{}
	cfg := config.RoomData{
		Name: "tent-1", Enabled: true,
		PlantType: "cannabis", Phase: "photoperiod",
		GrowStart: growStart(now, 3),
		Mode:      string(types.ModeVPDPerfection),
	}
	c, mem, _ := testController(t, cfg, pub, testDevices())

	c.ingest(types.SensorReading{
		SensorID: "sht45-1.temperature", Room: "tent-1",
		Context: types.ContextAir, Type: types.MeasureTemperature,
		RawValue: 25, Value: 25, Timestamp: now,
	})
	c.RunCycle(context.Background(), now)

	if cmds := pub.commands(); len(cmds) != 0 {
		t.Fatalf("missing humidity must not dispatch, got %d commands", len(cmds))
	}
	evs := mem.Recent("tent-1", 0)
	if len(evs) != 1 || evs[0].Outcome != types.OutcomeSkipped {
		t.Fatalf("events = %+v, want one skipped event", evs)
	}
}

func TestEmergencyBoundActsWithoutVPD(t *testing.T) {
	now := time.Now()
	pub := &capturePublisher{}
	cooler := actuators.FromConfig(config.ActuatorData{
		Name: "ac-1", Room: "tent-1", DeviceID: "ac-1", Enabled: true,
		Capabilities: []config.CapabilityData{{Name: string(types.CanCool)}},
	})
	cfg := config.RoomData{
		Name: "tent-1", Enabled: true,
		PlantType: "cannabis", Phase: "photoperiod",
		GrowStart:        growStart(now, 3),
		Mode:             string(types.ModeVPDPerfection),
		EmergencyTempMax: 32,
	}
	c, _, snapCh := testController(t, cfg, pub, []actuators.Actuator{cooler})

	// Temperature present and over the limit, humidity missing: the VPD
	// evaluation fails but the emergency intents must still dispatch.
	c.ingest(types.SensorReading{
		SensorID: "sht45-1.temperature", Room: "tent-1",
		Context: types.ContextAir, Type: types.MeasureTemperature,
		RawValue: 35, Value: 35, Timestamp: now,
	})
	c.RunCycle(context.Background(), now)

	cmds := pub.commands()
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1 (cooler)", len(cmds))
	}
	if cmds[0].DeviceID != "ac-1" || cmds[0].Direction != types.DirIncrease {
		t.Errorf("command = %+v, want ac-1 increase", cmds[0])
	}
	snap := <-snapCh
	if snap.Outcome != types.OutcomeDispatched {
		t.Errorf("outcome = %s, want dispatched", snap.Outcome)
	}
}

func TestDisabledModeSynchronized(t *testing.T) {
	now := time.Now()
	pub := &capturePublisher{}
	cfg := config.RoomData{Name: "tent-1", Enabled: true, Mode: string(types.ModeDisabled)}
	c, mem, _ := testController(t, cfg, pub, testDevices())

	feed(c, now, 28.0, 40.0)
	c.RunCycle(context.Background(), now)

	if cmds := pub.commands(); len(cmds) != 0 {
		t.Fatalf("disabled mode dispatched %d commands", len(cmds))
	}
	evs := mem.Recent("tent-1", 0)
	if len(evs) != 1 || evs[0].Outcome != types.OutcomeSynchronized {
		t.Fatalf("events = %+v, want one synchronized event", evs)
	}
}

func TestStaleReadingsBecomeUnavailable(t *testing.T) {
	now := time.Now()
	pub := &capturePublisher{}
	cfg := config.RoomData{
		Name: "tent-1", Enabled: true,
		PlantType: "cannabis", Phase: "photoperiod",
		GrowStart: growStart(now, 3),
		Mode:      string(types.ModeVPDPerfection),
	}
	c, mem, _ := testController(t, cfg, pub, testDevices())

	feed(c, now.Add(-10*time.Minute), 28.0, 40.0)
	c.RunCycle(context.Background(), now)

	if cmds := pub.commands(); len(cmds) != 0 {
		t.Fatalf("stale readings dispatched %d commands", len(cmds))
	}
	evs := mem.Recent("tent-1", 0)
	if len(evs) != 1 || evs[0].Outcome != types.OutcomeSkipped {
		t.Fatalf("events = %+v, want one skipped event", evs)
	}
}

func TestDryingModeCommands(t *testing.T) {
	now := time.Now()
	pub := &capturePublisher{}
	dehu := actuators.FromConfig(config.ActuatorData{
		Name: "dehu-1", Room: "tent-1", DeviceID: "dehu-1", Enabled: true,
		Capabilities: []config.CapabilityData{{Name: string(types.CanDehumidify)}},
	})
	cfg := config.RoomData{
		Name: "tent-1", Enabled: true,
		Mode:     string(types.ModeDryElClassico),
		DryStart: growStart(now, 1), // day 2: 20.0°C / 62%RH
	}
	c, _, _ := testController(t, cfg, pub, []actuators.Actuator{dehu})

	// 20°C on target, humidity well above the 62% day target.
	feed(c, now, 20.0, 70.0)
	c.RunCycle(context.Background(), now)

	cmds := pub.commands()
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1 (dehumidifier)", len(cmds))
	}
	if cmds[0].DeviceID != "dehu-1" || cmds[0].Direction != types.DirIncrease {
		t.Errorf("command = %+v, want dehu-1 increase", cmds[0])
	}
}

func TestSnapshotExposesLatestCycle(t *testing.T) {
	now := time.Now()
	pub := &capturePublisher{}
	cfg := config.RoomData{Name: "tent-1", Enabled: true, Mode: string(types.ModeDisabled)}
	c, _, _ := testController(t, cfg, pub, nil)

	if c.Snapshot() != nil {
		t.Fatal("snapshot before first cycle must be nil")
	}
	feed(c, now, 24.0, 60.0)
	c.RunCycle(context.Background(), now)

	snap := c.Snapshot()
	if snap == nil {
		t.Fatal("snapshot missing after cycle")
	}
	if !snap.State.Temperature.Valid || snap.State.Temperature.Value != 24.0 {
		t.Errorf("temperature = %+v", snap.State.Temperature)
	}
}
