package dampening

import (
	"testing"
	"time"

	"github.com/opengrow-box/growd/internal/actuators"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func testDevice(id string, cooldownSec int, caps ...types.Capability) actuators.Actuator {
	data := config.ActuatorData{
		Name:     id,
		Room:     "tent-1",
		DeviceID: id,
		Enabled:  true,
	}
	for _, c := range caps {
		data.Capabilities = append(data.Capabilities, config.CapabilityData{
			Name:            string(c),
			CooldownSeconds: cooldownSec,
		})
	}
	return actuators.FromConfig(data)
}

func TestFanOutVPDIncrease(t *testing.T) {
	intents := FanOutVPD(types.DirIncrease, 1.0, "vpd below range")
	want := map[types.Capability]types.Direction{
		types.CanExhaust:    types.DirIncrease,
		types.CanDehumidify: types.DirIncrease,
		types.CanHumidify:   types.DirReduce,
		types.CanHeat:       types.DirIncrease,
		types.CanCool:       types.DirReduce,
		types.CanIntake:     types.DirReduce,
	}
	if len(intents) != len(want) {
		t.Fatalf("got %d intents, want %d", len(intents), len(want))
	}
	for _, in := range intents {
		dir, ok := want[in.Capability]
		if !ok {
			t.Errorf("unexpected capability %s", in.Capability)
			continue
		}
		if in.Direction != dir {
			t.Errorf("%s: direction = %s, want %s", in.Capability, in.Direction, dir)
		}
		if in.Axis != types.AxisVPD {
			t.Errorf("%s: axis = %s, want vpd", in.Capability, in.Axis)
		}
	}
}

func TestFanOutVPDReduceMirrorsIncrease(t *testing.T) {
	up := FanOutVPD(types.DirIncrease, 1.0, "test")
	down := FanOutVPD(types.DirReduce, 1.0, "test")
	if len(up) != len(down) {
		t.Fatalf("asymmetric fan-out: %d vs %d", len(up), len(down))
	}
	for i := range up {
		if up[i].Capability != down[i].Capability {
			t.Fatalf("capability order differs at %d", i)
		}
		if opposite(up[i].Direction) != down[i].Direction {
			t.Errorf("%s: reduce direction %s is not the mirror of %s",
				up[i].Capability, down[i].Direction, up[i].Direction)
		}
	}
}

func TestFanOutIgnoresNonDirectional(t *testing.T) {
	if got := FanOutVPD(types.DirNone, 1.0, "x"); got != nil {
		t.Errorf("FanOutVPD(none) = %v, want nil", got)
	}
	if got := FanOutTemperature(types.DirFineTune, types.PriorityPrimary, "x"); got != nil {
		t.Errorf("FanOutTemperature(finetune) = %v, want nil", got)
	}
}

func TestResolvePriorityPrecedence(t *testing.T) {
	r := NewResolver("tent-1", DefaultWeights(), NewCooldownTracker(), testLogger())
	dev := testDevice("heater-1", 0, types.CanHeat)

	intents := []types.ActionIntent{
		{Capability: types.CanHeat, Direction: types.DirIncrease, Axis: types.AxisVPD, Magnitude: 1.0, Priority: types.PriorityDerived},
		{Capability: types.CanHeat, Direction: types.DirReduce, Axis: types.AxisTemperature, Magnitude: 1.0, Priority: types.PriorityEmergency},
	}
	res := r.Resolve(intents, []actuators.Actuator{dev}, time.Now())
	if len(res.Commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(res.Commands))
	}
	if res.Commands[0].Direction != types.DirReduce {
		t.Errorf("emergency intent lost: direction = %s, want reduce", res.Commands[0].Direction)
	}
}

func TestResolveAxisWeightsBreakTies(t *testing.T) {
	weights := Weights{Temperature: 2.0, Humidity: 1.0}
	r := NewResolver("tent-1", weights, NewCooldownTracker(), testLogger())
	dev := testDevice("exhaust-1", 0, types.CanExhaust)

	intents := []types.ActionIntent{
		{Capability: types.CanExhaust, Direction: types.DirIncrease, Axis: types.AxisHumidity, Magnitude: 1.0, Priority: types.PriorityPrimary},
		{Capability: types.CanExhaust, Direction: types.DirReduce, Axis: types.AxisTemperature, Magnitude: 1.0, Priority: types.PriorityPrimary},
	}
	res := r.Resolve(intents, []actuators.Actuator{dev}, time.Now())
	if len(res.Commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(res.Commands))
	}
	if res.Commands[0].Direction != types.DirReduce {
		t.Errorf("temperature axis (weight 2.0) should win: got %s", res.Commands[0].Direction)
	}
}

func TestResolveDeadTieHoldsDevice(t *testing.T) {
	r := NewResolver("tent-1", DefaultWeights(), NewCooldownTracker(), testLogger())
	dev := testDevice("exhaust-1", 0, types.CanExhaust)

	intents := []types.ActionIntent{
		{Capability: types.CanExhaust, Direction: types.DirIncrease, Axis: types.AxisHumidity, Magnitude: 1.0, Priority: types.PriorityPrimary},
		{Capability: types.CanExhaust, Direction: types.DirReduce, Axis: types.AxisTemperature, Magnitude: 1.0, Priority: types.PriorityPrimary},
	}
	res := r.Resolve(intents, []actuators.Actuator{dev}, time.Now())
	if len(res.Commands) != 0 {
		t.Fatalf("dead tie should hold the device, got %d commands", len(res.Commands))
	}
	if !res.Blocked {
		t.Error("intents existed but nothing dispatched: result should be blocked")
	}
}

func TestResolveCooldownSuppressesRecommand(t *testing.T) {
	tracker := NewCooldownTracker()
	r := NewResolver("tent-1", DefaultWeights(), tracker, testLogger())
	dev := testDevice("dehumid-1", 300, types.CanDehumidify)
	now := time.Now()

	first := []types.ActionIntent{
		{Capability: types.CanDehumidify, Direction: types.DirIncrease, Axis: types.AxisVPD, Magnitude: 1.0, Priority: types.PriorityPrimary},
	}
	res := r.Resolve(first, []actuators.Actuator{dev}, now)
	if len(res.Commands) != 1 {
		t.Fatalf("first cycle: got %d commands, want 1", len(res.Commands))
	}
	r.RecordDispatched(res.Commands, now)

	// Opposite demand inside the window must not go out.
	second := []types.ActionIntent{
		{Capability: types.CanDehumidify, Direction: types.DirReduce, Axis: types.AxisVPD, Magnitude: 1.0, Priority: types.PriorityPrimary},
	}
	res = r.Resolve(second, []actuators.Actuator{dev}, now.Add(30*time.Second))
	if len(res.Commands) != 0 {
		t.Fatalf("cooldown violated: got %d commands inside window", len(res.Commands))
	}
	if !res.Blocked {
		t.Error("suppressed cycle should report blocked")
	}

	// After the window elapses the demand goes through.
	res = r.Resolve(second, []actuators.Actuator{dev}, now.Add(301*time.Second))
	if len(res.Commands) != 1 {
		t.Fatalf("after window: got %d commands, want 1", len(res.Commands))
	}
}

func TestResolveEmergencyOverridesCooldown(t *testing.T) {
	tracker := NewCooldownTracker()
	r := NewResolver("tent-1", DefaultWeights(), tracker, testLogger())
	dev := testDevice("cooler-1", 600, types.CanCool)
	now := time.Now()

	tracker.Record("cooler-1", types.CanCool, now)

	normal := []types.ActionIntent{
		{Capability: types.CanCool, Direction: types.DirIncrease, Axis: types.AxisTemperature, Magnitude: 1.0, Priority: types.PriorityPrimary},
	}
	if res := r.Resolve(normal, []actuators.Actuator{dev}, now.Add(time.Minute)); len(res.Commands) != 0 {
		t.Fatalf("primary intent inside cooldown should be suppressed, got %d commands", len(res.Commands))
	}

	emergency := []types.ActionIntent{
		{Capability: types.CanCool, Direction: types.DirIncrease, Axis: types.AxisTemperature, Reason: "temperature above emergency limit", Magnitude: 1.0, Priority: types.PriorityEmergency},
	}
	res := r.Resolve(emergency, []actuators.Actuator{dev}, now.Add(time.Minute))
	if len(res.Commands) != 1 {
		t.Fatalf("emergency intent must bypass cooldown, got %d commands", len(res.Commands))
	}
}

func TestResolveNoIntentsIsNotBlocked(t *testing.T) {
	r := NewResolver("tent-1", DefaultWeights(), NewCooldownTracker(), testLogger())
	res := r.Resolve(nil, nil, time.Now())
	if res.Blocked {
		t.Error("empty intent set is synchronized, not blocked")
	}
	if len(res.Commands) != 0 {
		t.Errorf("got %d commands from no intents", len(res.Commands))
	}
}

func TestResolveSkipsUnsupportedCapabilities(t *testing.T) {
	r := NewResolver("tent-1", DefaultWeights(), NewCooldownTracker(), testLogger())
	dev := testDevice("fan-1", 0, types.CanExhaust)

	intents := FanOutVPD(types.DirIncrease, 1.0, "vpd below range")
	res := r.Resolve(intents, []actuators.Actuator{dev}, time.Now())
	if len(res.Commands) != 1 {
		t.Fatalf("got %d commands, want 1 (only exhaust supported)", len(res.Commands))
	}
	if res.Commands[0].Capability != types.CanExhaust {
		t.Errorf("command capability = %s, want canExhaust", res.Commands[0].Capability)
	}
}

func TestCooldownTrackerZeroWindow(t *testing.T) {
	tracker := NewCooldownTracker()
	now := time.Now()
	tracker.Record("dev", types.CanHeat, now)
	if !tracker.Allowed("dev", types.CanHeat, 0, now) {
		t.Error("zero window must always allow")
	}
	if tracker.Allowed("dev", types.CanHeat, time.Minute, now.Add(30*time.Second)) {
		t.Error("inside window must deny")
	}
	tracker.Clear("dev", types.CanHeat)
	if !tracker.Allowed("dev", types.CanHeat, time.Minute, now.Add(time.Second)) {
		t.Error("cleared capability must allow immediately")
	}
}
