package actuators

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

func testActuator() Actuator {
	return FromConfig(config.ActuatorData{
		Name:     "dehu-1",
		Room:     "veg-1",
		DeviceID: "dehu-1",
		Capabilities: []config.CapabilityData{
			{Name: "canDehumidify", MinPercent: 0, MaxPercent: 100, CooldownSeconds: 120},
		},
	})
}

func TestSupports(t *testing.T) {
	a := testActuator()
	if !a.Supports(types.CanDehumidify) {
		t.Error("expected canDehumidify to be supported")
	}
	if a.Supports(types.CanHeat) {
		t.Error("canHeat should not be supported")
	}
}

func TestLimits(t *testing.T) {
	a := testActuator()
	l, ok := a.Limits(types.CanDehumidify)
	if !ok {
		t.Fatal("expected limits for canDehumidify")
	}
	if l.Max != 100 {
		t.Errorf("Max = %v, want 100", l.Max)
	}
	if l.Cooldown != 2*time.Minute {
		t.Errorf("Cooldown = %v, want 2m", l.Cooldown)
	}
	if _, ok := a.Limits(types.CanHeat); ok {
		t.Error("expected no limits for canHeat")
	}
}

// flakyPublisher fails the first failures calls, then succeeds.
type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (p *flakyPublisher) Publish(ctx context.Context, cmd types.ActuatorCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("broker unavailable")
	}
	return nil
}

func (p *flakyPublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestDispatcher(t *testing.T, pub CommandPublisher, health chan types.DeviceHealthEvent) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(pub, health, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestDispatchRetriesUntilSuccess(t *testing.T) {
	pub := &flakyPublisher{failures: 2}
	health := make(chan types.DeviceHealthEvent, 1)
	d := newTestDispatcher(t, pub, health)

	d.Dispatch(context.Background(), []types.ActuatorCommand{
		{DeviceID: "fan-1", Room: "veg-1", Capability: types.CanExhaust, Direction: types.DirIncrease},
	})

	if got := pub.callCount(); got != 3 {
		t.Errorf("publish calls = %d, want 3", got)
	}
	select {
	case ev := <-health:
		t.Errorf("unexpected health event after eventual success: %+v", ev)
	default:
	}
}

func TestDispatchEscalatesAfterExhaustedRetries(t *testing.T) {
	pub := &flakyPublisher{failures: 100}
	health := make(chan types.DeviceHealthEvent, 1)
	d := newTestDispatcher(t, pub, health)

	d.Dispatch(context.Background(), []types.ActuatorCommand{
		{DeviceID: "hum-1", Room: "veg-1", Capability: types.CanHumidify, Direction: types.DirIncrease},
	})

	select {
	case ev := <-health:
		if ev.DeviceID != "hum-1" {
			t.Errorf("DeviceID = %q, want hum-1", ev.DeviceID)
		}
		if ev.Attempts != maxDispatchAttempts {
			t.Errorf("Attempts = %d, want %d", ev.Attempts, maxDispatchAttempts)
		}
	default:
		t.Fatal("expected a device health event after exhausted retries")
	}
}

func TestDispatchHonorsCancellation(t *testing.T) {
	pub := &flakyPublisher{failures: 100}
	d := newTestDispatcher(t, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		d.Dispatch(ctx, []types.ActuatorCommand{
			{DeviceID: "fan-1", Room: "veg-1", Capability: types.CanExhaust, Direction: types.DirReduce},
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return after context cancellation")
	}
}
