// Package actuators models controllable grow-room devices as typed
// capability sets and dispatches resolved commands to them.
package actuators

import (
	"sort"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
)

// Limits bounds one capability of one device.
type Limits struct {
	Min      float64
	Max      float64
	Cooldown time.Duration
}

// Actuator is one physical device with a typed set of capabilities. The
// capability set is read-only to the control core; it reflects what the
// device reported or what the operator configured.
type Actuator struct {
	Name         string
	Room         string
	DeviceID     string
	CommandTopic string

	caps map[types.Capability]Limits
}

// FromConfig builds an Actuator from its configuration entry.
func FromConfig(cfg config.ActuatorData) Actuator {
	a := Actuator{
		Name:         cfg.Name,
		Room:         cfg.Room,
		DeviceID:     cfg.DeviceID,
		CommandTopic: cfg.CommandTopic,
		caps:         make(map[types.Capability]Limits, len(cfg.Capabilities)),
	}
	for _, c := range cfg.Capabilities {
		a.caps[types.Capability(c.Name)] = Limits{
			Min:      c.MinPercent,
			Max:      c.MaxPercent,
			Cooldown: time.Duration(c.CooldownSeconds) * time.Second,
		}
	}
	return a
}

// Supports reports whether the device has the given capability.
func (a Actuator) Supports(c types.Capability) bool {
	_, ok := a.caps[c]
	return ok
}

// Limits returns the configured bounds for a capability.
func (a Actuator) Limits(c types.Capability) (Limits, bool) {
	l, ok := a.caps[c]
	return l, ok
}

// Capabilities returns the device's capabilities in stable order.
func (a Actuator) Capabilities() []types.Capability {
	out := make([]types.Capability, 0, len(a.caps))
	for c := range a.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
