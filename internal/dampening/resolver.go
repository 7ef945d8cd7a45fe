// Package dampening filters and merges action intents into a conflict-free
// command set: capability fan-out, axis-weighted conflict resolution, and
// per-capability cooldown windows.
package dampening

import (
	"time"

	"github.com/opengrow-box/growd/internal/actuators"
	"github.com/opengrow-box/growd/internal/types"
	"go.uber.org/zap"
)

// Weights bias the temperature and humidity axes against each other when two
// intents of equal priority contend for the same capability. Operators tune
// these per room; 1.0/1.0 treats both axes equally.
type Weights struct {
	Temperature float64
	Humidity    float64
}

// DefaultWeights treats both axes equally.
func DefaultWeights() Weights {
	return Weights{Temperature: 1.0, Humidity: 1.0}
}

func (w Weights) axisWeight(a types.ControlAxis) float64 {
	switch a {
	case types.AxisTemperature:
		return w.Temperature
	case types.AxisHumidity:
		return w.Humidity
	default:
		return 1.0
	}
}

// Result is the outcome of one resolution pass. Blocked is set when intents
// existed but cooldowns or conflicts suppressed every command; that is a
// distinct condition from "nothing to do".
type Result struct {
	Commands []types.ActuatorCommand
	Blocked  bool
}

// Resolver merges one cycle's intents into per-device commands for a single
// room. Each room owns its resolver and cooldown tracker.
type Resolver struct {
	room    string
	weights Weights
	tracker *CooldownTracker
	logger  *zap.SugaredLogger
}

// NewResolver creates a resolver for one room.
func NewResolver(room string, weights Weights, tracker *CooldownTracker, logger *zap.SugaredLogger) *Resolver {
	if weights.Temperature <= 0 {
		weights.Temperature = 1.0
	}
	if weights.Humidity <= 0 {
		weights.Humidity = 1.0
	}
	return &Resolver{
		room:    room,
		weights: weights,
		tracker: tracker,
		logger:  logger.Named("dampening"),
	}
}

// Resolve merges intents per capability, applies cooldown windows, and maps
// the winners onto the devices that support them. Emergency intents clear the
// cooldown state of the capabilities they touch before filtering.
func (r *Resolver) Resolve(intents []types.ActionIntent, devices []actuators.Actuator, now time.Time) Result {
	if len(intents) == 0 {
		return Result{}
	}

	winners := r.merge(intents)

	// Emergency intents must act immediately: release their capabilities
	// from any cooldown before the window check below.
	for cap, in := range winners {
		if in.Priority != types.PriorityEmergency {
			continue
		}
		for _, dev := range devices {
			if dev.Supports(cap) {
				r.tracker.Clear(dev.DeviceID, cap)
			}
		}
	}

	var cmds []types.ActuatorCommand
	for cap, in := range winners {
		if in.Direction == types.DirNone {
			continue
		}
		for _, dev := range devices {
			if !dev.Supports(cap) {
				continue
			}
			limits, _ := dev.Limits(cap)
			if !r.tracker.Allowed(dev.DeviceID, cap, limits.Cooldown, now) {
				r.logger.Debugw("Command suppressed by cooldown",
					"room", r.room,
					"device", dev.DeviceID,
					"capability", cap)
				continue
			}
			cmds = append(cmds, types.ActuatorCommand{
				DeviceID:   dev.DeviceID,
				Room:       r.room,
				Capability: cap,
				Direction:  in.Direction,
				Magnitude:  in.Magnitude,
				Topic:      dev.CommandTopic,
			})
		}
	}

	return Result{Commands: cmds, Blocked: len(cmds) == 0}
}

// merge keeps at most one intent per capability. Higher priority wins
// outright; within a priority, conflicting directions are settled by the
// axis-weighted magnitude, and a dead tie resolves to no action for that
// capability rather than an arbitrary pick.
func (r *Resolver) merge(intents []types.ActionIntent) map[types.Capability]types.ActionIntent {
	winners := make(map[types.Capability]types.ActionIntent, len(intents))
	for _, in := range intents {
		cur, ok := winners[in.Capability]
		if !ok {
			winners[in.Capability] = in
			continue
		}
		if in.Priority != cur.Priority {
			if in.Priority > cur.Priority {
				winners[in.Capability] = in
			}
			continue
		}
		if in.Direction == cur.Direction {
			if in.Magnitude > cur.Magnitude {
				winners[in.Capability] = in
			}
			continue
		}

		curScore := r.weights.axisWeight(cur.Axis) * cur.Magnitude
		newScore := r.weights.axisWeight(in.Axis) * in.Magnitude
		switch {
		case newScore > curScore:
			winners[in.Capability] = in
		case newScore == curScore:
			r.logger.Warnw("Unresolvable capability conflict, holding device",
				"room", r.room,
				"capability", in.Capability,
				"axes", []types.ControlAxis{cur.Axis, in.Axis},
				"error", types.ErrConflictUnresolvable)
			cur.Direction = types.DirNone
			winners[in.Capability] = cur
		}
	}
	return winners
}

// RecordDispatched stamps the cooldown clock for every command that actually
// went out. The room controller calls this after a successful dispatch so
// suppressed or failed cycles never consume a cooldown window.
func (r *Resolver) RecordDispatched(cmds []types.ActuatorCommand, at time.Time) {
	for _, cmd := range cmds {
		r.tracker.Record(cmd.DeviceID, cmd.Capability, at)
	}
}
