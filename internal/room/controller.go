// Package room runs the per-room control cycle: latest-reading bookkeeping,
// aggregation, environmental-state derivation, mode evaluation, dampening,
// and command dispatch. Each room is fully independent and its cycles are
// serialized; a new evaluation never starts while the previous one is still
// dispatching.
package room

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/opengrow-box/growd/internal/actuators"
	"github.com/opengrow-box/growd/internal/aggregate"
	"github.com/opengrow-box/growd/internal/calibration"
	"github.com/opengrow-box/growd/internal/dampening"
	"github.com/opengrow-box/growd/internal/engine"
	"github.com/opengrow-box/growd/internal/events"
	"github.com/opengrow-box/growd/internal/lights"
	"github.com/opengrow-box/growd/internal/stage"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"github.com/opengrow-box/growd/pkg/envmath"
	"go.uber.org/zap"
)

const (
	// minCycleInterval rate-limits evaluations when sensors push faster
	// than actuators can usefully react.
	minCycleInterval = 15 * time.Second

	// staleAfter drops a sensor's latest reading from aggregation when no
	// newer one arrived. A silent sensor becomes "unavailable", never a
	// frozen value.
	staleAfter = 5 * time.Minute

	dateLayout = "2006-01-02"
)

type readingKey struct {
	sensorID string
	context  types.SensorContext
	mtype    types.MeasurementType
}

// Controller owns one room's control loop.
type Controller struct {
	cfg        config.RoomData
	cal        *calibration.Store
	resolver   *dampening.Resolver
	dispatcher *actuators.Dispatcher
	devices    []actuators.Actuator
	schedule   *lights.Schedule
	emitter    *events.Emitter
	snapshots  []chan<- types.RoomSnapshot
	logger     *zap.SugaredLogger

	readingCh chan types.SensorReading

	mu             sync.Mutex
	latest         map[readingKey]types.SensorReading
	lastCycle      time.Time
	lightIntensity float64
	lastSnapshot   *types.RoomSnapshot
}

// NewController wires a controller for one configured room.
func NewController(cfg config.RoomData, devices []actuators.Actuator, cal *calibration.Store, dispatcher *actuators.Dispatcher, emitter *events.Emitter, snapshots []chan<- types.RoomSnapshot, logger *zap.SugaredLogger) (*Controller, error) {
	schedule, err := lights.NewSchedule(cfg.Lights)
	if err != nil {
		return nil, fmt.Errorf("room %s light schedule: %w", cfg.Name, err)
	}

	weights := dampening.Weights{Temperature: cfg.TempWeight, Humidity: cfg.HumidityWeight}
	return &Controller{
		cfg:            cfg,
		cal:            cal,
		resolver:       dampening.NewResolver(cfg.Name, weights, dampening.NewCooldownTracker(), logger),
		dispatcher:     dispatcher,
		devices:        devices,
		schedule:       schedule,
		emitter:        emitter,
		snapshots:      snapshots,
		logger:         logger.Named("room").With("room", cfg.Name),
		readingCh:      make(chan types.SensorReading, 64),
		latest:         make(map[readingKey]types.SensorReading),
		lightIntensity: 100,
	}, nil
}

// Name returns the room name.
func (c *Controller) Name() string {
	return c.cfg.Name
}

// Config returns the room configuration the controller was built with.
func (c *Controller) Config() config.RoomData {
	return c.cfg
}

// ReadingChannel is where the sensor manager delivers this room's readings.
func (c *Controller) ReadingChannel() chan<- types.SensorReading {
	return c.readingCh
}

// Start launches the control loop. Cancellation lets an in-flight dispatch
// finish but schedules nothing new.
func (c *Controller) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Info("Room control loop started")
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Room control loop stopped")
				return
			case r := <-c.readingCh:
				c.ingest(r)
				c.maybeRunCycle(ctx, time.Now())
			}
		}
	}()
}

// ingest calibrates a reading and stores it as the sensor's latest value.
func (c *Controller) ingest(r types.SensorReading) {
	r = c.cal.Apply(r)
	c.mu.Lock()
	c.latest[readingKey{r.SensorID, r.Context, r.Type}] = r
	c.mu.Unlock()
}

func (c *Controller) maybeRunCycle(ctx context.Context, now time.Time) {
	c.mu.Lock()
	if now.Sub(c.lastCycle) < minCycleInterval {
		c.mu.Unlock()
		return
	}
	c.lastCycle = now
	c.mu.Unlock()

	c.RunCycle(ctx, now)
}

// RunCycle executes one full evaluate-resolve-dispatch pass.
func (c *Controller) RunCycle(ctx context.Context, now time.Time) {
	state := c.deriveState(now)
	target, intents, evalErr := c.evaluate(state, now)

	lightCmds := c.lightCommands(state, now)

	var outcome types.CycleOutcome
	var reason string
	var dispatched []types.ActuatorCommand

	switch {
	// Emergency intents survive an evaluation failure: a missing VPD input
	// must not stop the hard temperature bounds from acting.
	case evalErr != nil && len(intents) == 0:
		outcome = types.OutcomeSkipped
		reason = evalErr.Error()
		c.logger.Warnw("Cycle skipped", "reason", reason)
	case len(intents) == 0 && len(lightCmds) == 0:
		outcome = types.OutcomeSynchronized
		reason = "environment within targets"
	default:
		result := c.resolver.Resolve(intents, c.devices, now)
		dispatched = append(result.Commands, lightCmds...)
		if len(dispatched) == 0 {
			outcome = types.OutcomeBlocked
			reason = "all intents suppressed by cooldowns or conflicts"
		} else {
			outcome = types.OutcomeDispatched
			reason = summarizeIntents(intents, lightCmds)
		}
	}

	if len(dispatched) > 0 {
		c.dispatcher.Dispatch(ctx, dispatched)
		c.resolver.RecordDispatched(dispatched, now)
		c.noteLightIntensity(dispatched)
	}

	snap := types.RoomSnapshot{
		State:   state,
		Target:  target,
		Outcome: outcome,
		Actions: dispatched,
	}
	c.mu.Lock()
	c.lastSnapshot = &snap
	c.mu.Unlock()
	for _, ch := range c.snapshots {
		select {
		case ch <- snap:
		default:
			c.logger.Warn("Snapshot channel full, dropping snapshot")
		}
	}

	c.emitter.EmitCycle(ctx, events.CycleEvent(c.cfg.Name, outcome, reason, len(dispatched)))
}

// Snapshot returns the most recent cycle snapshot, or nil before the first
// cycle completes.
func (c *Controller) Snapshot() *types.RoomSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSnapshot
}

// StageInfo resolves the room's current week targets for the status API.
func (c *Controller) StageInfo(now time.Time) (stage.WeekTarget, error) {
	return c.stageTarget(now)
}

// deriveState aggregates the latest readings into the room's environmental
// state. Every metric is independently optional.
func (c *Controller) deriveState(now time.Time) types.EnvironmentalState {
	c.mu.Lock()
	readings := make([]types.SensorReading, 0, len(c.latest))
	for key, r := range c.latest {
		if now.Sub(r.Timestamp) > staleAfter {
			delete(c.latest, key)
			continue
		}
		readings = append(readings, r)
	}
	c.mu.Unlock()

	agg := func(ctx types.SensorContext, mt types.MeasurementType) types.Metric {
		return aggregate.Metric(aggregate.Aggregate(readings, ctx, mt, now))
	}

	state := types.EnvironmentalState{
		Room:         c.cfg.Name,
		Temperature:  agg(types.ContextAir, types.MeasureTemperature),
		Humidity:     agg(types.ContextAir, types.MeasureHumidity),
		CO2:          agg(types.ContextAir, types.MeasureCO2),
		PPFD:         agg(types.ContextLight, types.MeasurePPFD),
		SoilMoisture: agg(types.ContextSoil, types.MeasureMoisture),
		Timestamp:    now,
	}

	if state.Temperature.Valid && state.Humidity.Valid {
		if vpd, err := envmath.VPD(state.Temperature.Value, state.Humidity.Value, c.cfg.LeafTempOffset); err == nil {
			state.VPD = types.MetricOf(vpd)
		}
		if dp, err := envmath.DewPoint(state.Temperature.Value, state.Humidity.Value); err == nil {
			state.DewPoint = types.MetricOf(dp)
		}
	}

	if state.PPFD.Valid {
		if hours := c.schedule.PhotoperiodHours(); hours > 0 {
			if dli, err := envmath.DLIFromPPFD(state.PPFD.Value, hours); err == nil {
				state.DLI = types.MetricOf(dli)
			}
		}
	}
	return state
}

// evaluate runs the mode-specific decision path and returns the cycle's
// target plus the resulting intents. Emergency temperature bounds are
// checked in every mode.
func (c *Controller) evaluate(state types.EnvironmentalState, now time.Time) (types.ControlTarget, []types.ActionIntent, error) {
	intents := c.emergencyIntents(state)
	mode := types.ControlMode(c.cfg.Mode)
	target := types.ControlTarget{Mode: mode}

	switch mode {
	case types.ModeDisabled, "":
		return target, intents, nil

	case types.ModeVPDPerfection, types.ModeVPDTarget:
		var err error
		target, err = c.vpdTarget(mode, now)
		if err != nil {
			return target, intents, err
		}
		decision, err := engine.EvaluateVPD(state.VPD, target)
		if err != nil {
			return target, intents, err
		}
		switch decision.Direction {
		case types.DirIncrease, types.DirReduce:
			intents = append(intents, dampening.FanOutVPD(decision.Direction, dampening.FullStep, decision.Reason)...)
		case types.DirFineTune:
			dir := engine.FineTuneDirection(state.VPD, target)
			intents = append(intents, dampening.FanOutVPD(dir, dampening.FineTuneStep, decision.Reason)...)
		}
		return target, intents, nil

	case types.ModeDryElClassico, types.ModeDryDewBased, types.ModeDryFiveDay:
		startedAt, err := c.dryStart()
		if err != nil {
			return target, intents, err
		}
		decision, err := engine.EvaluateDrying(mode, startedAt, now, state, c.cfg.TargetDepression)
		if err != nil {
			return target, intents, err
		}
		if d := decision.Temperature.Direction; d == types.DirIncrease || d == types.DirReduce {
			intents = append(intents, dampening.FanOutTemperature(d, types.PriorityPrimary, decision.Temperature.Reason)...)
		}
		if d := decision.Humidity.Direction; d == types.DirIncrease || d == types.DirReduce {
			intents = append(intents, dampening.FanOutHumidity(d, types.PriorityPrimary, decision.Humidity.Reason)...)
		}
		return target, intents, nil

	default:
		return target, intents, fmt.Errorf("unknown control mode %q", c.cfg.Mode)
	}
}

// emergencyIntents checks the hard temperature bounds. A breach produces
// emergency-priority intents that bypass cooldowns downstream.
func (c *Controller) emergencyIntents(state types.EnvironmentalState) []types.ActionIntent {
	if !state.Temperature.Valid {
		return nil
	}
	t := state.Temperature.Value
	if c.cfg.EmergencyTempMax > 0 && t > c.cfg.EmergencyTempMax {
		reason := fmt.Sprintf("temperature %.1f above emergency limit %.1f", t, c.cfg.EmergencyTempMax)
		c.logger.Errorw("Emergency temperature bound breached", "reason", reason)
		return dampening.FanOutTemperature(types.DirReduce, types.PriorityEmergency, reason)
	}
	if c.cfg.EmergencyTempMin > 0 && t < c.cfg.EmergencyTempMin {
		reason := fmt.Sprintf("temperature %.1f below emergency limit %.1f", t, c.cfg.EmergencyTempMin)
		c.logger.Errorw("Emergency temperature bound breached", "reason", reason)
		return dampening.FanOutTemperature(types.DirIncrease, types.PriorityEmergency, reason)
	}
	return nil
}

// vpdTarget derives the cycle's VPD target band for the active mode.
func (c *Controller) vpdTarget(mode types.ControlMode, now time.Time) (types.ControlTarget, error) {
	if mode == types.ModeVPDTarget {
		if c.cfg.TargetVPD <= 0 {
			return types.ControlTarget{Mode: mode}, fmt.Errorf("room %s has no target_vpd set: %w", c.cfg.Name, types.ErrMissingMeasurement)
		}
		tol := c.cfg.TolerancePercent
		if tol <= 0 {
			tol = 5
		}
		return stage.UserVPDControlTarget(c.cfg.TargetVPD, tol), nil
	}

	week, err := c.stageTarget(now)
	if err != nil {
		return types.ControlTarget{Mode: mode}, err
	}
	return week.VPDControlTarget(), nil
}

// stageTarget resolves the current week's stage targets from the room's
// reference dates.
func (c *Controller) stageTarget(now time.Time) (stage.WeekTarget, error) {
	if c.cfg.GrowStart == "" {
		return stage.WeekTarget{}, fmt.Errorf("room %s has no grow_start date: %w", c.cfg.Name, types.ErrStageResolution)
	}
	start, err := time.ParseInLocation(dateLayout, c.cfg.GrowStart, time.Local)
	if err != nil {
		return stage.WeekTarget{}, fmt.Errorf("room %s grow_start: %w", c.cfg.Name, err)
	}
	growDays := stage.ElapsedDays(start, now)

	// Photoperiod grows flip to flower when the operator records the bloom
	// switch; until then the stage clamps at late veg.
	if strings.EqualFold(c.cfg.Phase, "photoperiod") {
		bloomDays := -1
		if c.cfg.BloomSwitch != "" {
			bloom, err := time.ParseInLocation(dateLayout, c.cfg.BloomSwitch, time.Local)
			if err != nil {
				return stage.WeekTarget{}, fmt.Errorf("room %s bloom_switch: %w", c.cfg.Name, err)
			}
			if d := stage.ElapsedDays(bloom, now); d >= 0 {
				bloomDays = d
			}
		}
		return stage.ResolveWithBloom(c.cfg.PlantType, c.cfg.Phase, growDays, bloomDays)
	}
	return stage.Resolve(c.cfg.PlantType, c.cfg.Phase, growDays)
}

// dryStart parses the recorded drying start date.
func (c *Controller) dryStart() (time.Time, error) {
	if c.cfg.DryStart == "" {
		return time.Time{}, fmt.Errorf("room %s has no dry_start date: %w", c.cfg.Name, types.ErrMissingMeasurement)
	}
	start, err := time.ParseInLocation(dateLayout, c.cfg.DryStart, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("room %s dry_start: %w", c.cfg.Name, err)
	}
	return start, nil
}

// lightCommands drives dimmable lights: the schedule's ramp envelope during
// sunrise/sunset and night, DLI stepping across the day plateau.
func (c *Controller) lightCommands(state types.EnvironmentalState, now time.Time) []types.ActuatorCommand {
	if c.schedule == nil {
		return nil
	}
	lightDevices := c.lightDevices()
	if len(lightDevices) == 0 {
		return nil
	}

	c.mu.Lock()
	current := c.lightIntensity
	c.mu.Unlock()

	var next float64
	switch {
	case c.schedule.ActiveTransition(now) || c.schedule.PhaseAt(now) == lights.PhaseNight:
		next = c.schedule.IntensityAt(now)
	default:
		week, err := c.stageTarget(now)
		if err != nil {
			return nil
		}
		minI, maxI := c.schedule.Bounds()
		lc := engine.NewLightControl(minI, maxI)
		stepped, changed, err := lc.Evaluate(state.DLI, week.DLITarget, current, false)
		if err != nil || !changed {
			return nil
		}
		next = stepped
	}

	if next == current {
		return nil
	}

	cmds := make([]types.ActuatorCommand, 0, len(lightDevices))
	for _, dev := range lightDevices {
		v := next
		cmds = append(cmds, types.ActuatorCommand{
			DeviceID:      dev.DeviceID,
			Room:          c.cfg.Name,
			Capability:    types.CanLight,
			Direction:     stepDirection(current, next),
			Magnitude:     next - current,
			AbsoluteValue: &v,
			Topic:         dev.CommandTopic,
		})
	}
	return cmds
}

func (c *Controller) lightDevices() []actuators.Actuator {
	var out []actuators.Actuator
	for _, dev := range c.devices {
		if dev.Supports(types.CanLight) {
			out = append(out, dev)
		}
	}
	return out
}

// noteLightIntensity tracks the last commanded absolute light intensity.
func (c *Controller) noteLightIntensity(cmds []types.ActuatorCommand) {
	for _, cmd := range cmds {
		if cmd.Capability == types.CanLight && cmd.AbsoluteValue != nil {
			c.mu.Lock()
			c.lightIntensity = *cmd.AbsoluteValue
			c.mu.Unlock()
		}
	}
}

func stepDirection(current, next float64) types.Direction {
	if next > current {
		return types.DirIncrease
	}
	return types.DirReduce
}

func summarizeIntents(intents []types.ActionIntent, lightCmds []types.ActuatorCommand) string {
	seen := make(map[string]bool)
	var parts []string
	for _, in := range intents {
		if in.Reason != "" && !seen[in.Reason] {
			seen[in.Reason] = true
			parts = append(parts, in.Reason)
		}
	}
	if len(lightCmds) > 0 {
		parts = append(parts, "light intensity adjustment")
	}
	return strings.Join(parts, "; ")
}
