package actuators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	// MaxConcurrentCommands bounds simultaneous device commands so one busy
	// cycle cannot flood the command bus. Excess commands queue.
	MaxConcurrentCommands = 5

	maxDispatchAttempts = 3
	baseBackoff         = 500 * time.Millisecond
)

// CommandPublisher delivers one resolved command to the device transport.
type CommandPublisher interface {
	Publish(ctx context.Context, cmd types.ActuatorCommand) error
}

// Dispatcher executes resolved actuator commands through a bounded worker
// pool, retrying failures with exponential backoff and escalating persistent
// failures as device-health events.
type Dispatcher struct {
	pool      *ants.Pool
	publisher CommandPublisher
	logger    *zap.SugaredLogger
	health    chan<- types.DeviceHealthEvent
}

// NewDispatcher creates a dispatcher backed by a worker pool of
// MaxConcurrentCommands workers.
func NewDispatcher(publisher CommandPublisher, health chan<- types.DeviceHealthEvent, logger *zap.SugaredLogger) (*Dispatcher, error) {
	pool, err := ants.NewPool(MaxConcurrentCommands)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch pool: %w", err)
	}
	return &Dispatcher{
		pool:      pool,
		publisher: publisher,
		logger:    logger.Named("dispatcher"),
		health:    health,
	}, nil
}

// Dispatch sends all commands of one cycle and blocks until every one has
// completed or exhausted its retries. Blocking here is what serializes a
// room's cycles: the next evaluation cannot start while dispatch is in
// flight.
func (d *Dispatcher) Dispatch(ctx context.Context, cmds []types.ActuatorCommand) {
	var wg sync.WaitGroup
	for _, cmd := range cmds {
		cmd := cmd
		wg.Add(1)
		err := d.pool.Submit(func() {
			defer wg.Done()
			d.dispatchOne(ctx, cmd)
		})
		if err != nil {
			// Pool is released; drop the command rather than deadlock.
			d.logger.Errorw("Dispatch pool rejected command", "device", cmd.DeviceID, "error", err)
			wg.Done()
		}
	}
	wg.Wait()
}

func (d *Dispatcher) dispatchOne(ctx context.Context, cmd types.ActuatorCommand) {
	var lastErr error
	for attempt := 1; attempt <= maxDispatchAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		lastErr = d.publisher.Publish(ctx, cmd)
		if lastErr == nil {
			d.logger.Debugw("Command dispatched",
				"device", cmd.DeviceID,
				"capability", cmd.Capability,
				"direction", cmd.Direction)
			return
		}

		delay := baseBackoff * time.Duration(1<<(attempt-1))
		d.logger.Warnw("Command dispatch failed",
			"device", cmd.DeviceID,
			"capability", cmd.Capability,
			"attempt", attempt,
			"retry_in", delay,
			"error", lastErr)

		if attempt == maxDispatchAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	// Retries exhausted: escalate, never retry indefinitely.
	d.logger.Errorw("Command dispatch exhausted retries",
		"device", cmd.DeviceID,
		"capability", cmd.Capability,
		"error", lastErr)
	if d.health != nil {
		event := types.DeviceHealthEvent{
			DeviceID:  cmd.DeviceID,
			Room:      cmd.Room,
			Error:     fmt.Sprintf("%v: %v", types.ErrActuatorCommand, lastErr),
			Attempts:  maxDispatchAttempts,
			Timestamp: time.Now(),
		}
		select {
		case d.health <- event:
		default:
			d.logger.Warn("Device health channel full, dropping event")
		}
	}
}

// Close releases the worker pool.
func (d *Dispatcher) Close() {
	d.pool.Release()
}
