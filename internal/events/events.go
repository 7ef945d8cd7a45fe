// Package events emits growd's semantic cycle events to one or more sinks.
// The log sink is always on; a Kafka sink is attached when configured.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opengrow-box/growd/internal/types"
	"go.uber.org/zap"
)

// Sink consumes emitted events. Sinks must not block indefinitely; the
// emitter calls them with a bounded context.
type Sink interface {
	EmitCycle(ctx context.Context, event types.CycleEvent) error
	EmitDeviceHealth(ctx context.Context, event types.DeviceHealthEvent) error
	Close() error
}

const sinkTimeout = 5 * time.Second

// Emitter fans events out to all configured sinks. A failing sink is logged
// and skipped; event emission never blocks the control loop past the sink
// timeout.
type Emitter struct {
	sinks  []Sink
	logger *zap.SugaredLogger
	mu     sync.Mutex
}

// NewEmitter creates an emitter over the given sinks.
func NewEmitter(logger *zap.SugaredLogger, sinks ...Sink) *Emitter {
	return &Emitter{
		sinks:  sinks,
		logger: logger.Named("events"),
	}
}

// CycleEvent builds a stamped cycle event.
func CycleEvent(room string, outcome types.CycleOutcome, reason string, actions int) types.CycleEvent {
	return types.CycleEvent{
		ID:        uuid.NewString(),
		Room:      room,
		Outcome:   outcome,
		Reason:    reason,
		Actions:   actions,
		Timestamp: time.Now(),
	}
}

// EmitCycle delivers a cycle event to every sink.
func (e *Emitter) EmitCycle(ctx context.Context, event types.CycleEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.sinks {
		sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := s.EmitCycle(sctx, event); err != nil {
			e.logger.Warnw("Event sink rejected cycle event",
				"room", event.Room, "outcome", event.Outcome, "error", err)
		}
		cancel()
	}
}

// EmitDeviceHealth delivers a device-health event to every sink.
func (e *Emitter) EmitDeviceHealth(ctx context.Context, event types.DeviceHealthEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.sinks {
		sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := s.EmitDeviceHealth(sctx, event); err != nil {
			e.logger.Warnw("Event sink rejected device-health event",
				"device", event.DeviceID, "error", err)
		}
		cancel()
	}
}

// Close closes all sinks.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.sinks {
		if err := s.Close(); err != nil {
			e.logger.Warnw("Error closing event sink", "error", err)
		}
	}
}
