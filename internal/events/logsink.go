package events

import (
	"context"

	"github.com/opengrow-box/growd/internal/types"
	"go.uber.org/zap"
)

// LogSink writes events to the structured log. It is always attached so the
// cycle history is observable even with no external sinks configured.
type LogSink struct {
	logger *zap.SugaredLogger
}

// NewLogSink creates the log sink.
func NewLogSink(logger *zap.SugaredLogger) *LogSink {
	return &LogSink{logger: logger.Named("cycle-events")}
}

func (s *LogSink) EmitCycle(_ context.Context, event types.CycleEvent) error {
	s.logger.Infow("Control cycle completed",
		"id", event.ID,
		"room", event.Room,
		"outcome", event.Outcome,
		"reason", event.Reason,
		"actions", event.Actions)
	return nil
}

func (s *LogSink) EmitDeviceHealth(_ context.Context, event types.DeviceHealthEvent) error {
	s.logger.Errorw("Device unhealthy",
		"device", event.DeviceID,
		"room", event.Room,
		"attempts", event.Attempts,
		"error", event.Error)
	return nil
}

func (s *LogSink) Close() error { return nil }
