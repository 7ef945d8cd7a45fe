package events

import (
	"context"
	"sync"

	"github.com/opengrow-box/growd/internal/types"
)

const defaultRingSize = 256

// MemorySink keeps the most recent cycle events in a ring buffer. The REST
// server reads it to serve the recent-events endpoint.
type MemorySink struct {
	mu     sync.RWMutex
	ring   []types.CycleEvent
	next   int
	filled bool
}

// NewMemorySink creates a sink retaining up to size events (default 256 when
// size is not positive).
func NewMemorySink(size int) *MemorySink {
	if size <= 0 {
		size = defaultRingSize
	}
	return &MemorySink{ring: make([]types.CycleEvent, size)}
}

func (s *MemorySink) EmitCycle(_ context.Context, event types.CycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = event
	s.next++
	if s.next == len(s.ring) {
		s.next = 0
		s.filled = true
	}
	return nil
}

func (s *MemorySink) EmitDeviceHealth(_ context.Context, _ types.DeviceHealthEvent) error {
	return nil
}

// Recent returns events newest-first, optionally filtered by room. A room of
// "" returns all rooms.
func (s *MemorySink) Recent(room string, limit int) []types.CycleEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := len(s.ring)
	count := s.next
	if s.filled {
		count = size
	}
	var out []types.CycleEvent
	for i := 0; i < count; i++ {
		idx := (s.next - 1 - i + size) % size
		ev := s.ring[idx]
		if room != "" && ev.Room != room {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *MemorySink) Close() error { return nil }
