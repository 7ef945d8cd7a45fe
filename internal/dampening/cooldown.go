package dampening

import (
	"sync"
	"time"

	"github.com/opengrow-box/growd/internal/types"
)

// CooldownTracker remembers when each device capability last changed state.
// One tracker exists per room; rooms never share cooldown state.
type CooldownTracker struct {
	mu   sync.Mutex
	last map[cooldownKey]time.Time
}

type cooldownKey struct {
	deviceID   string
	capability types.Capability
}

// NewCooldownTracker creates an empty tracker.
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{last: make(map[cooldownKey]time.Time)}
}

// Record marks a device capability as commanded at the given time.
func (t *CooldownTracker) Record(deviceID string, c types.Capability, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[cooldownKey{deviceID, c}] = at
}

// Allowed reports whether the device capability is outside its cooldown
// window. A zero window means no cooldown applies.
func (t *CooldownTracker) Allowed(deviceID string, c types.Capability, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[cooldownKey{deviceID, c}]
	if !ok {
		return true
	}
	return now.Sub(last) >= window
}

// Clear removes the cooldown state for one device capability. Emergency
// overrides use this to free the affected capabilities immediately.
func (t *CooldownTracker) Clear(deviceID string, c types.Capability) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, cooldownKey{deviceID, c})
}
