package monitor

import (
	"sync"
	"time"
)

// CooldownTracker remembers when each symbol last alerted so the same
// coin does not spam the channel every sweep. Entries are never
// evicted; the map is bounded by the universe size.
type CooldownTracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewCooldownTracker(window time.Duration) *CooldownTracker {
	return &CooldownTracker{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// ShouldSkip reports whether symbol alerted within the cooldown window.
func (t *CooldownTracker) ShouldSkip(symbol string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[symbol]
	if !ok {
		return false
	}
	return now.Sub(last) < t.window
}

// Record overwrites the stored timestamp unconditionally.
func (t *CooldownTracker) Record(symbol string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[symbol] = now
}

// ActiveCount returns how many symbols are still inside their window.
func (t *CooldownTracker) ActiveCount(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, last := range t.last {
		if now.Sub(last) < t.window {
			count++
		}
	}
	return count
}
