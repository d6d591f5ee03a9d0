package cache

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers for the same key into a single
// callback after a quiet period. Re-triggering a key cancels and
// reschedules its timer rather than stacking timers; the callback owns
// exactly one responsibility and runs once per quiet period.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	fn     func(tenantID, roleID string)
	closed bool
}

// NewDebouncer creates a debouncer invoking fn after delay of quiet time
// per (tenantID, roleID) key.
func NewDebouncer(delay time.Duration, fn func(tenantID, roleID string)) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		fn:     fn,
	}
}

// Trigger schedules (or reschedules) the callback for the key.
func (d *Debouncer) Trigger(tenantID, roleID string) {
	key := tenantID + ":" + roleID

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			d.fn(tenantID, roleID)
		}
	})
}

// Pending returns the number of keys with a scheduled callback.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Close cancels all pending callbacks. Further triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
