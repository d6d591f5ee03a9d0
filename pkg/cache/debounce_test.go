package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(tenantID, roleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, tenantID+":"+roleID)
}

func (r *callRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.record)
	defer d.Close()

	for i := 0; i < 5; i++ {
		d.Trigger("t1", "r1")
	}

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	// No second callback arrives after the burst settled.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"t1:r1"}, rec.snapshot())
	assert.Zero(t, d.Pending())
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(10*time.Millisecond, rec.record)
	defer d.Close()

	d.Trigger("t1", "r1")
	d.Trigger("t1", "r2")
	d.Trigger("t2", "r1")

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 3
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"t1:r1", "t1:r2", "t2:r1"}, rec.snapshot())
}

func TestDebouncerRetriggerResetsQuietPeriod(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(60*time.Millisecond, rec.record)
	defer d.Close()

	d.Trigger("t1", "r1")
	time.Sleep(30 * time.Millisecond)
	d.Trigger("t1", "r1")
	time.Sleep(40 * time.Millisecond)

	// 70ms after the first trigger, but only 40ms after the second: the
	// reset quiet period has not elapsed yet.
	assert.Empty(t, rec.snapshot())

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncerCloseCancelsPending(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.record)

	d.Trigger("t1", "r1")
	d.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	// Triggers after close are ignored.
	d.Trigger("t1", "r2")
	assert.Zero(t, d.Pending())
}
