package nse

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum delay between consecutive requests across all
// goroutines. Each caller reserves the next free slot under the lock and then
// sleeps without holding it.
type Throttle struct {
	mu    sync.Mutex
	delay time.Duration
	next  time.Time
	now   func() time.Time
}

// NewThrottle creates a throttle with the given minimum gap
func NewThrottle(delay time.Duration) *Throttle {
	return &Throttle{delay: delay, now: time.Now}
}

// Wait blocks until the caller's reserved slot arrives, or ctx is done.
// A slot given up by a cancelled caller is not handed back, so the gap
// between requests that do go out never shrinks.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	now := t.now()
	slot := t.next
	if slot.Before(now) {
		slot = now
	}
	t.next = slot.Add(t.delay)
	t.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
