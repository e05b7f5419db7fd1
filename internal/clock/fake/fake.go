package fake

import (
	"context"
	"sync"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/clock"
)

var _ clock.Clock = (*Clock)(nil)

// Clock is a deterministic clock for testing. Sleeping advances the clock
// instantly instead of blocking.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

// NewClock creates a Clock starting at the given time.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the clock by d.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps++
	c.mu.Unlock()

	return nil
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Sleeps returns how many times Sleep has been called.
func (c *Clock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}
