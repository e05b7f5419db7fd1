package clock

import (
	"context"
	"time"
)

// Clock abstracts time so polling loops can be tested deterministically.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until the context is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the system clock.
var Real Clock = realClock{}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
