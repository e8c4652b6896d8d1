package app

import (
	"context"
	"time"
)

// DefaultPaceDelay is the pause between files in sequential mode.
const DefaultPaceDelay = time.Second

// pacer throttles sequential sends with a fixed delay.
type pacer struct {
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

func newPacer(delay time.Duration) *pacer {
	return &pacer{delay: delay, sleep: sleepContext}
}

// Wait blocks for the configured delay or until ctx is done.
func (p *pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, p.delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
