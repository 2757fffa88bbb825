// Package guardrails bounds how long an extraction run may spend per phase
package guardrails

import (
	"context"
	"time"
)

// Timeouts are optional budgets; zero leaves a phase bounded only by its parent
type Timeouts struct {
	// Run caps a whole extraction, preflight and merge included
	Run time.Duration

	// Partition caps the scan of one partition
	Partition time.Duration

	// Sink caps each write and the final flush
	Sink time.Duration
}

// ForRun returns the context of a whole run
func ForRun(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return within(parent, t.Run)
}

// ForPartition returns the context of one partition scan
func ForPartition(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return within(parent, t.Partition)
}

// ForSink returns the context of one sink call
func ForSink(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return within(parent, t.Sink)
}

// Remaining is the time left before the deadline of ctx, zero without one or once passed
func Remaining(ctx context.Context) time.Duration {
	dl, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return max(time.Until(dl), 0)
}

// within never extends a parent deadline; d <= 0 yields a plain cancelable child
func within(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		d = rem
	}
	return context.WithTimeout(parent, d)
}
