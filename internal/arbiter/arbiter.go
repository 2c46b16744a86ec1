// internal/arbiter/arbiter.go
package arbiter

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Arbiter is the single-owner gate in front of the serial bus.
// At most one holder at any instant. No FIFO fairness is promised.
type Arbiter struct {
	sem *semaphore.Weighted

	// OnWait, if set, receives how long each successful Acquire waited.
	OnWait func(time.Duration)
}

// New returns an idle arbiter.
func New() *Arbiter {
	return &Arbiter{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the caller owns the bus or ctx is done.
// On error the caller does not own the bus and must not call Release.
func (a *Arbiter) Acquire(ctx context.Context) error {
	start := time.Now()
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if a.OnWait != nil {
		a.OnWait(time.Since(start))
	}
	return nil
}

// Release gives the bus back. Releasing an idle arbiter panics.
func (a *Arbiter) Release() {
	a.sem.Release(1)
}

// Do runs fn while owning the bus. The bus is released on every exit path, panics included.
func (a *Arbiter) Do(ctx context.Context, fn func() error) error {
	if err := a.Acquire(ctx); err != nil {
		return err
	}
	defer a.Release()
	return fn()
}
