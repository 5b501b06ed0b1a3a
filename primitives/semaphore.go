package primitives

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore: Acquire blocks while no permits are
// available, Release returns one permit and wakes at most one waiter. It is
// a thin single-permit-at-a-time wrapper around golang.org/x/sync/semaphore's
// Weighted, the same bounded-concurrency primitive used elsewhere in the
// retrieved pack (gcsfuse's read_manager and downloader job queue) for this
// exact concern.
type Semaphore struct {
	w         *semaphore.Weighted
	capacity  int64
	available atomic.Int64
}

// NewSemaphore creates a Semaphore with n available permits. n<=0 is
// coerced to 0 (a semaphore that starts fully acquired).
func NewSemaphore(n int) *Semaphore {
	if n < 0 {
		n = 0
	}
	s := &Semaphore{w: semaphore.NewWeighted(int64(n)), capacity: int64(n)}
	s.available.Store(int64(n))
	return s
}

// Acquire blocks until a permit is available or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if err := s.w.Acquire(ctx, 1); err != nil {
		return err
	}
	s.available.Add(-1)
	return nil
}

// TryAcquire acquires a permit without blocking. ok is false if none are
// currently available.
func (s *Semaphore) TryAcquire() (ok bool) {
	if s.w.TryAcquire(1) {
		s.available.Add(-1)
		return true
	}
	return false
}

// Release returns a permit, waking at most one blocked Acquire. Releasing
// beyond the semaphore's original capacity panics, matching Weighted's own
// over-release contract.
func (s *Semaphore) Release() {
	s.w.Release(1)
	s.available.Add(1)
}

// Available reports the number of currently available permits. Advisory
// under concurrent use.
func (s *Semaphore) Available() int {
	return int(s.available.Load())
}
