package primitives

import (
	"context"
	"testing"
	"time"
)

// TestSemaphore_AcquireRelease verifies basic permit accounting.
func TestSemaphore_AcquireRelease(t *testing.T) {
	s := NewSemaphore(2)
	ctx := context.Background()

	if err := s.Acquire(ctx); err != nil {
		t.Fatalf("Acquire 1: %v", err)
	}
	if err := s.Acquire(ctx); err != nil {
		t.Fatalf("Acquire 2: %v", err)
	}
	if s.TryAcquire() {
		t.Fatal("TryAcquire succeeded with no permits available")
	}

	s.Release()
	if !s.TryAcquire() {
		t.Fatal("TryAcquire failed after Release")
	}
}

// TestSemaphore_AcquireBlocksUntilRelease verifies Acquire blocks while
// exhausted and unblocks on Release.
func TestSemaphore_AcquireBlocksUntilRelease(t *testing.T) {
	s := NewSemaphore(1)
	ctx := context.Background()
	if err := s.Acquire(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		s.Acquire(ctx)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Acquire returned before Release")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Acquire never returned after Release")
	}
}

// TestSemaphore_AcquireRespectsContext verifies cancellation unblocks
// Acquire.
func TestSemaphore_AcquireRespectsContext(t *testing.T) {
	s := NewSemaphore(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Acquire(ctx)
	if err == nil {
		t.Fatal("Acquire on exhausted semaphore with expired ctx returned nil error")
	}
}
