package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_ScheduleAfterFiresOnce(t *testing.T) {
	// Given a pool and scheduler
	p := NewPool(2)
	defer p.Stop()
	s := NewScheduler(p)
	defer s.Stop()

	// When a task is scheduled after a short delay
	var fired atomic.Int32
	done := make(chan struct{})
	s.ScheduleAfter(func(context.Context) {
		fired.Add(1)
		close(done)
	}, 20*time.Millisecond)

	// Then it fires exactly once
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scheduled task")
	}
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly 1 firing, got %d", got)
	}
}

func TestScheduler_TemporalOrderRespected(t *testing.T) {
	// Given two tasks scheduled with different delays
	p := NewPool(2)
	defer p.Stop()
	s := NewScheduler(p)
	defer s.Stop()

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 2)
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
		done <- struct{}{}
	}

	s.ScheduleAfter(func(context.Context) { record("late") }, 80*time.Millisecond)
	s.ScheduleAfter(func(context.Context) { record("early") }, 10*time.Millisecond)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for scheduled tasks")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestScheduler_PeriodicCadence(t *testing.T) {
	// Given a task scheduled periodically
	p := NewPool(2)
	defer p.Stop()
	s := NewScheduler(p)
	defer s.Stop()

	var count atomic.Int32
	s.SchedulePeriodic(func(context.Context) { count.Add(1) }, 15*time.Millisecond)

	// When enough wall-clock time elapses for several periods
	time.Sleep(200 * time.Millisecond)

	// Then it fired at least three times
	if got := count.Load(); got < 3 {
		t.Fatalf("expected several periodic firings, got %d", got)
	}
}

func TestScheduler_ZeroIntervalPeriodicIsRefused(t *testing.T) {
	p := NewPool(1)
	defer p.Stop()
	s := NewScheduler(p)
	defer s.Stop()

	h := s.SchedulePeriodic(func(context.Context) {}, 0)
	if h != (ScheduleHandle{}) {
		t.Fatalf("expected zero handle for refused schedule, got %+v", h)
	}
	if s.PendingCount() != 0 {
		t.Fatalf("expected nothing scheduled, got %d pending", s.PendingCount())
	}
}

func TestScheduler_CancelPreventsFiring(t *testing.T) {
	p := NewPool(1)
	defer p.Stop()
	s := NewScheduler(p)
	defer s.Stop()

	var fired atomic.Bool
	h := s.ScheduleAfter(func(context.Context) { fired.Store(true) }, 50*time.Millisecond)

	if !s.Cancel(h) {
		t.Fatal("expected Cancel to succeed on a pending task")
	}

	time.Sleep(150 * time.Millisecond)
	if fired.Load() {
		t.Fatal("canceled task fired anyway")
	}
}
