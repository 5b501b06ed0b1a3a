package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmit_ReturnsResult(t *testing.T) {
	// Given a running pool
	p := NewPool(4)
	defer p.Stop()

	// When a closure returning a value is submitted
	f := Submit(context.Background(), p, func(context.Context) int { return 42 })

	// Then the future yields that value
	v, err := f.Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestSubmit_CounterFanOut(t *testing.T) {
	// Given a pool and N independent increments
	p := NewPool(8)
	defer p.Stop()

	const n = 2000
	var counter atomic.Int64
	var futures []*Future[struct{}]
	for i := 0; i < n; i++ {
		futures = append(futures, Submit(context.Background(), p, func(context.Context) struct{} {
			counter.Add(1)
			return struct{}{}
		}))
	}

	// When all futures are awaited
	for _, f := range futures {
		if _, err := f.Wait(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Then every increment landed exactly once
	if got := counter.Load(); got != n {
		t.Fatalf("expected %d, got %d", n, got)
	}
}

func TestSubmit_PanicIsIsolated(t *testing.T) {
	// Given a pool
	p := NewPool(2)
	defer p.Stop()

	// When a submitted closure panics
	f := Submit(context.Background(), p, func(context.Context) int {
		panic("boom")
	})
	_, err := f.Wait()

	// Then the future reports failure instead of crashing the worker
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// And the pool remains usable afterwards
	f2 := Submit(context.Background(), p, func(context.Context) int { return 7 })
	v, err := f2.Wait()
	if err != nil || v != 7 {
		t.Fatalf("pool did not survive panic: v=%d err=%v", v, err)
	}
}

func TestSubmit_RecursiveChildRunsLIFO(t *testing.T) {
	// Given a single-worker pool so LIFO ordering is directly observable
	p := NewPool(1)
	defer p.Stop()

	var order []int
	var mu sync.Mutex
	record := func(v int) {
		mu.Lock()
		order = append(order, v)
		mu.Unlock()
	}

	done := make(chan struct{})
	Submit(context.Background(), p, func(ctx context.Context) struct{} {
		record(0)
		// A sibling submitted with a plain context is routed like an
		// outside submission, onto the global queue.
		Submit(context.Background(), p, func(context.Context) struct{} {
			record(2)
			close(done)
			return struct{}{}
		})
		// Submitting from within a running task with its own ctx pushes
		// onto the owner's own deque (LIFO), so a child submitted here
		// runs before the sibling that arrived earlier on the global
		// queue but wasn't yet picked up.
		Submit(ctx, p, func(context.Context) struct{} {
			record(1)
			return struct{}{}
		})
		return struct{}{}
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recursive child and sibling")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestPool_ExternalSubmissionsSpreadAcrossWorkers(t *testing.T) {
	// Given a pool of 4 workers and many concurrent submissions from
	// outside the pool, all of which land on the shared global queue
	p := NewPool(4)
	defer p.Stop()

	var seen sync.Map
	const n = 400
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			Submit(context.Background(), p, func(ctx context.Context) struct{} {
				if idx, ok := currentWorkerIndex(ctx, p.id); ok {
					seen.Store(idx, true)
				}
				time.Sleep(time.Millisecond)
				return struct{}{}
			}).Wait()
		}()
	}
	wg.Wait()

	count := 0
	seen.Range(func(any, any) bool { count++; return true })
	if count < 2 {
		t.Fatalf("expected work spread across multiple workers, saw %d", count)
	}
}

func TestPool_StopRejectsNewSubmissions(t *testing.T) {
	// Given a stopped pool
	p := NewPool(2)
	p.Stop()

	// When a closure is submitted
	f := Submit(context.Background(), p, func(context.Context) int { return 1 })
	_, err := f.Wait()

	// Then it is rejected with ErrStopped
	if err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestPool_Drain(t *testing.T) {
	// Given a pool with a batch of in-flight work
	p := NewPool(4)
	defer p.Stop()

	const n = 200
	var counter atomic.Int64
	for i := 0; i < n; i++ {
		Submit(context.Background(), p, func(context.Context) struct{} {
			time.Sleep(time.Millisecond)
			counter.Add(1)
			return struct{}{}
		})
	}

	// When Drain is awaited and the pool is then stopped (Drain only waits
	// for the queues to empty; Stop joins the workers, so tasks still
	// running when Drain returns finish before it returns)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Drain(ctx); err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	p.Stop()

	// Then all submitted work has completed
	if got := counter.Load(); got != n {
		t.Fatalf("expected %d completions after drain, got %d", n, got)
	}
}
