package core

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Scheduler dispatches tasks to a Pool at a specific time or on a fixed
// period. Grounded directly on the teacher's core/delay_manager.go
// (DelayManager): the same single-goroutine min-heap-plus-wakeup-channel
// design, generalized from one-shot delayed posting to a TaskRunner into
// one-shot-or-periodic posting to a Pool, per spec.md §4.7.
type Scheduler struct {
	id   string
	pool *Pool

	mu   sync.Mutex
	pq   scheduledTaskHeap
	seq  uint64
	live map[uint64]*scheduledTask

	wakeup chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// ScheduleHandle identifies a scheduled task for Cancel.
type ScheduleHandle struct {
	seq uint64
}

type scheduledTask struct {
	seq      uint64
	due      time.Time
	interval time.Duration // 0 means one-shot
	task     Task
	canceled bool
	index    int
}

type scheduledTaskHeap []*scheduledTask

func (h scheduledTaskHeap) Len() int            { return len(h) }
func (h scheduledTaskHeap) Less(i, j int) bool  { return h[i].due.Before(h[j].due) }
func (h scheduledTaskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *scheduledTaskHeap) Push(x any) {
	item := x.(*scheduledTask)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *scheduledTaskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
func (h scheduledTaskHeap) Peek() *scheduledTask {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// NewScheduler creates a Scheduler that dispatches onto pool.
func NewScheduler(pool *Pool) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		id:     newID(),
		pool:   pool,
		live:   make(map[uint64]*scheduledTask),
		wakeup: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	heap.Init(&s.pq)
	go s.loop()
	return s
}

// ID returns the scheduler's instance identifier.
func (s *Scheduler) ID() string { return s.id }

// ScheduleAfter runs fn once, after delay has elapsed.
func (s *Scheduler) ScheduleAfter(fn Task, delay time.Duration) ScheduleHandle {
	return s.scheduleAt(fn, time.Now().Add(delay), 0)
}

// ScheduleAt runs fn once, at the given absolute time. If when has already
// passed, fn is dispatched on the next loop tick.
func (s *Scheduler) ScheduleAt(fn Task, when time.Time) ScheduleHandle {
	return s.scheduleAt(fn, when, 0)
}

// SchedulePeriodic runs fn repeatedly every interval, starting after the
// first interval elapses. interval must be positive; interval<=0 is
// silently refused (no task is scheduled), per spec.md §4.7's documented
// edge case, returning the zero ScheduleHandle.
func (s *Scheduler) SchedulePeriodic(fn Task, interval time.Duration) ScheduleHandle {
	if interval <= 0 {
		return ScheduleHandle{}
	}
	return s.scheduleAt(fn, time.Now().Add(interval), interval)
}

func (s *Scheduler) scheduleAt(fn Task, when time.Time, interval time.Duration) ScheduleHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	item := &scheduledTask{
		seq:      s.seq,
		due:      when,
		interval: interval,
		task:     fn,
	}
	heap.Push(&s.pq, item)
	s.live[item.seq] = item

	if item.index == 0 {
		select {
		case s.wakeup <- struct{}{}:
		default:
		}
	}
	return ScheduleHandle{seq: item.seq}
}

// Cancel prevents a not-yet-fired scheduled task (one-shot or periodic)
// from running again. It is a supplemented convenience mirroring the C++
// original's Scheduler::Cancel (original_source/src/ThreadLib/scheduler.cpp)
// that the distilled spec omitted. Canceling a task already in flight on the
// pool does not stop that in-flight execution. Returns false if the handle
// is unknown or already fired/canceled.
func (s *Scheduler) Cancel(h ScheduleHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.live[h.seq]
	if !ok {
		return false
	}
	item.canceled = true
	delete(s.live, h.seq)
	if item.index >= 0 && item.index < len(s.pq) {
		heap.Remove(&s.pq, item.index)
	}
	return true
}

func (s *Scheduler) loop() {
	defer close(s.done)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		wait := s.calculateNextWait()
		timer.Reset(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.dispatchExpired()
		case <-s.wakeup:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}

func (s *Scheduler) calculateNextWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.pq.Peek()
	if item == nil {
		return 1000 * time.Hour
	}
	wait := time.Until(item.due)
	if wait < 0 {
		return 0
	}
	return wait
}

// dispatchExpired posts every task whose due time has passed, per spec.md
// §4.7's release-then-submit-then-reacquire pattern: the scheduler's own
// lock is released before calling into the pool, so a slow or blocking
// Submit never stalls new registrations.
func (s *Scheduler) dispatchExpired() {
	s.mu.Lock()
	now := time.Now()
	var expired []*scheduledTask
	for s.pq.Len() > 0 {
		item := s.pq.Peek()
		if item.due.After(now) {
			break
		}
		heap.Pop(&s.pq)
		expired = append(expired, item)
		delete(s.live, item.seq)
	}
	s.mu.Unlock()

	for _, item := range expired {
		lag := now.Sub(item.due)
		s.pool.cfg.Metrics.RecordSchedulerDispatch(s.id, lag)
		if !s.pool.submitTask(context.Background(), item.task) {
			s.pool.cfg.Logger.Warn("scheduler dropped task, pool stopped",
				F("scheduler_id", s.id), F("seq", item.seq))
			continue
		}
		s.pool.cfg.Logger.Debug("scheduler dispatched task",
			F("scheduler_id", s.id), F("seq", item.seq), F("lag", lag))

		if item.interval > 0 {
			// Fixed-stride re-insertion: the next due time advances from
			// the previous due time, not from now, so a burst of missed
			// ticks (e.g. after a long GC pause) is caught up on
			// subsequent loop iterations rather than silently dropped or
			// re-based to "interval from now", per spec.md §4.7.
			s.reschedule(item)
		}
	}
}

func (s *Scheduler) reschedule(item *scheduledTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	next := &scheduledTask{
		seq:      s.seq,
		due:      item.due.Add(item.interval),
		interval: item.interval,
		task:     item.task,
	}
	heap.Push(&s.pq, next)
	s.live[next.seq] = next
}

// Stop halts the scheduler's dispatch loop and discards any pending tasks.
// Tasks already handed to the pool continue running.
func (s *Scheduler) Stop() {
	s.pool.cfg.Logger.Info("scheduler stopping", F("scheduler_id", s.id))
	s.cancel()
	<-s.done
	s.mu.Lock()
	s.pq = nil
	s.live = nil
	s.mu.Unlock()
}

// PendingCount reports how many tasks are currently queued for dispatch.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pq)
}

// SchedulerStats is a point-in-time snapshot of a Scheduler's queue, used by
// observability/prometheus's snapshot poller.
type SchedulerStats struct {
	Pending int
}

// Stats returns a current snapshot.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{Pending: s.PendingCount()}
}
