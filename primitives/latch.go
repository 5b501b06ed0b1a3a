package primitives

import "sync"

// Latch is a one-shot countdown rendezvous. It is constructed with a count
// K; CountDown decrements it, and once it reaches zero every current and
// future Wait call returns immediately. Calls past zero are no-ops. Open is
// permanent.
type Latch struct {
	mu    sync.Mutex
	cond  sync.Cond
	count int
	open  bool
}

// NewLatch creates a Latch with initial count k. A negative k is coerced to
// zero, per spec: a latch built with a non-positive count opens immediately.
func NewLatch(k int) *Latch {
	if k < 0 {
		k = 0
	}
	l := &Latch{count: k, open: k == 0}
	l.cond.L = &l.mu
	return l
}

// CountDown decrements the count. When it reaches zero, every waiter is
// released. Calls once the latch is already open are no-ops.
func (l *Latch) CountDown() {
	l.mu.Lock()
	if l.open {
		l.mu.Unlock()
		return
	}
	l.count--
	if l.count <= 0 {
		l.open = true
		l.mu.Unlock()
		l.cond.Broadcast()
		return
	}
	l.mu.Unlock()
}

// Wait blocks until the count reaches zero. It returns immediately if the
// latch is already open.
func (l *Latch) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for !l.open {
		l.cond.Wait()
	}
}

// Count reports the current count. Advisory under concurrent mutation.
func (l *Latch) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count < 0 {
		return 0
	}
	return l.count
}
