package primitives

import "sync"

// Barrier is a cyclic barrier for a fixed party count: once `parties`
// goroutines have called ArriveAndWait, all are released together and the
// barrier resets for the next cycle.
type Barrier struct {
	mu      sync.Mutex
	cond    sync.Cond
	parties int
	waiting int
	cycle   int
	action  func()
}

// NewBarrier creates a Barrier for the given party count. A non-positive
// count is an InvalidArgument, fatal to this constructor call only.
func NewBarrier(parties int, action func()) (*Barrier, error) {
	if parties <= 0 {
		return nil, ErrInvalidArgument
	}
	b := &Barrier{parties: parties, action: action}
	b.cond.L = &b.mu
	return b, nil
}

// ArriveAndWait blocks the calling goroutine until `parties` goroutines have
// called it in the current cycle. The last arrival runs the barrier's
// action (if any) before releasing everyone and advancing the cycle.
func (b *Barrier) ArriveAndWait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	cycle := b.cycle
	b.waiting++
	if b.waiting == b.parties {
		if b.action != nil {
			b.action()
		}
		b.waiting = 0
		b.cycle++
		b.cond.Broadcast()
		return
	}
	for cycle == b.cycle {
		b.cond.Wait()
	}
}

// Parties reports the configured party count.
func (b *Barrier) Parties() int {
	return b.parties
}

// Waiting reports how many parties have arrived in the current cycle.
// Advisory under concurrent use.
func (b *Barrier) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting
}
