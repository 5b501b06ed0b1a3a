// Package core implements the work-stealing thread pool, the TaskFlow DAG
// executor layered on it, and the delay/periodic scheduler layered on it —
// the execution substrate of ThreadLib.
package core

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Task is the unit of work: an opaque, nullary callable erased to a uniform
// type so heterogeneous closures can share one queue/deque element type.
// The context carries the calling worker's identity (see identity.go) and is set
// once per worker, not once per task; user code is not required to use it.
type Task func(ctx context.Context)

// UserFailureError wraps a recovered panic from a Task so it can travel
// through a Future without terminating the worker that ran it.
type UserFailureError struct {
	Value any
	Stack []byte
}

func (e *UserFailureError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// runProtected invokes fn, converting a panic into a *UserFailureError. It
// never lets a panic escape, matching spec.md §4.4 step 1: the pool never
// observes or re-raises a task's failure, it only captures it.
func runProtected(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &UserFailureError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}
