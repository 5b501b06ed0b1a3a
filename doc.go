// Package threadlib provides a work-stealing thread pool, a DAG task
// executor built on top of it, and a delay/periodic scheduler that
// re-submits timed work into it.
//
// # Quick Start
//
// Create a pool sized to the available cores and submit closures to it:
//
//	pool := threadlib.NewPool(runtime.NumCPU())
//	defer pool.Stop()
//
//	future := threadlib.Submit(context.Background(), pool, func(ctx context.Context) int {
//		return 21 * 2
//	})
//	result, err := future.Wait()
//
// # Key Concepts
//
// Pool: a fixed set of worker goroutines, each with its own deque. A
// worker's own submissions go to the head of its own deque (LIFO); anyone
// else's submissions go to a shared overflow queue. Idle workers steal from
// the tail of another worker's deque (FIFO) before parking.
//
// TaskFlow: a DAG of tasks built with Emplace and Precede/Succeed, driven to
// completion by resubmitting each node to a Pool as its dependencies
// resolve.
//
// Scheduler: dispatches one-shot or periodic closures to a Pool at a
// specific wall-clock time.
//
// # Thread Safety
//
// Every exported type here is safe for concurrent use unless its doc
// comment says otherwise. A Task handed to Submit or TaskFlow.Run runs at
// most once: tasks still queued when the pool stops are dropped. A Task
// handed to a Scheduler runs once per dispatch (a periodic task once per
// interval). Submitting never blocks the caller.
//
// # Example
//
//	import (
//		"context"
//		"fmt"
//
//		threadlib "github.com/HoneyBury/ThreadLib"
//	)
//
//	func main() {
//		pool := threadlib.NewPool(4)
//		defer pool.Stop()
//
//		flow := threadlib.NewTaskFlow()
//		a := flow.Emplace(func(context.Context) { fmt.Println("a") })
//		b := flow.Emplace(func(context.Context) { fmt.Println("b") })
//		flow.Precede(a, b)
//		flow.Run(context.Background(), pool).Wait()
//	}
package threadlib
