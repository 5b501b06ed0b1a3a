package threadlib

import (
	"context"

	"github.com/HoneyBury/ThreadLib/core"
	"github.com/HoneyBury/ThreadLib/primitives"
)

// Re-exported types, grounded on the teacher's root-level types.go
// re-export pattern: users depend on this package alone for the common
// path, including configuration (PoolConfig, Metrics, Logger, PanicHandler),
// and on core/primitives directly only for what is not re-exported here
// (e.g. Field, NoOpLogger, NilMetrics, ErrStopped).

// Task is the unit of work submitted to a Pool.
type Task = core.Task

// Pool is the work-stealing thread pool.
type Pool = core.Pool

// TaskFlow is a DAG of tasks executed against a Pool.
type TaskFlow = core.TaskFlow

// NodeHandle identifies a node within a TaskFlow.
type NodeHandle = core.NodeHandle

// Scheduler dispatches timed and periodic tasks to a Pool.
type Scheduler = core.Scheduler

// ScheduleHandle identifies a task registered with a Scheduler.
type ScheduleHandle = core.ScheduleHandle

// Future is the handle returned by a submission; it yields the task's
// result or its recovered panic exactly once.
type Future[T any] = core.Future[T]

// PoolConfig configures a Pool's identity, observability hooks and
// spin/park tuning.
type PoolConfig = core.PoolConfig

// Metrics is the observability seam implemented by callers that want pool,
// TaskFlow and Scheduler activity reported (see observability/prometheus
// for a ready-made implementation).
type Metrics = core.Metrics

// Logger is the ambient structured-logging seam.
type Logger = core.Logger

// DefaultLogger is a Logger that writes to the standard log package.
type DefaultLogger = core.DefaultLogger

// PanicHandler is invoked when a task panics.
type PanicHandler = core.PanicHandler

// Latch is a one-shot countdown rendezvous.
type Latch = primitives.Latch

// Semaphore is a counting permit pool.
type Semaphore = primitives.Semaphore

// Barrier is a cyclic rendezvous point for a fixed party size.
type Barrier = primitives.Barrier

// BlockingQueue is an unbounded MPMC FIFO queue with a stop signal.
type BlockingQueue[T any] = primitives.BlockingQueue[T]

// ShardedMap is a lock-striped concurrent map.
type ShardedMap[K comparable, V any] = primitives.ShardedMap[K, V]

// Submit posts fn to pool and returns a Future for its result. See
// core.Submit for the full contract.
func Submit[R any](ctx context.Context, pool *Pool, fn func(context.Context) R) *Future[R] {
	return core.Submit(ctx, pool, fn)
}
