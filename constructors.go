package threadlib

import (
	"github.com/HoneyBury/ThreadLib/core"
	"github.com/HoneyBury/ThreadLib/primitives"
)

// NewPool creates a Pool with n worker goroutines and default configuration.
func NewPool(n int) *Pool {
	return core.NewPool(n)
}

// NewPoolWithConfig creates a Pool with n worker goroutines and the given
// configuration.
func NewPoolWithConfig(n int, cfg *PoolConfig) *Pool {
	return core.NewPoolWithConfig(n, cfg)
}

// DefaultPoolConfig returns a PoolConfig with default handlers and
// thresholds, suitable to modify before passing to NewPoolWithConfig.
func DefaultPoolConfig() *PoolConfig {
	return core.DefaultPoolConfig()
}

// NewDefaultLogger creates a Logger that writes to the standard log package,
// useful for local development in place of the silent NoOpLogger default.
func NewDefaultLogger() *DefaultLogger {
	return core.NewDefaultLogger()
}

// NewTaskFlow creates an empty TaskFlow.
func NewTaskFlow() *TaskFlow {
	return core.NewTaskFlow()
}

// NewScheduler creates a Scheduler that dispatches onto pool.
func NewScheduler(pool *Pool) *Scheduler {
	return core.NewScheduler(pool)
}

// NewLatch creates a Latch that opens once count CountDown calls have been
// made (count<=0 opens immediately).
func NewLatch(count int) *Latch {
	return primitives.NewLatch(count)
}

// NewSemaphore creates a Semaphore with n permits.
func NewSemaphore(n int) *Semaphore {
	return primitives.NewSemaphore(n)
}

// NewBarrier creates a Barrier for the given number of parties, running
// action (if non-nil) each time all parties arrive.
func NewBarrier(parties int, action func()) (*Barrier, error) {
	return primitives.NewBarrier(parties, action)
}

// NewBlockingQueue creates an empty, unbounded BlockingQueue.
func NewBlockingQueue[T any]() *BlockingQueue[T] {
	return primitives.NewBlockingQueue[T]()
}

// NewShardedMap creates a ShardedMap with shardCount shards (coerced to a
// sane default if <=0), hashing keys with hash to pick a shard.
func NewShardedMap[K comparable, V any](shardCount int, hash func(K) uint64) *ShardedMap[K, V] {
	return primitives.NewShardedMap[K, V](shardCount, hash)
}
