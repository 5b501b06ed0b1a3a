package core

import (
	"context"
	"fmt"
	"time"
)

// PanicHandler is called when a task panics during execution. Implementations
// must be safe for concurrent use, since tasks panic concurrently across
// workers. Grounded on the teacher's core/interfaces.go PanicHandler.
type PanicHandler interface {
	HandlePanic(ctx context.Context, poolID string, workerIndex int, panicInfo any, stack []byte)
}

// DefaultPanicHandler prints panics to stdout with fmt.Printf.
type DefaultPanicHandler struct{}

func (DefaultPanicHandler) HandlePanic(ctx context.Context, poolID string, workerIndex int, panicInfo any, stack []byte) {
	fmt.Printf("[Pool %s worker %d] panic: %v\n", poolID, workerIndex, panicInfo)
}

// Metrics is the observability seam for the pool, TaskFlow and Scheduler.
// All methods must be non-blocking and fast; a nil-safe no-op implementation
// (NilMetrics) is the default. Adapted and extended from the teacher's
// core.Metrics interface (core/interfaces.go) with the work-stealing- and
// scheduler-specific series the teacher's FIFO-only design never needed.
type Metrics interface {
	// RecordTaskDuration records how long a task took to execute.
	RecordTaskDuration(poolID string, d time.Duration)
	// RecordTaskPanic records that a task panicked.
	RecordTaskPanic(poolID string, panicInfo any)
	// RecordQueueDepth records the current global-queue depth.
	RecordQueueDepth(poolID string, depth int)
	// RecordTaskRejected records a task rejected because the pool had
	// already stopped.
	RecordTaskRejected(poolID string, reason string)
	// RecordSteal records a successful steal, so throughput dashboards can
	// distinguish local execution from cross-worker stealing.
	RecordSteal(poolID string, thiefIndex, victimIndex int)
	// RecordParkedWorkers records the current parked-worker count.
	RecordParkedWorkers(poolID string, count int)
	// RecordSchedulerDispatch records the lag between a scheduled task's due
	// time and the moment it was actually handed to the pool.
	RecordSchedulerDispatch(schedulerID string, lag time.Duration)
}

// NilMetrics discards everything. It is the default when no Metrics is
// configured.
type NilMetrics struct{}

func (NilMetrics) RecordTaskDuration(string, time.Duration)     {}
func (NilMetrics) RecordTaskPanic(string, any)                  {}
func (NilMetrics) RecordQueueDepth(string, int)                 {}
func (NilMetrics) RecordTaskRejected(string, string)            {}
func (NilMetrics) RecordSteal(string, int, int)                 {}
func (NilMetrics) RecordParkedWorkers(string, int)               {}
func (NilMetrics) RecordSchedulerDispatch(string, time.Duration) {}

// Logger is the ambient structured-logging seam, copied nearly verbatim from
// the teacher's core/logger.go — the teacher's own house style, not a
// third-party logging library, so this stays on it too (see DESIGN.md).
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a structured logging key-value pair.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// NoOpLogger discards everything. It is the default when no Logger is
// configured.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...Field) {}
func (NoOpLogger) Info(string, ...Field)  {}
func (NoOpLogger) Warn(string, ...Field)  {}
func (NoOpLogger) Error(string, ...Field) {}

const (
	// defaultSpinThreshold is the iteration count of yield-based back-off
	// before a worker parks, per spec.md §4.4 (~4000 iterations, order of
	// microseconds).
	defaultSpinThreshold = 4000
	// defaultParkTimeout bounds lost-wake latency, per spec.md §4.4.
	defaultParkTimeout = 10 * time.Millisecond
)

// PoolConfig configures a Pool. All fields are optional; DefaultPoolConfig
// fills in a working default, mirroring the teacher's
// TaskSchedulerConfig/DefaultTaskSchedulerConfig (core/interfaces.go).
type PoolConfig struct {
	// ID identifies the pool in logs and metrics. Auto-generated with
	// google/uuid if empty.
	ID string

	PanicHandler PanicHandler
	Metrics      Metrics
	Logger       Logger

	// SpinThreshold is the number of empty-work iterations a worker spins
	// before parking. Defaults to defaultSpinThreshold.
	SpinThreshold int
	// ParkTimeout bounds how long a parked worker sleeps before rechecking
	// for work, masking the lost-wake race described in spec.md §4.4.
	// Defaults to defaultParkTimeout.
	ParkTimeout time.Duration

	// DisableStealing turns a worker's steal probe into a no-op, leaving it
	// to only ever run tasks pushed to its own deque or the global overflow
	// queue. It exists to let spec.md §8 scenario 6 (work-stealing
	// throughput) construct its stealing-disabled baseline; production use
	// should leave this false.
	DisableStealing bool
}

// DefaultPoolConfig returns a config with default handlers and thresholds.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		PanicHandler:  DefaultPanicHandler{},
		Metrics:       NilMetrics{},
		Logger:        NoOpLogger{},
		SpinThreshold: defaultSpinThreshold,
		ParkTimeout:   defaultParkTimeout,
	}
}

func (c *PoolConfig) withDefaults() *PoolConfig {
	cfg := *c
	if cfg.PanicHandler == nil {
		cfg.PanicHandler = DefaultPanicHandler{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NilMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = NoOpLogger{}
	}
	if cfg.SpinThreshold <= 0 {
		cfg.SpinThreshold = defaultSpinThreshold
	}
	if cfg.ParkTimeout <= 0 {
		cfg.ParkTimeout = defaultParkTimeout
	}
	return &cfg
}
