// Package prometheus adapts ThreadLib's observability seams (core.Metrics,
// and pool/scheduler occupancy snapshots) onto Prometheus collectors.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/HoneyBury/ThreadLib/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors. Grounded on
// the teacher's observability/prometheus/metrics_exporter.go, extended with
// the steal-, parked-worker- and scheduler-dispatch-lag series the
// work-stealing redesign needs that the teacher's single-queue design never
// tracked.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	queueDepth          *prom.GaugeVec
	stealsTotal         *prom.CounterVec
	parkedWorkers       *prom.GaugeVec
	dispatchLagSeconds  *prom.HistogramVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "threadlib"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"pool"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"pool"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected tasks.",
	}, []string{"pool", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current global-queue depth.",
	}, []string{"pool"})
	stealsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "steals_total",
		Help:      "Total number of successful cross-worker steals.",
	}, []string{"pool"})
	parkedVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "parked_workers",
		Help:      "Current number of parked workers.",
	}, []string{"pool"})
	dispatchLagVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "scheduler_dispatch_lag_seconds",
		Help:      "Delay between a scheduled task's due time and its dispatch to the pool.",
		Buckets:   prom.DefBuckets,
	}, []string{"scheduler"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if stealsVec, err = registerCollector(reg, stealsVec); err != nil {
		return nil, err
	}
	if parkedVec, err = registerCollector(reg, parkedVec); err != nil {
		return nil, err
	}
	if dispatchLagVec, err = registerCollector(reg, dispatchLagVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		queueDepth:          queueDepthVec,
		stealsTotal:         stealsVec,
		parkedWorkers:       parkedVec,
		dispatchLagSeconds:  dispatchLagVec,
	}, nil
}

func (m *MetricsExporter) RecordTaskDuration(poolID string, d time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(poolID, "unknown")).Observe(d.Seconds())
}

func (m *MetricsExporter) RecordTaskPanic(poolID string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(poolID, "unknown")).Inc()
}

func (m *MetricsExporter) RecordQueueDepth(poolID string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(poolID, "unknown")).Set(float64(depth))
}

func (m *MetricsExporter) RecordTaskRejected(poolID string, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(poolID, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func (m *MetricsExporter) RecordSteal(poolID string, thiefIndex, victimIndex int) {
	if m == nil {
		return
	}
	m.stealsTotal.WithLabelValues(normalizeLabel(poolID, "unknown")).Inc()
}

func (m *MetricsExporter) RecordParkedWorkers(poolID string, count int) {
	if m == nil {
		return
	}
	m.parkedWorkers.WithLabelValues(normalizeLabel(poolID, "unknown")).Set(float64(count))
}

func (m *MetricsExporter) RecordSchedulerDispatch(schedulerID string, lag time.Duration) {
	if m == nil {
		return
	}
	m.dispatchLagSeconds.WithLabelValues(normalizeLabel(schedulerID, "unknown")).Observe(lag.Seconds())
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
