package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-timer/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskSkippedTotal    *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	pendingTasks        *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "timer"
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
		Help:      "Task body execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"timer"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"timer"})
	skippedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_skipped_total",
		Help:      "Total number of popped tasks skipped without running.",
	}, []string{"timer", "reason"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected submissions.",
	}, []string{"timer", "reason"})
	pendingVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_tasks",
		Help:      "Current number of pending task records.",
	}, []string{"timer"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if skippedVec, err = registerCollector(reg, skippedVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if pendingVec, err = registerCollector(reg, pendingVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		taskSkippedTotal:    skippedVec,
		taskRejectedTotal:   rejectedVec,
		pendingTasks:        pendingVec,
	}, nil
}

// RecordTaskDuration records task body execution duration.
func (m *MetricsExporter) RecordTaskDuration(timerName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(timerName, "unknown")).Observe(duration.Seconds())
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(timerName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(timerName, "unknown")).Inc()
}

// RecordTaskSkipped records tasks skipped without running (cancelled, reentrant).
func (m *MetricsExporter) RecordTaskSkipped(timerName string, reason string) {
	if m == nil {
		return
	}
	m.taskSkippedTotal.WithLabelValues(normalizeLabel(timerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordTaskRejected records rejected submission events.
func (m *MetricsExporter) RecordTaskRejected(timerName string, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(timerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordPendingTasks records the pending task gauge.
func (m *MetricsExporter) RecordPendingTasks(timerName string, depth int) {
	if m == nil {
		return
	}
	m.pendingTasks.WithLabelValues(normalizeLabel(timerName, "unknown")).Set(float64(depth))
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
