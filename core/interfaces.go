package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task body panics during execution.
// This allows custom panic handling, logging, and recovery strategies.
//
// Implementations should be thread-safe. They are invoked on the executor
// goroutine and must not block: a slow handler delays every pending task.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context of the panicked task
	// - timerName: The name of the Timer whose executor caught the panic
	// - taskID: The id of the panicked task
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, timerName string, taskID uint64, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, timerName string, taskID uint64, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Timer %s] Task %d panic: %v\nStack trace:\n%s",
		timerName, taskID, panicInfo, stackTrace)
}

// LoggerPanicHandler routes panic reports through a core.Logger, so they end
// up in the same sink as the rest of the timer's diagnostics.
type LoggerPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic at error level with the stack trace attached.
func (h *LoggerPanicHandler) HandlePanic(ctx context.Context, timerName string, taskID uint64, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("uncaught panic when running task",
		F("timer", timerName),
		F("task_id", taskID),
		F("panic", panicInfo),
		F("stack", string(stackTrace)))
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting timer execution metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast to avoid impacting task execution.
type Metrics interface {
	// RecordTaskDuration records how long a task body took to execute.
	RecordTaskDuration(timerName string, duration time.Duration)

	// RecordTaskPanic records that a task body panicked during execution.
	RecordTaskPanic(timerName string, panicInfo any)

	// RecordTaskSkipped records that a popped task was not run.
	// Reasons: "cancelled" (guard cancelled before firing) and "reentrant"
	// (prior invocation of the record never recovered).
	RecordTaskSkipped(timerName string, reason string)

	// RecordTaskRejected records that a submission was rejected, e.g. after
	// the Timer has been stopped.
	RecordTaskRejected(timerName string, reason string)

	// RecordPendingTasks records the current number of pending task records.
	RecordPendingTasks(timerName string, depth int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTaskDuration is a no-op.
func (m *NilMetrics) RecordTaskDuration(timerName string, duration time.Duration) {
}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(timerName string, panicInfo any) {
}

// RecordTaskSkipped is a no-op.
func (m *NilMetrics) RecordTaskSkipped(timerName string, reason string) {
}

// RecordTaskRejected is a no-op.
func (m *NilMetrics) RecordTaskRejected(timerName string, reason string) {
}

// RecordPendingTasks is a no-op.
func (m *NilMetrics) RecordPendingTasks(timerName string, depth int) {
}

// =============================================================================
// TimerConfig: Configuration for Timer
// =============================================================================

// TimerConfig holds the diagnostic collaborators of a Timer. All fields are
// optional; missing ones fall back to defaults. The core's only contract with
// these collaborators is best-effort emit: they must never block or fail the
// caller.
type TimerConfig struct {
	// Name labels this Timer in logs and metrics. Defaults to "timer".
	Name string

	// Logger receives diagnostics (dropped-task notices, panic reports).
	// Defaults to DefaultLogger.
	Logger Logger

	// PanicHandler is called when a task body panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics records execution metrics. Defaults to NilMetrics.
	Metrics Metrics
}

// DefaultTimerConfig returns a config with default collaborators.
func DefaultTimerConfig() *TimerConfig {
	return &TimerConfig{
		Name:         "timer",
		Logger:       NewDefaultLogger(),
		PanicHandler: &DefaultPanicHandler{},
		Metrics:      &NilMetrics{},
	}
}
