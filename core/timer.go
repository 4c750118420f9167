package core

import (
	"sync"
	"time"
)

// Timer schedules one-shot and repeating tasks onto a dedicated background
// goroutine, which executes them in deadline order. Task bodies should be
// short-lived synchronous functions: a long-running body blocks the executor
// and delays every other pending task.
//
// Each Timer owns exactly one executor goroutine for its lifetime; do not
// share one executor across Timers. Stop the Timer to shut the goroutine down.
type Timer struct {
	shared   *schedule
	executor *executor

	name    string
	logger  Logger
	metrics Metrics

	stopOnce sync.Once
}

// NewTimer creates a Timer and immediately starts its executor goroutine.
func NewTimer() *Timer {
	return NewTimerWithConfig(0, DefaultTimerConfig())
}

// NewTimerWithCapacity creates a Timer whose schedule is pre-sized for the
// given number of pending tasks. The capacity is purely a performance hint.
func NewTimerWithCapacity(capacity int) *Timer {
	return NewTimerWithConfig(capacity, DefaultTimerConfig())
}

// NewTimerWithConfig creates a Timer with custom diagnostic collaborators.
// Missing config fields fall back to defaults.
func NewTimerWithConfig(capacity int, config *TimerConfig) *Timer {
	if config == nil {
		config = DefaultTimerConfig()
	}
	name := config.Name
	if name == "" {
		name = "timer"
	}
	logger := config.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	panicHandler := config.PanicHandler
	if panicHandler == nil {
		panicHandler = &DefaultPanicHandler{}
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = &NilMetrics{}
	}

	t := &Timer{
		shared:  newSchedule(capacity),
		name:    name,
		logger:  logger,
		metrics: metrics,
	}
	t.executor = &executor{
		shared:       t.shared,
		stopped:      make(chan struct{}),
		name:         name,
		logger:       logger,
		panicHandler: panicHandler,
		metrics:      metrics,
	}

	go t.executor.run(t)

	return t
}

// Name returns the name of this Timer, as used in logs and metrics.
func (t *Timer) Name() string {
	return t.name
}

// ScheduleIn schedules task to run once, after the given delay.
func (t *Timer) ScheduleIn(delay time.Duration, task Task) *TaskGuard {
	return t.push(task, time.Now().Add(delay), 0)
}

// ScheduleAt schedules task to run once, at the given wall-clock time. The
// wall time is converted to a monotonic deadline exactly once, here: system
// clock adjustments after submission do not move the fire time. A time
// already in the past fires as soon as possible.
func (t *Timer) ScheduleAt(at time.Time, task Task) *TaskGuard {
	now := time.Now()
	delay := at.Sub(now)
	if delay < 0 {
		delay = 0
	}
	return t.push(task, now.Add(delay), 0)
}

// ScheduleRepeating schedules task to run every interval, first firing one
// interval from now. Each subsequent deadline is the previous run's
// completion time plus the interval: a slow body causes drift, not overlap.
func (t *Timer) ScheduleRepeating(interval time.Duration, task Task) *TaskGuard {
	return t.push(task, time.Now().Add(interval), interval)
}

// ScheduleImmediately schedules task to run as soon as possible, with
// fire-and-forget semantics: no guard is returned, so the caller cannot
// cancel it.
func (t *Timer) ScheduleImmediately(task Task) {
	t.push(task, time.Now(), 0).Detach()
}

// push inserts one task record and hands back its guard. Exactly one wake
// notification is sent per insertion; signals may coalesce.
func (t *Timer) push(task Task, runAt time.Time, interval time.Duration) *TaskGuard {
	record, ok := t.shared.insert(func(id uint64) *taskRecord {
		if interval > 0 {
			return newRepeatingTaskRecord(id, runAt, task, interval)
		}
		return newTaskRecord(id, runAt, task)
	})
	if !ok {
		t.logger.Warn("timer is stopped, task rejected", F("timer", t.name))
		t.metrics.RecordTaskRejected(t.name, "stopped")
		return &TaskGuard{}
	}
	t.metrics.RecordPendingTasks(t.name, t.shared.pendingCount())
	return record.guard()
}

// PendingTaskCount returns the number of task records currently scheduled.
func (t *Timer) PendingTaskCount() int {
	return t.shared.pendingCount()
}

// Stats returns a snapshot of the Timer's observable state.
func (t *Timer) Stats() TimerStats {
	s := t.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	return TimerStats{
		Name:    t.name,
		Pending: len(s.tasks),
		Stopped: s.done,
	}
}

// Stop shuts the Timer down: it marks the schedule done, wakes the executor
// and blocks until the executor goroutine has observed shutdown and exited.
// Pending tasks that have not fired are dropped. Stop is idempotent;
// submissions after Stop are rejected.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		t.shared.shutdown()
		<-t.executor.stopped
	})
}
