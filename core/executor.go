package core

import (
	"container/heap"
	"context"
	"runtime/debug"
	"time"
)

const (
	// defaultBatchSize caps how many ready tasks are popped per loop
	// iteration. Bounding the batch keeps each lock hold short and lets a
	// newly inserted earlier deadline preempt a long ready backlog.
	defaultBatchSize = 8

	// defaultPollInterval is how long the executor sleeps when the schedule
	// is empty. It also bounds shutdown latency if a wake signal is missed.
	defaultPollInterval = 500 * time.Millisecond
)

// executor is the single background goroutine of a Timer. It repeatedly pops
// ready task records in bounded batches, runs them outside the lock, pushes
// repeating successors back, and otherwise sleeps until the next deadline or
// a change notification.
type executor struct {
	shared *schedule

	// stopped is closed when the run loop exits; Timer.Stop blocks on it.
	stopped chan struct{}

	name         string
	logger       Logger
	panicHandler PanicHandler
	metrics      Metrics
}

// nextAction is the loop's state machine transition.
type nextAction int

const (
	actionExecuteBatch nextAction = iota
	actionSleep
	actionExit
)

// run is the executor loop. It owns its goroutine until shutdown is observed.
func (e *executor) run(owner *Timer) {
	defer close(e.stopped)
	defer func() {
		// A panic here escaped the per-task isolation, i.e. the loop itself
		// failed. Surface it as a diagnostic and still let teardown complete.
		if r := recover(); r != nil {
			e.logger.Error("executor goroutine terminated abnormally",
				F("timer", e.name), F("panic", r))
		}
	}()

	ctx := context.WithValue(context.Background(), timerKey, owner)

	sleepTimer := time.NewTimer(time.Hour)
	if !sleepTimer.Stop() {
		<-sleepTimer.C
	}

	for {
		action, batch, wait, epoch := e.collect()
		switch action {
		case actionExit:
			return
		case actionExecuteBatch:
			e.executeBatch(ctx, batch)
		case actionSleep:
			if !e.sleep(sleepTimer, wait, epoch) {
				return
			}
		}
	}
}

// collect decides the next transition under the lock: pop a batch of ready
// records, or compute how long to sleep. The returned epoch is the submission
// counter at decision time, used to detect concurrent insertions before the
// executor commits to sleeping.
func (e *executor) collect() (nextAction, []*taskRecord, time.Duration, uint64) {
	s := e.shared
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return actionExit, nil, 0, 0
	}

	epoch := s.nextID
	now := time.Now()

	var batch []*taskRecord
	for len(batch) < defaultBatchSize {
		top := s.tasks.Peek()
		if top == nil || top.runAt.After(now) {
			break
		}
		batch = append(batch, heap.Pop(&s.tasks).(*taskRecord))
	}

	if len(batch) > 0 {
		return actionExecuteBatch, batch, 0, epoch
	}

	if top := s.tasks.Peek(); top != nil {
		return actionSleep, nil, top.runAt.Sub(now), epoch
	}
	return actionSleep, nil, defaultPollInterval, epoch
}

// executeBatch runs the popped records in arrival order without holding the
// lock, then reinserts repeating successors in one lock acquisition.
func (e *executor) executeBatch(ctx context.Context, batch []*taskRecord) {
	var successors []*taskRecord
	for _, record := range batch {
		if record.isCancelled() {
			e.logger.Debug("skipping cancelled task", F("task_id", record.id))
			e.metrics.RecordTaskSkipped(e.name, "cancelled")
			continue
		}
		if next := e.runTask(ctx, record); next != nil {
			successors = append(successors, next)
		}
	}
	e.shared.reinsert(successors)
}

// runTask executes one record with its panic domain isolated and returns the
// successor record for repeating tasks, or nil.
func (e *executor) runTask(ctx context.Context, record *taskRecord) *taskRecord {
	if record.state.running.Swap(true) {
		// The previous invocation of this record never cleared the flag,
		// which means it panicked. Do not run or reschedule it again.
		e.logger.Error("encountered a task still marked running (unrecovered failure); dropping it",
			F("task_id", record.id))
		e.metrics.RecordTaskSkipped(e.name, "reentrant")
		return nil
	}

	start := time.Now()
	if !e.invoke(ctx, record) {
		// The running flag stays set on purpose; see above.
		return nil
	}
	completed := time.Now()
	record.state.running.Store(false)
	e.metrics.RecordTaskDuration(e.name, completed.Sub(start))

	if record.repeating {
		return record.successor(completed)
	}
	return nil
}

// invoke runs the task body and reports whether it completed without panicking.
func (e *executor) invoke(ctx context.Context, record *taskRecord) (completed bool) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.RecordTaskPanic(e.name, r)
			e.panicHandler.HandlePanic(ctx, e.name, record.id, r, debug.Stack())
		}
	}()
	record.fn(ctx)
	return true
}

// sleep waits for the given duration or a change notification, whichever
// comes first. Before committing it re-checks shutdown and the epoch under
// the lock: if the submission counter moved since collect, an insertion raced
// the decision and the computed duration may oversleep a newer, earlier
// deadline, so the loop rescans immediately instead. Returns false on exit.
func (e *executor) sleep(sleepTimer *time.Timer, wait time.Duration, epoch uint64) bool {
	s := e.shared
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return false
	}
	if s.nextID != epoch {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	// An insertion between the unlock above and this select leaves a token
	// in the changed channel, so the wait wakes immediately.
	sleepTimer.Reset(wait)
	select {
	case <-sleepTimer.C:
	case <-s.changed:
		if !sleepTimer.Stop() {
			select {
			case <-sleepTimer.C:
			default:
			}
		}
	}
	return true
}
