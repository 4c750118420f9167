package core

import (
	"context"
	"sync/atomic"
	"time"
)

// Task is the unit of work (Closure)
type Task func(ctx context.Context)

// =============================================================================
// taskState: flags shared between a task record chain and its TaskGuard
// =============================================================================

// taskState is jointly owned by the task record (and every successor record in
// a repeating chain) and the TaskGuard handed back to the caller. The guard's
// only write is the cancelled flag.
type taskState struct {
	// running is set before the task body executes and cleared after it
	// returns. A panic inside the body skips the clear, leaving the flag
	// stuck as the re-entrancy signal: the executor refuses to run a record
	// whose flag is already set.
	running atomic.Bool

	// cancelled is set by the guard; the executor checks it immediately
	// before running the record.
	cancelled atomic.Bool
}

// taskRecord is one scheduled invocation. A one-shot submission is a single
// record; a repeating submission is a chain of records, each run producing at
// most one successor with an updated deadline.
type taskRecord struct {
	id        uint64
	runAt     time.Time
	state     *taskState
	fn        Task
	interval  time.Duration
	repeating bool
	index     int // for heap interface
}

func newTaskRecord(id uint64, runAt time.Time, fn Task) *taskRecord {
	return &taskRecord{
		id:    id,
		runAt: runAt,
		state: &taskState{},
		fn:    fn,
	}
}

func newRepeatingTaskRecord(id uint64, runAt time.Time, fn Task, interval time.Duration) *taskRecord {
	r := newTaskRecord(id, runAt, fn)
	r.interval = interval
	r.repeating = true
	return r
}

// successor builds the next link of a repeating chain. The id and the shared
// state carry over, so cancelling the guard stops the whole chain.
func (r *taskRecord) successor(completedAt time.Time) *taskRecord {
	return &taskRecord{
		id:        r.id,
		runAt:     completedAt.Add(r.interval),
		state:     r.state,
		fn:        r.fn,
		interval:  r.interval,
		repeating: true,
	}
}

func (r *taskRecord) isCancelled() bool {
	return r.state.cancelled.Load()
}

// guard builds the caller-held cancellation handle for this record.
func (r *taskRecord) guard() *TaskGuard {
	return &TaskGuard{taskID: r.id, cancel: &r.state.cancelled}
}

// =============================================================================
// Context Helper
// =============================================================================

type timerKeyType struct{}

var timerKey timerKeyType

// GetCurrentTimer returns the Timer whose executor goroutine is running the
// current task body, or nil when ctx did not come from an executor. Task
// bodies can use it to schedule follow-up work.
func GetCurrentTimer(ctx context.Context) *Timer {
	if v := ctx.Value(timerKey); v != nil {
		return v.(*Timer)
	}
	return nil
}
