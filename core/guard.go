package core

import (
	"sync"
	"sync/atomic"
)

// TaskGuard is the caller-held handle to a scheduled task. Cancel the task
// with Cancel, or give up cancellation control with Detach so the task runs
// (or keeps repeating) regardless of what happens to the guard.
//
// Cancellation is best-effort: if the executor has already popped the task
// and begun running it, that invocation completes. For repeating tasks the
// flag is checked fresh before every invocation, so cancelling mid-run stops
// future recurrences, not the in-flight one.
//
// Cancel and Detach are mutually exclusive and terminal; whichever happens
// first wins and the other becomes a no-op. The zero value is inert.
type TaskGuard struct {
	taskID uint64

	mu     sync.Mutex
	cancel *atomic.Bool
}

// TaskID returns the id of the underlying task, for diagnostics.
func (g *TaskGuard) TaskID() uint64 {
	if g == nil {
		return 0
	}
	return g.taskID
}

// Cancel marks the task so the executor skips it. A task that has already
// started running completes its current invocation; it is never rescheduled.
func (g *TaskGuard) Cancel() {
	if g == nil {
		return
	}
	g.mu.Lock()
	if g.cancel != nil {
		g.cancel.Store(true)
		g.cancel = nil
	}
	g.mu.Unlock()
}

// Detach permanently disowns cancellation control; the task will run to
// completion (or forever, if repeating) no matter what the caller does with
// the guard afterwards.
func (g *TaskGuard) Detach() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.cancel = nil
	g.mu.Unlock()
}
