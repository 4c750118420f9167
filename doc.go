// Package timer provides a synchronous, single-worker task scheduler for Go.
//
// A Timer executes one-shot and repeating tasks on a dedicated background
// goroutine, in deadline order. It is backed by a comparison-based min-heap
// and targets moderate task counts (thousands); if you need millions of
// timers, use a timer-wheel implementation instead.
//
// # Quick Start
//
// Create a timer and schedule work:
//
//	t := timer.New()
//	defer t.Stop()
//
//	t.ScheduleIn(100*time.Millisecond, func(ctx context.Context) {
//		// runs once, ~100ms from now
//	}).Detach()
//
//	guard := t.ScheduleRepeating(time.Second, func(ctx context.Context) {
//		// runs every second until the guard is cancelled
//	})
//	// ... later:
//	guard.Cancel()
//
// # Key Concepts
//
// TaskGuard: every scheduling call (except ScheduleImmediately) returns a
// guard. Call Cancel to stop the task from firing, or Detach to disown
// cancellation control and let the task run unconditionally. Cancellation is
// best-effort: an invocation already in flight completes, but a repeating
// task will not recur.
//
// Deadlines: delays and intervals are measured against the monotonic clock.
// ScheduleAt converts a wall-clock time to a monotonic deadline once, at
// submission, so later system clock adjustments do not move the fire time.
// Repeating tasks fire at completion time + interval; slow bodies drift, they
// never overlap.
//
// # Panics
//
// A panic in a task body is caught, reported through the configured
// PanicHandler, and isolated from sibling tasks; a repeating task that
// panicked is not rerun.
//
// # Thread Safety
//
// All Timer methods are safe for concurrent use. Task bodies run serially on
// the executor goroutine, never concurrently with each other. A long-running
// body delays every other pending task; keep bodies short.
package timer
