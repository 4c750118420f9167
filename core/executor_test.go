package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingMetrics struct {
	NilMetrics

	mu       sync.Mutex
	skipped  map[string]int
	panics   int
	rejected int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{skipped: make(map[string]int)}
}

func (m *recordingMetrics) RecordTaskSkipped(timerName string, reason string) {
	m.mu.Lock()
	m.skipped[reason]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordTaskPanic(timerName string, panicInfo any) {
	m.mu.Lock()
	m.panics++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordTaskRejected(timerName string, reason string) {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

func (m *recordingMetrics) skippedFor(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.skipped[reason]
}

type silentPanicHandler struct {
	mu    sync.Mutex
	count int
}

func (h *silentPanicHandler) HandlePanic(ctx context.Context, timerName string, taskID uint64, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
}

func (h *silentPanicHandler) panics() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func newTestExecutor(metrics Metrics) *executor {
	if metrics == nil {
		metrics = &NilMetrics{}
	}
	return &executor{
		shared:       newSchedule(0),
		stopped:      make(chan struct{}),
		name:         "test",
		logger:       NewNoOpLogger(),
		panicHandler: &silentPanicHandler{},
		metrics:      metrics,
	}
}

// TestRunTask_ReentrantRecordDropped verifies the re-entrancy guard
// Given: A record whose running flag was never cleared (prior panic)
// When: The executor selects it to run
// Then: The body is not invoked and no successor is produced
func TestRunTask_ReentrantRecordDropped(t *testing.T) {
	metrics := newRecordingMetrics()
	e := newTestExecutor(metrics)

	ran := false
	record := newRepeatingTaskRecord(1, time.Now(), func(ctx context.Context) {
		ran = true
	}, 10*time.Millisecond)
	record.state.running.Store(true)

	next := e.runTask(context.Background(), record)

	if next != nil {
		t.Error("reentrant record produced a successor, want nil")
	}
	if ran {
		t.Error("reentrant record body ran, want skipped")
	}
	if got := metrics.skippedFor("reentrant"); got != 1 {
		t.Errorf("reentrant skips = %d, want 1", got)
	}
}

// TestRunTask_PanicLeavesRunningFlagSet verifies the stuck-flag failure signal
// Given: A one-shot record whose body panics
// When: The executor runs it
// Then: The panic is isolated, the running flag stays set, no successor
func TestRunTask_PanicLeavesRunningFlagSet(t *testing.T) {
	metrics := newRecordingMetrics()
	e := newTestExecutor(metrics)

	record := newRepeatingTaskRecord(1, time.Now(), func(ctx context.Context) {
		panic("boom")
	}, 10*time.Millisecond)

	next := e.runTask(context.Background(), record)

	if next != nil {
		t.Error("panicked record produced a successor, want nil")
	}
	if !record.state.running.Load() {
		t.Error("running flag cleared after panic, want stuck set")
	}
	if metrics.panics != 1 {
		t.Errorf("panic count = %d, want 1", metrics.panics)
	}
}

// TestExecuteBatch_CancelledRecordsSkipped verifies cancellation before firing
// Given: A batch with cancelled and live records
// When: The batch executes
// Then: Cancelled bodies never run, live ones do
func TestExecuteBatch_CancelledRecordsSkipped(t *testing.T) {
	metrics := newRecordingMetrics()
	e := newTestExecutor(metrics)

	var liveRan, cancelledRan bool
	cancelled := newTaskRecord(1, time.Now(), func(ctx context.Context) {
		cancelledRan = true
	})
	cancelled.guard().Cancel()
	live := newTaskRecord(2, time.Now(), func(ctx context.Context) {
		liveRan = true
	})

	e.executeBatch(context.Background(), []*taskRecord{cancelled, live})

	if cancelledRan {
		t.Error("cancelled task body ran")
	}
	if !liveRan {
		t.Error("live task body did not run")
	}
	if got := metrics.skippedFor("cancelled"); got != 1 {
		t.Errorf("cancelled skips = %d, want 1", got)
	}
}

// TestExecuteBatch_SuccessorsReinserted verifies the batch reinsertion path
// Given: A repeating record in a batch
// When: The batch executes successfully
// Then: Exactly one successor lands back in the schedule
func TestExecuteBatch_SuccessorsReinserted(t *testing.T) {
	e := newTestExecutor(nil)

	record := newRepeatingTaskRecord(1, time.Now(), func(ctx context.Context) {}, 10*time.Millisecond)
	e.executeBatch(context.Background(), []*taskRecord{record})

	if got := e.shared.pendingCount(); got != 1 {
		t.Errorf("pending after batch = %d, want 1 successor", got)
	}
}
