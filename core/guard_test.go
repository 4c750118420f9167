package core

import (
	"testing"
	"time"
)

func TestGuard_CancelSetsFlag(t *testing.T) {
	record := newTaskRecord(42, time.Now(), nil)
	guard := record.guard()

	if guard.TaskID() != 42 {
		t.Errorf("TaskID = %d, want 42", guard.TaskID())
	}
	if record.isCancelled() {
		t.Fatal("record cancelled before guard acted")
	}

	guard.Cancel()
	if !record.isCancelled() {
		t.Error("Cancel did not set the cancellation flag")
	}

	// Idempotent.
	guard.Cancel()
	if !record.isCancelled() {
		t.Error("second Cancel cleared the flag")
	}
}

func TestGuard_DetachDisablesCancel(t *testing.T) {
	record := newTaskRecord(1, time.Now(), nil)
	guard := record.guard()

	guard.Detach()
	guard.Cancel()

	if record.isCancelled() {
		t.Error("Cancel after Detach set the flag, want no-op")
	}
}

func TestGuard_ZeroValueSafe(t *testing.T) {
	var guard TaskGuard
	guard.Cancel()
	guard.Detach()
	if guard.TaskID() != 0 {
		t.Errorf("zero guard TaskID = %d, want 0", guard.TaskID())
	}

	var nilGuard *TaskGuard
	nilGuard.Cancel()
	nilGuard.Detach()
	_ = nilGuard.TaskID()
}
