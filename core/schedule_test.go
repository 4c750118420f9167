package core

import (
	"container/heap"
	"testing"
	"time"
)

func TestTaskHeap_DeadlineOrdering(t *testing.T) {
	now := time.Now()
	s := newSchedule(0)

	heap.Push(&s.tasks, newTaskRecord(1, now.Add(50*time.Millisecond), nil))
	heap.Push(&s.tasks, newTaskRecord(2, now.Add(10*time.Millisecond), nil))
	heap.Push(&s.tasks, newTaskRecord(3, now.Add(30*time.Millisecond), nil))

	want := []uint64{2, 3, 1}
	for i, id := range want {
		top := heap.Pop(&s.tasks).(*taskRecord)
		if top.id != id {
			t.Errorf("pop %d: id = %d, want %d", i, top.id, id)
		}
	}
}

func TestTaskHeap_IDTieBreak(t *testing.T) {
	// Equal deadlines must pop in submission order.
	at := time.Now().Add(10 * time.Millisecond)
	s := newSchedule(0)

	for id := uint64(1); id <= 5; id++ {
		heap.Push(&s.tasks, newTaskRecord(id, at, nil))
	}

	for want := uint64(1); want <= 5; want++ {
		top := heap.Pop(&s.tasks).(*taskRecord)
		if top.id != want {
			t.Errorf("id = %d, want %d", top.id, want)
		}
	}
}

func TestSchedule_InsertAssignsIncreasingIDs(t *testing.T) {
	s := newSchedule(4)

	var ids []uint64
	for i := 0; i < 3; i++ {
		record, ok := s.insert(func(id uint64) *taskRecord {
			return newTaskRecord(id, time.Now(), nil)
		})
		if !ok {
			t.Fatal("insert returned ok = false, want true")
		}
		ids = append(ids, record.id)
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[i-1]+1 {
			t.Errorf("ids = %v, want strictly increasing by 1", ids)
		}
	}
	if s.pendingCount() != 3 {
		t.Errorf("pendingCount = %d, want 3", s.pendingCount())
	}
}

func TestSchedule_InsertAfterShutdownRejected(t *testing.T) {
	s := newSchedule(0)
	s.shutdown()

	_, ok := s.insert(func(id uint64) *taskRecord {
		return newTaskRecord(id, time.Now(), nil)
	})
	if ok {
		t.Error("insert after shutdown returned ok = true, want false")
	}
}

func TestSchedule_NotifyCoalesces(t *testing.T) {
	s := newSchedule(0)

	// Multiple notifies without a consumer must not block.
	for i := 0; i < 10; i++ {
		s.notify()
	}

	select {
	case <-s.changed:
	default:
		t.Error("expected a pending wake signal")
	}
	select {
	case <-s.changed:
		t.Error("wake signals did not coalesce into one")
	default:
	}
}

func TestSuccessor_SharesStateAndID(t *testing.T) {
	record := newRepeatingTaskRecord(7, time.Now(), nil, 10*time.Millisecond)
	completed := time.Now()

	next := record.successor(completed)

	if next.id != record.id {
		t.Errorf("successor id = %d, want %d", next.id, record.id)
	}
	if next.state != record.state {
		t.Error("successor does not share the task state")
	}
	if got := next.runAt; !got.Equal(completed.Add(10 * time.Millisecond)) {
		t.Errorf("successor runAt = %v, want completion+interval", got)
	}

	// Cancelling through the original guard must stop the whole chain.
	record.guard().Cancel()
	if !next.isCancelled() {
		t.Error("successor not cancelled through shared state")
	}
}
