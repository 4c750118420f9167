package core

import (
	"container/heap"
	"sync"
)

// taskHeap implements heap.Interface ordered by deadline, with the submission
// id as a deterministic tie-break so equal deadlines fire in submission order.
type taskHeap []*taskRecord

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].runAt.Equal(h[j].runAt) {
		return h[i].id < h[j].id
	}
	return h[i].runAt.Before(h[j].runAt)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	n := len(*h)
	item := x.(*taskRecord)
	item.index = n
	*h = append(*h, item)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h *taskHeap) Peek() *taskRecord {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// =============================================================================
// schedule: the shared state between the Timer front door and the executor
// =============================================================================

// schedule holds the pending task records, the submission counter and the
// shutdown flag, all behind one mutex. The Timer inserts under the lock; the
// executor pops ready batches and computes sleep durations under the lock,
// and never holds it while running task bodies.
type schedule struct {
	mu     sync.Mutex
	tasks  taskHeap
	nextID uint64
	done   bool

	// changed wakes the executor after an insertion or at shutdown. Capacity
	// one with non-blocking sends: wake signals coalesce, the executor rescans
	// on every wake rather than counting them.
	changed chan struct{}
}

func newSchedule(capacity int) *schedule {
	s := &schedule{
		nextID:  1,
		changed: make(chan struct{}, 1),
	}
	if capacity > 0 {
		s.tasks = make(taskHeap, 0, capacity)
	}
	heap.Init(&s.tasks)
	return s
}

// notify wakes the executor if it is sleeping. Safe to call without the lock.
func (s *schedule) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// insert assigns an id from the submission counter and pushes the record.
// Returns false when the schedule has already shut down.
func (s *schedule) insert(build func(id uint64) *taskRecord) (*taskRecord, bool) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil, false
	}
	id := s.nextID
	s.nextID++
	record := build(id)
	heap.Push(&s.tasks, record)
	s.mu.Unlock()

	s.notify()
	return record, true
}

// reinsert pushes repeating successors back in one lock acquisition.
func (s *schedule) reinsert(records []*taskRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	if !s.done {
		for _, r := range records {
			heap.Push(&s.tasks, r)
		}
	}
	s.mu.Unlock()
}

// shutdown flips the done flag and wakes the executor so it can exit.
func (s *schedule) shutdown() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.notify()
}

func (s *schedule) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
