package engine

import (
	"container/heap"
	"sync"
	"time"
)

// EventType labels a scheduled event in logs and stats.
type EventType string

const (
	// EventTypeProgressTick advances run progress on the fixed timer
	EventTypeProgressTick EventType = "progress_tick"

	// EventTypeFrame recomputes the solution space once per animation frame
	EventTypeFrame EventType = "frame"

	// EventTypeLoaded resolves the synthetic loading placeholder
	EventTypeLoaded EventType = "loaded"
)

// Handler is invoked with the virtual time at which its event fires
type Handler func(now time.Time)

// Event is one pending callback. Among events due at the same instant the
// lower Priority runs first.
type Event struct {
	ID       string    `json:"id"`
	Type     EventType `json:"type"`
	Time     time.Time `json:"time"`
	Priority int       `json:"priority"`

	seq     uint64
	index   int // -1 when not queued
	handler Handler
	task    *Task
}

// eventHeap orders events by time, then priority, then insertion order.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	switch {
	case !a.Time.Equal(b.Time):
		return a.Time.Before(b.Time)
	case a.Priority != b.Priority:
		return a.Priority < b.Priority
	}
	return a.seq < b.seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*Event)
	ev.index = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	old[len(old)-1] = nil
	last.index = -1
	*h = old[:len(old)-1]
	return last
}

// EventQueue is the engine's pending event set. It is safe for concurrent use.
type EventQueue struct {
	mu   sync.Mutex
	heap eventHeap
	seq  uint64
}

func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Schedule queues ev, stamping it with the next insertion sequence.
func (q *EventQueue) Schedule(ev *Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	ev.seq = q.seq
	heap.Push(&q.heap, ev)
}

// NextDue pops the head event if it fires at or before t.
func (q *EventQueue) NextDue(t time.Time) *Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.heap) == 0 || q.heap[0].Time.After(t) {
		return nil
	}
	return heap.Pop(&q.heap).(*Event)
}

// Remove drops ev if it is still queued and reports whether it was.
func (q *EventQueue) Remove(ev *Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := ev.index
	if i < 0 || i >= len(q.heap) || q.heap[i] != ev {
		return false
	}
	heap.Remove(&q.heap, i)
	return true
}

func (q *EventQueue) Peek() *Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.heap) == 0 {
		return nil
	}
	return q.heap[0]
}

// Clear drops every queued event.
func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ev := range q.heap {
		ev.index = -1
	}
	q.heap = nil
}

func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

func (q *EventQueue) IsEmpty() bool {
	return q.Size() == 0
}
