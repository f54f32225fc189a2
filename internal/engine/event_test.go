package engine

import (
	"testing"
	"time"
)

func TestEventQueueOrdering(t *testing.T) {
	eq := NewEventQueue()
	base := time.Unix(0, 0)

	eq.Schedule(&Event{ID: "late", Time: base.Add(2 * time.Second)})
	eq.Schedule(&Event{ID: "frame", Time: base.Add(time.Second), Priority: 1})
	eq.Schedule(&Event{ID: "tick", Time: base.Add(time.Second), Priority: 0})
	eq.Schedule(&Event{ID: "tick-2", Time: base.Add(time.Second), Priority: 0})

	want := []string{"tick", "tick-2", "frame", "late"}
	for i, id := range want {
		ev := eq.NextDue(base.Add(time.Hour))
		if ev == nil {
			t.Fatalf("event %d: queue empty, want %s", i, id)
		}
		if ev.ID != id {
			t.Errorf("event %d: got %s, want %s", i, ev.ID, id)
		}
	}
	if !eq.IsEmpty() {
		t.Errorf("expected empty queue, got %d", eq.Size())
	}
}

func TestEventQueueNextDue(t *testing.T) {
	eq := NewEventQueue()
	base := time.Unix(0, 0)
	eq.Schedule(&Event{ID: "a", Time: base.Add(100 * time.Millisecond)})

	if ev := eq.NextDue(base.Add(99 * time.Millisecond)); ev != nil {
		t.Errorf("event should not be due yet, got %s", ev.ID)
	}
	if ev := eq.NextDue(base.Add(100 * time.Millisecond)); ev == nil || ev.ID != "a" {
		t.Errorf("expected event a to be due at its own time")
	}
}

func TestEventQueueRemove(t *testing.T) {
	eq := NewEventQueue()
	base := time.Unix(0, 0)
	events := make([]*Event, 5)
	for i := range events {
		events[i] = &Event{Time: base.Add(time.Duration(i) * time.Second)}
		eq.Schedule(events[i])
	}

	if !eq.Remove(events[2]) {
		t.Fatal("Remove should report a queued event")
	}
	if eq.Remove(events[2]) {
		t.Error("second Remove of the same event should be false")
	}
	if eq.Size() != 4 {
		t.Errorf("expected 4 events, got %d", eq.Size())
	}

	for _, want := range []*Event{events[0], events[1], events[3], events[4]} {
		if got := eq.NextDue(base.Add(time.Minute)); got != want {
			t.Errorf("unexpected pop order after Remove")
		}
	}
}

func TestEventQueueClear(t *testing.T) {
	eq := NewEventQueue()
	ev := &Event{Time: time.Now()}
	eq.Schedule(ev)
	eq.Clear()

	if !eq.IsEmpty() {
		t.Error("queue should be empty after Clear")
	}
	if eq.Peek() != nil {
		t.Error("Peek should return nil on empty queue")
	}
	if eq.Remove(ev) {
		t.Error("cleared event should not be removable")
	}
}
