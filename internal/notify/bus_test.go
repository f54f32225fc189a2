package notify

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

func TestBusPublishInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe(func(models.CompletionEvent) { order = append(order, "a") })
	bus.Subscribe(func(models.CompletionEvent) { order = append(order, "b") })
	bus.Subscribe(func(models.CompletionEvent) { order = append(order, "c") })

	if n := bus.Publish(models.CompletionEvent{RunID: "run-1"}); n != 3 {
		t.Errorf("Publish() delivered to %d, want 3", n)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("delivery order = %v", order)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	var a, b int
	unsubA := bus.Subscribe(func(models.CompletionEvent) { a++ })
	bus.Subscribe(func(models.CompletionEvent) { b++ })

	bus.Publish(models.CompletionEvent{})
	unsubA()
	unsubA()
	bus.Publish(models.CompletionEvent{})

	if a != 1 {
		t.Errorf("unsubscribed handler ran %d times, want 1", a)
	}
	if b != 2 {
		t.Errorf("remaining handler ran %d times, want 2", b)
	}
	if bus.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", bus.Subscribers())
	}
}

func TestBusUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	var unsub func()
	calls := 0
	unsub = bus.Subscribe(func(models.CompletionEvent) {
		calls++
		unsub()
	})
	other := 0
	bus.Subscribe(func(models.CompletionEvent) { other++ })

	bus.Publish(models.CompletionEvent{})
	bus.Publish(models.CompletionEvent{})

	if calls != 1 {
		t.Errorf("self-unsubscribing handler ran %d times, want 1", calls)
	}
	if other != 2 {
		t.Errorf("other handler ran %d times, want 2", other)
	}
}

func TestBusPanickingSubscriberIsIsolated(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(func(models.CompletionEvent) { panic("boom") })
	got := false
	bus.Subscribe(func(models.CompletionEvent) { got = true })

	if n := bus.Publish(models.CompletionEvent{}); n != 1 {
		t.Errorf("Publish() = %d, want 1", n)
	}
	if !got {
		t.Error("subscriber after a panicking one should still run")
	}
}

func TestBusConcurrentSubscribe(t *testing.T) {
	bus := NewBus()
	var total int64
	var wg sync.WaitGroup
	unsubs := make([]func(), 20)
	for i := range unsubs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unsubs[i] = bus.Subscribe(func(models.CompletionEvent) { atomic.AddInt64(&total, 1) })
		}(i)
	}
	wg.Wait()

	bus.Publish(models.CompletionEvent{})
	if atomic.LoadInt64(&total) != 20 {
		t.Errorf("delivered %d, want 20", total)
	}
	for _, u := range unsubs {
		u()
	}
	if bus.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after unsubscribing all", bus.Subscribers())
	}
}

func TestOnceSignal(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.Subscribe(func(models.CompletionEvent) { count++ })

	sig := NewOnceSignal(bus)
	if sig.Fired() {
		t.Error("new signal should not have fired")
	}
	if !sig.Fire(models.CompletionEvent{RunID: "r"}) {
		t.Error("first Fire should publish")
	}
	if sig.Fire(models.CompletionEvent{RunID: "r"}) {
		t.Error("second Fire should not publish")
	}
	if !sig.Fired() {
		t.Error("Fired() should be true")
	}
	if count != 1 {
		t.Errorf("subscriber saw %d events, want 1", count)
	}
}

func TestOnceSignalConcurrentFire(t *testing.T) {
	bus := NewBus()
	var count int64
	bus.Subscribe(func(models.CompletionEvent) { atomic.AddInt64(&count, 1) })
	sig := NewOnceSignal(bus)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig.Fire(models.CompletionEvent{})
		}()
	}
	wg.Wait()
	if count != 1 {
		t.Errorf("concurrent Fire published %d times, want 1", count)
	}
}
