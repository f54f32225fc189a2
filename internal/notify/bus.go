// Package notify carries the completion signal of a run to whoever is
// listening: in-process subscribers through Bus, external systems through
// Webhook.
package notify

import (
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// Handler receives completion events
type Handler func(models.CompletionEvent)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a typed in-process publish/subscribe channel for completion events.
// Handlers run synchronously on the publisher's goroutine in subscription
// order and must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
	logger *slog.Logger
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{logger: logger.Default}
}

// SetLogger sets the bus logger
func (b *Bus) SetLogger(l *slog.Logger) {
	b.logger = l
}

// Subscribe registers h and returns a function that removes it. The returned
// function is safe to call more than once.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every current subscriber and returns how many
// handlers ran without panicking. A handler that unsubscribes during
// delivery still receives the event being published.
func (b *Bus) Publish(ev models.CompletionEvent) int {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if b.deliver(s, ev) {
			delivered++
		}
	}
	b.logger.Debug("Completion event published",
		"event", models.CompletionEventName,
		"run_id", ev.RunID,
		"session_id", ev.SessionID,
		"subscribers", len(subs),
		"delivered", delivered)
	return delivered
}

func (b *Bus) deliver(s subscription, ev models.CompletionEvent) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Completion subscriber panicked",
				"run_id", ev.RunID,
				"subscription", s.id,
				"panic", r)
			ok = false
		}
	}()
	s.handler(ev)
	return true
}

// Subscribers returns the number of active subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// OnceSignal publishes on a bus at most once
type OnceSignal struct {
	mu    sync.Mutex
	bus   *Bus
	fired bool
}

// NewOnceSignal creates an unfired signal for bus
func NewOnceSignal(bus *Bus) *OnceSignal {
	return &OnceSignal{bus: bus}
}

// Fire publishes ev if the signal has not fired yet and reports whether it
// did
func (s *OnceSignal) Fire(ev models.CompletionEvent) bool {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return false
	}
	s.fired = true
	s.mu.Unlock()

	s.bus.Publish(ev)
	return true
}

// Fired reports whether Fire has published
func (s *OnceSignal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
