package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
)

// Engine is a virtual-time scheduler. Timers and frame loops are both
// periodic tasks on the same queue, so time can be driven by the wall clock
// (RunRealTime) or fast-forwarded (Advance).
type Engine struct {
	name         string
	eventQueue   *EventQueue
	clock        *virtualClock
	logger       *slog.Logger
	eventCounter int64
	processed    int64
	stopped      atomic.Bool
	advanceMu    sync.Mutex
}

// Task is a periodic callback registered with Every
type Task struct {
	engine    *Engine
	eventType EventType
	period    time.Duration
	priority  int
	handler   Handler

	mu        sync.Mutex
	next      *Event
	cancelled bool
	runs      int64
}

// NewEngine creates a new scheduler whose virtual clock starts at the
// current wall-clock time
func NewEngine(name string) *Engine {
	return NewEngineAt(name, time.Now())
}

// NewEngineAt creates a scheduler whose virtual clock starts at start
func NewEngineAt(name string, start time.Time) *Engine {
	return &Engine{
		name:       name,
		eventQueue: NewEventQueue(),
		clock:      newVirtualClock(start),
		logger:     logger.Default,
	}
}

// SetLogger sets the engine's logger
func (e *Engine) SetLogger(l *slog.Logger) {
	e.logger = l
}

// Now returns the current virtual time
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// ScheduleAt schedules a one-shot handler at a specific virtual time.
// It returns nil once the engine has been stopped.
func (e *Engine) ScheduleAt(eventType EventType, at time.Time, handler Handler) *Event {
	if e.stopped.Load() {
		return nil
	}
	event := &Event{
		Type:    eventType,
		Time:    at,
		handler: handler,
	}
	e.schedule(event)
	return event
}

// ScheduleAfter schedules a one-shot handler after a delay from the current
// virtual time
func (e *Engine) ScheduleAfter(eventType EventType, delay time.Duration, handler Handler) *Event {
	return e.ScheduleAt(eventType, e.clock.Now().Add(delay), handler)
}

// Cancel removes a pending one-shot event
func (e *Engine) Cancel(event *Event) bool {
	if event == nil {
		return false
	}
	return e.eventQueue.Remove(event)
}

// Every registers a periodic task firing every period, first at now+period.
// Each firing is scheduled from the previous firing time, so the cadence
// does not drift with handler cost. Events at the same instant run in
// ascending priority.
func (e *Engine) Every(eventType EventType, period time.Duration, priority int, handler Handler) *Task {
	if period <= 0 {
		panic(fmt.Sprintf("engine: non-positive period %v for %s", period, eventType))
	}
	task := &Task{
		engine:    e,
		eventType: eventType,
		period:    period,
		priority:  priority,
		handler:   handler,
	}
	if e.stopped.Load() {
		task.cancelled = true
		return task
	}

	task.mu.Lock()
	task.next = &Event{
		Type:     eventType,
		Time:     e.clock.Now().Add(period),
		Priority: priority,
		task:     task,
	}
	e.schedule(task.next)
	task.mu.Unlock()
	return task
}

func (e *Engine) schedule(event *Event) {
	counter := atomic.AddInt64(&e.eventCounter, 1)
	if event.ID == "" {
		event.ID = fmt.Sprintf("evt-%d", counter)
	}
	e.eventQueue.Schedule(event)

	e.logger.Debug("Event scheduled",
		"engine", e.name,
		"event_id", event.ID,
		"type", event.Type,
		"time", event.Time,
		"queue_size", e.eventQueue.Size())
}

// Cancel stops the task. A firing that is already in progress completes but
// is not rescheduled.
func (t *Task) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	next := t.next
	t.next = nil
	t.mu.Unlock()

	if next != nil {
		t.engine.eventQueue.Remove(next)
	}
}

// Cancelled reports whether Cancel has been called
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Runs returns how many times the task has fired
func (t *Task) Runs() int64 {
	return atomic.LoadInt64(&t.runs)
}

// Advance moves virtual time forward by d, firing every event that falls due
// in order. It returns the number of handlers invoked.
func (e *Engine) Advance(d time.Duration) int {
	e.advanceMu.Lock()
	defer e.advanceMu.Unlock()

	target := e.clock.Now().Add(d)
	fired := 0
	for !e.stopped.Load() {
		event := e.eventQueue.NextDue(target)
		if event == nil {
			break
		}
		e.clock.MoveTo(event.Time)
		if e.dispatch(event) {
			fired++
		}
	}
	e.clock.MoveTo(target)
	return fired
}

// AdvanceUntil advances in steps of step until done reports true or max
// virtual time has elapsed. It returns the virtual time that elapsed.
func (e *Engine) AdvanceUntil(done func() bool, step, max time.Duration) time.Duration {
	start := e.clock.Now()
	for !done() && e.clock.Since(start) < max && !e.stopped.Load() {
		e.Advance(step)
	}
	return e.clock.Since(start)
}

func (e *Engine) dispatch(event *Event) bool {
	task := event.task
	if task == nil {
		e.logger.Debug("Processing event", "engine", e.name, "event_id", event.ID, "type", event.Type, "time", event.Time)
		event.handler(event.Time)
		atomic.AddInt64(&e.processed, 1)
		return true
	}

	task.mu.Lock()
	if task.cancelled {
		task.mu.Unlock()
		return false
	}
	task.next = nil
	task.mu.Unlock()

	task.handler(event.Time)
	atomic.AddInt64(&task.runs, 1)
	atomic.AddInt64(&e.processed, 1)

	task.mu.Lock()
	defer task.mu.Unlock()
	if task.cancelled || e.stopped.Load() {
		return true
	}
	task.next = &Event{
		Type:     task.eventType,
		Time:     event.Time.Add(task.period),
		Priority: task.priority,
		task:     task,
	}
	e.schedule(task.next)
	return true
}

// RunRealTime drives the virtual clock from the wall clock until ctx is done
// or the engine is stopped. resolution bounds how late an event can fire.
func (e *Engine) RunRealTime(ctx context.Context, resolution time.Duration) error {
	if resolution <= 0 {
		resolution = 5 * time.Millisecond
	}
	e.logger.Info("Starting real-time clock", "engine", e.name, "resolution", resolution)

	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if e.stopped.Load() {
				return nil
			}
			e.Advance(now.Sub(last))
			last = now
		}
	}
}

// Stop cancels everything still queued. Later scheduling is ignored.
func (e *Engine) Stop() {
	if e.stopped.Swap(true) {
		return
	}
	e.eventQueue.Clear()
	e.logger.Info("Engine stopped", "engine", e.name, "events_processed", atomic.LoadInt64(&e.processed))
}

// Stopped reports whether Stop has been called
func (e *Engine) Stopped() bool {
	return e.stopped.Load()
}

// Pending returns the number of queued events
func (e *Engine) Pending() int {
	return e.eventQueue.Size()
}

// Processed returns the number of handlers invoked so far
func (e *Engine) Processed() int64 {
	return atomic.LoadInt64(&e.processed)
}

// GetStats returns current scheduler statistics
func (e *Engine) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"engine":           e.name,
		"sim_time":         e.clock.Now().Format(time.RFC3339Nano),
		"events_in_queue":  e.Pending(),
		"events_scheduled": atomic.LoadInt64(&e.eventCounter),
		"events_processed": e.Processed(),
		"stopped":          e.stopped.Load(),
	}
}
