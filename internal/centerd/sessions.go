// Package centerd serves optimization center sessions over HTTP and gRPC.
package centerd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/internal/center"
	"github.com/GoSim-25-26J-441/optimization-center/internal/engine"
	"github.com/GoSim-25-26J-441/optimization-center/internal/notify"
	"github.com/GoSim-25-26J-441/optimization-center/internal/routeview"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionIDMissing = errors.New("session_id is required")
	ErrSessionExists    = errors.New("session already exists")
)

const defaultClockResolution = 5 * time.Millisecond

// Session is one mounted dashboard: its center and its route view
type Session struct {
	ID        string
	CreatedAt time.Time
	Center    *center.Center
	View      *routeview.View

	cancel context.CancelFunc
	done   chan struct{}
}

// Start begins a run on the session's center
func (s *Session) Start() (string, error) {
	runID, err := s.Center.Start()
	if err == nil {
		s.View.Restart(runID)
	}
	return runID, err
}

// Reset discards the session's run and returns the route view to preview
func (s *Session) Reset() {
	s.Center.Reset()
	s.View.Reset()
}

// Done is closed once the session has been deleted
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// StoreOption configures a SessionStore
type StoreOption func(*SessionStore)

// WithVirtualClock leaves session engines undriven so callers advance them
// explicitly
func WithVirtualClock(start time.Time) StoreOption {
	return func(s *SessionStore) {
		s.virtual = true
		s.virtualStart = start
	}
}

// WithClockResolution sets how often real-time engines advance
func WithClockResolution(d time.Duration) StoreOption {
	return func(s *SessionStore) { s.resolution = d }
}

// SessionStore owns the mounted sessions
type SessionStore struct {
	cfg          *config.Config
	bus          *notify.Bus
	virtual      bool
	virtualStart time.Time
	resolution   time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store whose sessions publish completions
// on bus
func NewSessionStore(cfg *config.Config, bus *notify.Bus, opts ...StoreOption) *SessionStore {
	if cfg == nil {
		cfg = config.Default()
	}
	if bus == nil {
		bus = notify.NewBus()
	}
	s := &SessionStore{
		cfg:        cfg,
		bus:        bus,
		resolution: defaultClockResolution,
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the bus completions are published on
func (s *SessionStore) Bus() *notify.Bus {
	return s.bus
}

// Config returns the configuration sessions are created with
func (s *SessionStore) Config() *config.Config {
	return s.cfg
}

// Create mounts a new session. An empty id is replaced by a generated one.
func (s *SessionStore) Create(id string) (*Session, error) {
	if id == "" {
		id = utils.GenerateSessionID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	var eng *engine.Engine
	if s.virtual {
		eng = engine.NewEngineAt("session-"+id, s.virtualStart)
	} else {
		eng = engine.NewEngine("session-" + id)
	}
	eng.SetLogger(logger.ForSession(id))

	c := center.New(s.cfg, s.bus, center.WithSessionID(id), center.WithEngine(eng))
	view := routeview.New(s.bus, id)
	c.Mount()
	view.Mount()

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Center:    c,
		View:      view,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	if !s.virtual {
		go func() {
			if err := eng.RunRealTime(ctx, s.resolution); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("session clock stopped", "session_id", id, "error", err)
			}
		}()
	}
	s.sessions[id] = sess

	logger.Info("session created", "session_id", id, "virtual_clock", s.virtual)
	return sess, nil
}

// Get returns a session by id
func (s *SessionStore) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionIDMissing
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// List returns every session, oldest first
func (s *SessionStore) List() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete unmounts a session, cancelling its run and stopping its clock
func (s *SessionStore) Delete(id string) error {
	if id == "" {
		return ErrSessionIDMissing
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.teardown(sess)
	logger.Info("session deleted", "session_id", id)
	return nil
}

func (s *SessionStore) teardown(sess *Session) {
	sess.View.Unmount()
	sess.Center.Unmount()
	sess.cancel()
	sess.Center.Engine().Stop()
	close(sess.done)
}

// Close deletes every session
func (s *SessionStore) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		s.teardown(sess)
	}
}

// Len returns the number of mounted sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
