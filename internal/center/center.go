// Package center runs the mock optimization: a progress driver and a
// solution-space simulator scheduled on one virtual clock, with a completion
// signal raised exactly once per run.
package center

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/internal/engine"
	"github.com/GoSim-25-26J-441/optimization-center/internal/improvement"
	"github.com/GoSim-25-26J-441/optimization-center/internal/metrics"
	"github.com/GoSim-25-26J-441/optimization-center/internal/notify"
	"github.com/GoSim-25-26J-441/optimization-center/internal/params"
	"github.com/GoSim-25-26J-441/optimization-center/internal/presenter"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

var (
	ErrUnbalancedWeights = errors.New("weights must sum to 100")
	ErrRunInProgress     = errors.New("a run is already in progress")
	ErrNotMounted        = errors.New("center is not mounted")
	ErrNoResult          = errors.New("no completed run")
)

const (
	tickPriority  = 0
	framePriority = 1
)

// Center is the optimization center of one dashboard session
type Center struct {
	sessionID string
	cfg       config.RunConfig
	bus       *notify.Bus
	engine    *engine.Engine
	presenter *presenter.Presenter
	params    *params.Store
	rng       *utils.RandSource
	collector *metrics.Collector
	logger    *slog.Logger

	mu          sync.Mutex
	mounted     bool
	loading     bool
	loadingEv   *engine.Event
	state       models.RunState
	generation  uint64
	runID       string
	ticks       int
	progress    float64
	runParams   models.OptimizationParams
	sim         *improvement.Simulator
	tickTask    *engine.Task
	frameTask   *engine.Task
	signal      *notify.OnceSignal
	startedAt   time.Time
	completedAt time.Time
	result      *models.ResultSummary
	last        *models.CompletionEvent
	completions int

	watchMu  sync.RWMutex
	watchID  uint64
	watchers map[uint64]func(Snapshot)
}

// Option configures a Center
type Option func(*Center)

// WithSessionID sets the session the center belongs to
func WithSessionID(id string) Option {
	return func(c *Center) { c.sessionID = id }
}

// WithEngine drives the center from an existing scheduler
func WithEngine(e *engine.Engine) Option {
	return func(c *Center) { c.engine = e }
}

// WithRand sets the random source behind every run
func WithRand(rng *utils.RandSource) Option {
	return func(c *Center) { c.rng = rng }
}

// WithLogger sets the center logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Center) { c.logger = l }
}

// New creates an idle, unmounted center
func New(cfg *config.Config, bus *notify.Bus, opts ...Option) *Center {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Center{
		cfg:       cfg.Run,
		bus:       bus,
		presenter: presenter.New(presenter.Mode(cfg.Presenter.Mode)),
		params:    params.NewStore(cfg.Defaults.Params()),
		collector: metrics.NewCollector(),
		state:     models.RunStateIdle,
		watchers:  make(map[uint64]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessionID == "" {
		c.sessionID = utils.GenerateSessionID()
	}
	if c.bus == nil {
		c.bus = notify.NewBus()
	}
	if c.engine == nil {
		c.engine = engine.NewEngine("center-" + c.sessionID)
	}
	if c.rng == nil {
		c.rng = utils.NewRandSource(cfg.Run.Seed)
	}
	if c.logger == nil {
		c.logger = logger.ForSession(c.sessionID)
	}
	return c
}

// SessionID returns the session the center belongs to
func (c *Center) SessionID() string {
	return c.sessionID
}

// Params returns the parameter store
func (c *Center) Params() *params.Store {
	return c.params
}

// Engine returns the scheduler driving the center
func (c *Center) Engine() *engine.Engine {
	return c.engine
}

// Bus returns the bus completion events are published on
func (c *Center) Bus() *notify.Bus {
	return c.bus
}

// Metrics returns the telemetry of the current or last run
func (c *Center) Metrics() *metrics.Collector {
	return c.collector
}

// Seed returns the seed of the center's random source
func (c *Center) Seed() int64 {
	return c.rng.Seed()
}

// Mount attaches the center to a view and shows the loading placeholder
// until LoadingDelay has elapsed on the scheduler
func (c *Center) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted {
		return
	}
	c.mounted = true
	c.loading = c.cfg.LoadingDelay > 0
	if c.loading {
		c.loadingEv = c.engine.ScheduleAfter(engine.EventTypeLoaded, c.cfg.LoadingDelay, c.onLoaded)
	}
	c.logger.Info("Session mounted", "loading_delay", c.cfg.LoadingDelay)
}

func (c *Center) onLoaded(time.Time) {
	c.mu.Lock()
	c.loading = false
	c.loadingEv = nil
	snap := c.snapshotLocked(DefaultTopN)
	c.mu.Unlock()
	c.emit(snap)
}

// Unmount detaches the center, discarding any run and cancelling every
// scheduled callback. Watchers are dropped.
func (c *Center) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	if c.loadingEv != nil {
		c.engine.Cancel(c.loadingEv)
		c.loadingEv = nil
	}
	c.loading = false
	c.mounted = false
	c.mu.Unlock()

	c.watchMu.Lock()
	c.watchers = make(map[uint64]func(Snapshot))
	c.watchMu.Unlock()
	c.logger.Info("Session unmounted")
}

// Mounted reports whether the center is mounted
func (c *Center) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

// Loading reports whether the loading placeholder is still showing
func (c *Center) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// CanRun reports whether the run control is enabled
func (c *Center) CanRun() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted && c.params.CanRun(c.state == models.RunStateRunning)
}

// Start begins a run with the current parameters. Starting from the
// complete state discards the previous result.
func (c *Center) Start() (string, error) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return "", ErrNotMounted
	}
	if c.state == models.RunStateRunning {
		runID := c.runID
		c.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrRunInProgress, runID)
	}
	if !c.params.IsBalanced() {
		total := c.params.TotalWeights()
		c.mu.Unlock()
		return "", fmt.Errorf("%w: total is %.0f", ErrUnbalancedWeights, total)
	}

	if c.state == models.RunStateComplete {
		c.resetLocked()
	}

	c.generation++
	gen := c.generation
	now := c.engine.Now()

	c.runID = utils.GenerateRunID()
	c.runParams = c.params.Params()
	c.sim = improvement.NewSimulator(c.rng, improvement.ConfigFromRun(c.cfg))
	c.sim.Seed(c.runParams.Weights)
	c.ticks = 0
	c.progress = 0
	c.state = models.RunStateRunning
	c.startedAt = now
	c.signal = notify.NewOnceSignal(c.bus)

	c.collector.Clear()
	c.collector.Start(now)
	metrics.RecordProgress(c.collector, 0, now)
	metrics.RecordBest(c.collector, c.sim.Best(), now)

	c.tickTask = c.engine.Every(engine.EventTypeProgressTick, c.cfg.TickInterval, tickPriority, func(at time.Time) {
		c.onTick(gen, at)
	})
	c.frameTask = c.engine.Every(engine.EventTypeFrame, c.cfg.FrameInterval, framePriority, func(at time.Time) {
		c.onFrame(gen, at)
	})
	runID := c.runID
	snap := c.snapshotLocked(DefaultTopN)
	c.mu.Unlock()

	c.logger.Info("Run started",
		"run_id", runID,
		"strength", c.runParams.Strength,
		"ticks", c.cfg.Ticks(),
		"seed", c.rng.Seed())
	c.emit(snap)
	return runID, nil
}

func (c *Center) onFrame(gen uint64, _ time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.state != models.RunStateRunning {
		return
	}
	c.sim.Step(c.runParams.Weights)
}

func (c *Center) onTick(gen uint64, now time.Time) {
	c.mu.Lock()
	if gen != c.generation || c.state != models.RunStateRunning {
		c.mu.Unlock()
		return
	}

	c.ticks++
	if c.ticks >= c.cfg.Ticks() {
		c.progress = 100
	} else {
		c.progress = float64(c.ticks) * c.cfg.ProgressStep
	}
	metrics.RecordProgress(c.collector, c.progress, now)
	metrics.RecordBest(c.collector, c.sim.Best(), now)
	metrics.RecordIteration(c.collector, c.sim.Iteration(), now)
	metrics.RecordConstraints(c.collector, c.sim.Constraints(), now)

	if c.progress < 100 {
		snap := c.snapshotLocked(DefaultTopN)
		c.mu.Unlock()
		c.emit(snap)
		return
	}

	ev := c.completeLocked(now)
	signal := c.signal
	snap := c.snapshotLocked(DefaultTopN)
	c.mu.Unlock()

	c.logger.Info("Run completed",
		"run_id", ev.RunID,
		"iterations", ev.Iterations,
		"best_score", ev.Best.Score,
		"duration", ev.CompletedAt.Sub(ev.StartedAt))
	signal.Fire(ev)
	c.emit(snap)
}

// completeLocked stops both periodic tasks and builds the completion event.
// Caller must hold c.mu.
func (c *Center) completeLocked(now time.Time) models.CompletionEvent {
	c.tickTask.Cancel()
	c.frameTask.Cancel()
	c.tickTask, c.frameTask = nil, nil

	c.state = models.RunStateComplete
	c.completedAt = now
	c.collector.Stop(now)

	result := c.presenter.Present(c.sim.Baseline(), c.sim.Best(), c.runParams.Weights)
	c.result = &result

	ev := models.CompletionEvent{
		SessionID:   c.sessionID,
		RunID:       c.runID,
		Params:      c.runParams,
		Best:        c.sim.Best(),
		Result:      result,
		Iterations:  c.sim.Iteration(),
		Seed:        c.rng.Seed(),
		StartedAt:   c.startedAt,
		CompletedAt: now,
	}
	c.last = &ev
	c.completions++
	return ev
}

// Reset discards the current run and returns to idle. Parameters are kept.
func (c *Center) Reset() {
	c.mu.Lock()
	runID, state := c.runID, c.state
	c.resetLocked()
	snap := c.snapshotLocked(DefaultTopN)
	c.mu.Unlock()

	if state != models.RunStateIdle {
		c.logger.Info("Run reset", "run_id", runID, "from_state", state.String())
	}
	c.emit(snap)
}

func (c *Center) resetLocked() {
	c.generation++
	if c.tickTask != nil {
		c.tickTask.Cancel()
	}
	if c.frameTask != nil {
		c.frameTask.Cancel()
	}
	c.tickTask, c.frameTask = nil, nil
	c.state = models.RunStateIdle
	c.runID = ""
	c.ticks = 0
	c.progress = 0
	c.runParams = models.OptimizationParams{}
	c.sim = nil
	c.signal = nil
	c.startedAt = time.Time{}
	c.completedAt = time.Time{}
	c.result = nil
	c.collector.Clear()
}

// State returns the run state
func (c *Center) State() models.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Progress returns the run progress in percent
func (c *Center) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Result returns the summary of the completed run
func (c *Center) Result() (models.ResultSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != models.RunStateComplete || c.result == nil {
		return models.ResultSummary{}, ErrNoResult
	}
	return *c.result, nil
}

// SelectBest picks the candidate of the current run that objective ranks
// first. It fails with ErrNoResult while no run is loaded.
func (c *Center) SelectBest(objective improvement.ObjectiveFunction) (models.CandidateSolution, error) {
	c.mu.Lock()
	sim := c.sim
	c.mu.Unlock()
	if sim == nil {
		return models.CandidateSolution{}, ErrNoResult
	}
	return sim.SelectBest(objective)
}

// LastCompletion returns the most recent completion event, surviving reset
func (c *Center) LastCompletion() (models.CompletionEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return models.CompletionEvent{}, false
	}
	return *c.last, true
}

// Completions returns how many runs have completed on this center
func (c *Center) Completions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completions
}
