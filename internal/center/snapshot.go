package center

import (
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// DefaultTopN is how many ranked candidates a snapshot carries by default
const DefaultTopN = 10

// Snapshot is a point-in-time view of a center
type Snapshot struct {
	SessionID         string                     `json:"session_id"`
	State             models.RunState            `json:"state"`
	RunID             string                     `json:"run_id,omitempty"`
	Progress          float64                    `json:"progress"`
	Iteration         int                        `json:"iteration"`
	Params            models.OptimizationParams  `json:"params"`
	TotalWeights      float64                    `json:"total_weights"`
	Balanced          bool                       `json:"balanced"`
	CanRun            bool                       `json:"can_run"`
	Loading           bool                       `json:"loading"`
	Best              *models.CandidateSolution  `json:"best,omitempty"`
	Solutions         []models.CandidateSolution `json:"solutions,omitempty"`
	Constraints       []models.ConstraintDisplay `json:"constraints,omitempty"`
	Converged         bool                       `json:"converged,omitempty"`
	ConvergenceReason string                     `json:"convergence_reason,omitempty"`
	Result            *models.ResultSummary      `json:"result,omitempty"`
	StartedAt         *time.Time                 `json:"started_at,omitempty"`
	CompletedAt       *time.Time                 `json:"completed_at,omitempty"`
}

// Snapshot returns the current view with at most topN ranked candidates.
// topN <= 0 returns the whole population.
func (c *Center) Snapshot(topN int) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(topN)
}

func (c *Center) snapshotLocked(topN int) Snapshot {
	running := c.state == models.RunStateRunning
	snap := Snapshot{
		SessionID:    c.sessionID,
		State:        c.state,
		RunID:        c.runID,
		Progress:     c.progress,
		Params:       c.params.Params(),
		TotalWeights: c.params.TotalWeights(),
		Balanced:     c.params.IsBalanced(),
		CanRun:       c.mounted && c.params.CanRun(running),
		Loading:      c.loading,
	}
	if c.sim != nil {
		best := c.sim.Best()
		snap.Best = &best
		snap.Iteration = c.sim.Iteration()
		snap.Solutions = c.sim.Top(topN)
		snap.Constraints = c.sim.Constraints()
		snap.Converged, snap.ConvergenceReason = c.sim.Converged()
	}
	if c.result != nil {
		result := *c.result
		snap.Result = &result
	}
	if !c.startedAt.IsZero() {
		started := c.startedAt
		snap.StartedAt = &started
	}
	if !c.completedAt.IsZero() {
		completed := c.completedAt
		snap.CompletedAt = &completed
	}
	return snap
}

// Watch registers fn to receive a snapshot on every progress tick and state
// change. fn runs on the scheduler goroutine and must not block.
func (c *Center) Watch(fn func(Snapshot)) (cancel func()) {
	c.watchMu.Lock()
	c.watchID++
	id := c.watchID
	c.watchers[id] = fn
	c.watchMu.Unlock()

	return func() {
		c.watchMu.Lock()
		delete(c.watchers, id)
		c.watchMu.Unlock()
	}
}

// Watchers returns the number of registered watchers
func (c *Center) Watchers() int {
	c.watchMu.RLock()
	defer c.watchMu.RUnlock()
	return len(c.watchers)
}

// emit hands snap, taken under c.mu by the caller, to every watcher
func (c *Center) emit(snap Snapshot) {
	c.watchMu.RLock()
	if len(c.watchers) == 0 {
		c.watchMu.RUnlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.watchMu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
