package improvement

import "fmt"

// ScorePoint is the leader's score after one iteration.
type ScorePoint struct {
	Iteration int
	Score     float64
}

// ConvergenceCheck inspects the leader's score history.
type ConvergenceCheck interface {
	Name() string
	Check(history []ScorePoint) (converged bool, reason string)
}

// ConvergenceConfig sizes the convergence windows, in iterations.
type ConvergenceConfig struct {
	Warmup        int     // no verdict before this many points
	Patience      int     // stall window for StallCheck
	PlateauWindow int     // trailing window for PlateauCheck
	Tolerance     float64 // score deltas at or below this are noise
}

// DefaultConvergenceConfig spans several nudge rounds, since scores only
// move on every 10th iteration.
func DefaultConvergenceConfig() *ConvergenceConfig {
	return &ConvergenceConfig{
		Warmup:        30,
		Patience:      100,
		PlateauWindow: 100,
		Tolerance:     0.001,
	}
}

func orDefault(cfg *ConvergenceConfig) ConvergenceConfig {
	if cfg == nil {
		return *DefaultConvergenceConfig()
	}
	return *cfg
}

// StallCheck converges once the best score has not been beaten for
// Patience iterations.
type StallCheck struct {
	cfg ConvergenceConfig
}

func NewStallCheck(cfg *ConvergenceConfig) *StallCheck {
	return &StallCheck{cfg: orDefault(cfg)}
}

func (StallCheck) Name() string { return "stall" }

func (c *StallCheck) Check(history []ScorePoint) (bool, string) {
	if len(history) < c.cfg.Warmup || len(history) == 0 {
		return false, ""
	}
	peak := 0
	for i := 1; i < len(history); i++ {
		if history[i].Score-history[peak].Score > c.cfg.Tolerance {
			peak = i
		}
	}
	stalled := len(history) - 1 - peak
	if stalled < c.cfg.Patience {
		return false, ""
	}
	return true, fmt.Sprintf("best score %.3f from iteration %d unbeaten for %d iterations",
		history[peak].Score, history[peak].Iteration, stalled)
}

// PlateauCheck converges once the trailing PlateauWindow scores sit within
// Tolerance of each other.
type PlateauCheck struct {
	cfg ConvergenceConfig
}

func NewPlateauCheck(cfg *ConvergenceConfig) *PlateauCheck {
	return &PlateauCheck{cfg: orDefault(cfg)}
}

func (PlateauCheck) Name() string { return "plateau" }

func (c *PlateauCheck) Check(history []ScorePoint) (bool, string) {
	w := c.cfg.PlateauWindow
	if w <= 0 || len(history) < w || len(history) < c.cfg.Warmup {
		return false, ""
	}
	lo, hi := history[len(history)-w].Score, history[len(history)-w].Score
	for _, p := range history[len(history)-w:] {
		lo, hi = min(lo, p.Score), max(hi, p.Score)
	}
	if hi-lo > c.cfg.Tolerance {
		return false, ""
	}
	return true, fmt.Sprintf("scores within %.6f over the last %d iterations", hi-lo, w)
}

// AnyOf converges when the first of its checks does.
type AnyOf []ConvergenceCheck

// DefaultConvergence runs the stall check, then the plateau check.
func DefaultConvergence(cfg *ConvergenceConfig) AnyOf {
	return AnyOf{NewStallCheck(cfg), NewPlateauCheck(cfg)}
}

func (AnyOf) Name() string { return "any" }

func (a AnyOf) Check(history []ScorePoint) (bool, string) {
	for _, c := range a {
		if ok, reason := c.Check(history); ok {
			return true, c.Name() + ": " + reason
		}
	}
	return false, ""
}
