package improvement

import (
	"sync"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

// Config controls the population size and the improvement cadence
type Config struct {
	SolutionCount int
	ImproveEvery  int // nudge candidates on every Nth iteration
	PerturbEvery  int // jitter constraint gauges on every Nth iteration
	Convergence   *ConvergenceConfig
}

// DefaultConfig returns 40 candidates, nudged every 10th and perturbed every
// 15th iteration
func DefaultConfig() Config {
	return Config{
		SolutionCount: 40,
		ImproveEvery:  10,
		PerturbEvery:  15,
		Convergence:   DefaultConvergenceConfig(),
	}
}

// ConfigFromRun derives simulator settings from the run configuration
func ConfigFromRun(run config.RunConfig) Config {
	cfg := DefaultConfig()
	if run.SolutionCount > 0 {
		cfg.SolutionCount = run.SolutionCount
	}
	if run.ImproveEvery > 0 {
		cfg.ImproveEvery = run.ImproveEvery
	}
	if run.PerturbEvery > 0 {
		cfg.PerturbEvery = run.PerturbEvery
	}
	return cfg
}

// Simulator owns the candidate population of one run
type Simulator struct {
	cfg         Config
	explorer    *Explorer
	selection   SelectionStrategy
	convergence ConvergenceCheck

	mu          sync.RWMutex
	solutions   []models.CandidateSolution
	constraints []models.ConstraintDisplay
	baseline    models.CandidateSolution
	iteration   int
	history     []ScorePoint
}

// NewSimulator creates a simulator drawing from rng
func NewSimulator(rng *utils.RandSource, cfg Config) *Simulator {
	if cfg.SolutionCount <= 0 {
		cfg.SolutionCount = DefaultConfig().SolutionCount
	}
	if cfg.ImproveEvery <= 0 {
		cfg.ImproveEvery = DefaultConfig().ImproveEvery
	}
	if cfg.PerturbEvery <= 0 {
		cfg.PerturbEvery = DefaultConfig().PerturbEvery
	}
	return &Simulator{
		cfg:         cfg,
		explorer:    NewDefaultExplorer(rng),
		selection:   &BestScoreStrategy{},
		convergence: DefaultConvergence(cfg.Convergence),
	}
}

// Seed replaces the population with freshly drawn candidates and gauges,
// ranks them under weights and records the leader as the baseline
func (s *Simulator) Seed(weights models.Weights) {
	solutions := make([]models.CandidateSolution, s.cfg.SolutionCount)
	for i := range solutions {
		solutions[i] = s.explorer.NewCandidate(i)
	}
	constraints := s.explorer.NewConstraints()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.solutions = solutions
	s.constraints = constraints
	s.iteration = 0
	s.history = nil
	s.rescore(weights)
	s.baseline = s.solutions[0]
}

// Step advances one frame: nudges on every ImproveEvery-th iteration,
// perturbs gauges on every PerturbEvery-th, then rescores and ranks.
// It returns the new leader.
func (s *Simulator) Step(weights models.Weights) models.CandidateSolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.solutions) == 0 {
		return models.CandidateSolution{}
	}

	s.iteration++
	if s.iteration%s.cfg.ImproveEvery == 0 {
		for i := range s.solutions {
			s.explorer.Nudge(&s.solutions[i])
		}
	}
	if s.iteration%s.cfg.PerturbEvery == 0 {
		s.explorer.Perturb(s.constraints)
	}
	s.rescore(weights)
	s.history = append(s.history, ScorePoint{Iteration: s.iteration, Score: s.solutions[0].Score})
	return s.solutions[0]
}

func (s *Simulator) rescore(weights models.Weights) {
	objective := &WeightedObjective{Weights: weights}
	for i := range s.solutions {
		s.solutions[i].Score = objective.Evaluate(s.solutions[i])
	}
	Rank(s.solutions, objective)
}

// Best returns the current leader
func (s *Simulator) Best() models.CandidateSolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.solutions) == 0 {
		return models.CandidateSolution{}
	}
	return s.solutions[0]
}

// SelectBest picks the best candidate under an arbitrary objective
func (s *Simulator) SelectBest(objective ObjectiveFunction) (models.CandidateSolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.SelectBest(s.solutions, objective)
}

// Solutions returns a copy of the ranked population
func (s *Simulator) Solutions() []models.CandidateSolution {
	return s.Top(0)
}

// Top returns a copy of the n best candidates; n <= 0 returns all of them
func (s *Simulator) Top(n int) []models.CandidateSolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.solutions) {
		n = len(s.solutions)
	}
	out := make([]models.CandidateSolution, n)
	copy(out, s.solutions[:n])
	return out
}

// Constraints returns a copy of the constraint gauges
func (s *Simulator) Constraints() []models.ConstraintDisplay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ConstraintDisplay, len(s.constraints))
	copy(out, s.constraints)
	return out
}

// Iteration returns the number of frames stepped since Seed
func (s *Simulator) Iteration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iteration
}

// Baseline returns the leader as it was right after Seed
func (s *Simulator) Baseline() models.CandidateSolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseline
}

// Converged reports whether the leader's score has settled
func (s *Simulator) Converged() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.convergence.Check(s.history)
}
