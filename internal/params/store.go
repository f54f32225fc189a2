// Package params holds the user-facing optimization controls of a session.
package params

import (
	"math"
	"sync"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

const (
	// Step is the slider and button granularity for every control
	Step = 5.0

	WeightMin   = 0.0
	WeightMax   = 100.0
	StrengthMin = 10.0
	StrengthMax = 100.0

	balanceTolerance = 0.001
)

// Store holds the five metric weights and the optimization strength.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	params models.OptimizationParams
}

// NewStore creates a store holding initial, normalised onto the control grid
func NewStore(initial models.OptimizationParams) *Store {
	s := &Store{}
	s.Apply(initial)
	return s
}

// Params returns a copy of the current parameters
func (s *Store) Params() models.OptimizationParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Weights returns a copy of the current weights
func (s *Store) Weights() models.Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.Weights
}

// SetWeight sets a metric weight from a range input, snapping to the step
// and clamping to [0, 100]. It returns the stored value.
func (s *Store) SetWeight(m models.Metric, v float64) float64 {
	v = snapWeight(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Weights = s.params.Weights.With(m, v)
	return v
}

// SetStrength sets the optimization strength, snapping to the step and
// clamping to [10, 100]
func (s *Store) SetStrength(v float64) float64 {
	v = snapStrength(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Strength = v
	return v
}

// Increment raises a metric weight by one step, capped at 100
func (s *Store) Increment(m models.Metric) float64 {
	return s.nudgeWeight(m, Step)
}

// Decrement lowers a metric weight by one step, floored at 0
func (s *Store) Decrement(m models.Metric) float64 {
	return s.nudgeWeight(m, -Step)
}

func (s *Store) nudgeWeight(m models.Metric, delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := utils.ClampFloat64(s.params.Weights.Get(m)+delta, WeightMin, WeightMax)
	s.params.Weights = s.params.Weights.With(m, v)
	return v
}

// IncrementStrength raises the strength by one step, capped at 100
func (s *Store) IncrementStrength() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Strength = utils.ClampFloat64(s.params.Strength+Step, StrengthMin, StrengthMax)
	return s.params.Strength
}

// DecrementStrength lowers the strength by one step, floored at 10
func (s *Store) DecrementStrength() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Strength = utils.ClampFloat64(s.params.Strength-Step, StrengthMin, StrengthMax)
	return s.params.Strength
}

// TotalWeights returns the sum of the five weights
func (s *Store) TotalWeights() float64 {
	return s.Weights().Total()
}

// IsBalanced reports whether the weights sum to 100
func (s *Store) IsBalanced() bool {
	return IsBalanced(s.Weights())
}

// CanRun reports whether the run control is enabled
func (s *Store) CanRun(running bool) bool {
	return !running && s.IsBalanced()
}

// AutoBalance resets the weights to the default distribution. Strength is
// left alone.
func (s *Store) AutoBalance() models.Weights {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Weights = models.DefaultWeights
	return s.params.Weights
}

// Apply replaces every control at once, snapping each onto the grid
func (s *Store) Apply(p models.OptimizationParams) models.OptimizationParams {
	var w models.Weights
	for _, m := range models.Metrics {
		w = w.With(m, snapWeight(p.Weights.Get(m)))
	}
	next := models.OptimizationParams{Weights: w, Strength: snapStrength(p.Strength)}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = next
	return next
}

// IsBalanced reports whether w sums to 100 within tolerance
func IsBalanced(w models.Weights) bool {
	return math.Abs(w.Total()-100) < balanceTolerance
}

func snapWeight(v float64) float64 {
	return utils.ClampFloat64(utils.SnapToStep(v, Step), WeightMin, WeightMax)
}

func snapStrength(v float64) float64 {
	return utils.ClampFloat64(utils.SnapToStep(v, Step), StrengthMin, StrengthMax)
}
