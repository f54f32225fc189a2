package improvement

import (
	"fmt"
	"sort"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// SelectionStrategy defines how to pick the best candidate of a population
type SelectionStrategy interface {
	// SelectBest chooses the best candidate under objective
	SelectBest(candidates []models.CandidateSolution, objective ObjectiveFunction) (models.CandidateSolution, error)
	// Name returns the name of the selection strategy
	Name() string
}

// BestScoreStrategy selects the candidate with the best objective value
type BestScoreStrategy struct{}

func (s *BestScoreStrategy) Name() string {
	return "best_score"
}

func (s *BestScoreStrategy) SelectBest(candidates []models.CandidateSolution, objective ObjectiveFunction) (models.CandidateSolution, error) {
	if len(candidates) == 0 {
		return models.CandidateSolution{}, fmt.Errorf("no candidates provided")
	}
	if objective == nil {
		return models.CandidateSolution{}, fmt.Errorf("objective function is required")
	}

	best := candidates[0]
	bestValue := objective.Evaluate(best)
	for _, c := range candidates[1:] {
		v := objective.Evaluate(c)
		if better(v, bestValue, objective.Direction()) {
			best, bestValue = c, v
		}
	}
	return best, nil
}

// ParetoFront returns the candidates that no other candidate dominates on
// all five metrics, in their original order
func ParetoFront(candidates []models.CandidateSolution) []models.CandidateSolution {
	front := make([]models.CandidateSolution, 0)
	for i, c := range candidates {
		dominated := false
		for j, other := range candidates {
			if i != j && dominates(other, c) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, c)
		}
	}
	return front
}

// dominates reports whether a is at least as good as b on every metric and
// strictly better on at least one
func dominates(a, b models.CandidateSolution) bool {
	strictly := false
	for _, m := range models.Metrics {
		av, bv := a.Value(m), b.Value(m)
		if av == bv {
			continue
		}
		if !better(av, bv, m.LowerIsBetter()) {
			return false
		}
		strictly = true
	}
	return strictly
}

// Rank sorts candidates in place, best first. Ties keep ID order so the
// ranking is deterministic.
func Rank(candidates []models.CandidateSolution, objective ObjectiveFunction) {
	minimize := objective.Direction()
	sort.SliceStable(candidates, func(i, j int) bool {
		vi, vj := objective.Evaluate(candidates[i]), objective.Evaluate(candidates[j])
		if vi != vj {
			return better(vi, vj, minimize)
		}
		return candidates[i].ID < candidates[j].ID
	})
}

func better(a, b float64, minimize bool) bool {
	if minimize {
		return a < b
	}
	return a > b
}
