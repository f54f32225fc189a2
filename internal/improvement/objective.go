// Package improvement simulates the solution space shown while a run is in
// progress: a fixed population of candidate routes that is scored, nudged
// towards better values and ranked on every frame.
package improvement

import (
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// ObjectiveFunction evaluates a candidate and returns a score
type ObjectiveFunction interface {
	// Evaluate computes the objective value of a candidate
	Evaluate(c models.CandidateSolution) float64

	// Name returns the name of the objective function.
	Name() string

	// Direction returns whether we're minimizing (true) or maximizing (false).
	Direction() bool // true = minimize, false = maximize
}

// ObjectiveWeighted ranks candidates by their weighted score
const ObjectiveWeighted = "weighted"

// NewObjectiveFunction creates an objective from a name. "weighted" uses the
// weighted score; any metric name ranks by that metric alone.
func NewObjectiveFunction(name string, weights models.Weights) (ObjectiveFunction, error) {
	if name == "" || name == ObjectiveWeighted {
		return &WeightedObjective{Weights: weights}, nil
	}
	m, err := models.ParseMetric(name)
	if err != nil {
		return nil, &UnknownObjectiveError{ObjectiveType: name}
	}
	return &MetricObjective{Metric: m}, nil
}

// Score returns the weighted score of a candidate. Lower-is-better metrics
// contribute (100 - v) and higher-is-better metrics contribute v, each scaled
// by weight/100. The result depends only on its arguments.
func Score(c models.CandidateSolution, w models.Weights) float64 {
	score := 0.0
	for _, m := range models.Metrics {
		v := c.Value(m)
		if m.LowerIsBetter() {
			v = 100 - v
		}
		score += v * w.Get(m) / 100
	}
	return score
}

// WeightedObjective maximizes the weighted score
type WeightedObjective struct {
	Weights models.Weights
}

func (o *WeightedObjective) Name() string {
	return ObjectiveWeighted
}

func (o *WeightedObjective) Direction() bool {
	return false // maximize
}

func (o *WeightedObjective) Evaluate(c models.CandidateSolution) float64 {
	return Score(c, o.Weights)
}

// MetricObjective ranks by a single raw metric
type MetricObjective struct {
	Metric models.Metric
}

func (o *MetricObjective) Name() string {
	return string(o.Metric)
}

func (o *MetricObjective) Direction() bool {
	return o.Metric.LowerIsBetter()
}

func (o *MetricObjective) Evaluate(c models.CandidateSolution) float64 {
	return c.Value(o.Metric)
}

// UnknownObjectiveError is returned for an unknown objective name
type UnknownObjectiveError struct {
	ObjectiveType string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective type: " + e.ObjectiveType
}
