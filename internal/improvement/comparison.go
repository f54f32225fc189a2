package improvement

import (
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

// MetricComparison compares one metric of two candidates
type MetricComparison struct {
	Metric         models.Metric
	Before         float64
	After          float64
	ImprovementPct float64 // positive = better
}

// CandidateComparison compares a baseline candidate with a later one
type CandidateComparison struct {
	ScoreBefore float64
	ScoreAfter  float64
	Improvement bool // true if the later candidate scores higher
	Metrics     []MetricComparison
}

// CompareCandidates compares before and after metric by metric and by
// weighted score
func CompareCandidates(before, after models.CandidateSolution, weights models.Weights) *CandidateComparison {
	cmp := &CandidateComparison{
		ScoreBefore: Score(before, weights),
		ScoreAfter:  Score(after, weights),
		Metrics:     make([]MetricComparison, 0, len(models.Metrics)),
	}
	cmp.Improvement = cmp.ScoreAfter > cmp.ScoreBefore

	for _, m := range models.Metrics {
		b, a := before.Value(m), after.Value(m)
		cmp.Metrics = append(cmp.Metrics, MetricComparison{
			Metric:         m,
			Before:         b,
			After:          a,
			ImprovementPct: GetImprovementPercentage(b, a, m.LowerIsBetter()),
		})
	}
	return cmp
}

// Metric returns the comparison row for m
func (c *CandidateComparison) Metric(m models.Metric) (MetricComparison, bool) {
	for _, mc := range c.Metrics {
		if mc.Metric == m {
			return mc, true
		}
	}
	return MetricComparison{}, false
}

// GetImprovementPercentage calculates the percentage improvement between two values
func GetImprovementPercentage(before, after float64, minimize bool) float64 {
	if minimize {
		return utils.PercentChange(before, after)
	}
	return -utils.PercentChange(before, after)
}
