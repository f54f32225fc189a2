package metrics

import (
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// Metric names recorded on every progress tick
const (
	MetricProgress  = "progress"
	MetricBestScore = "best_score"
	MetricIteration = "iteration"
)

const (
	bestMetricPrefix = "best_"
	constraintPrefix = "constraint_"
)

// BestMetricName returns the series name tracking the leader's value of m
func BestMetricName(m models.Metric) string {
	return bestMetricPrefix + string(m)
}

// RecordProgress records the progress percentage
func RecordProgress(collector *Collector, progress float64, timestamp time.Time) {
	collector.Record(MetricProgress, progress, timestamp)
}

// RecordBest records the leader's score and each of its metric values
func RecordBest(collector *Collector, best models.CandidateSolution, timestamp time.Time) {
	collector.Record(MetricBestScore, best.Score, timestamp)
	for _, m := range models.Metrics {
		collector.Record(BestMetricName(m), best.Value(m), timestamp)
	}
}

// RecordIteration records how many frames the simulator has stepped
func RecordIteration(collector *Collector, iteration int, timestamp time.Time) {
	collector.Record(MetricIteration, float64(iteration), timestamp)
}

// RecordConstraints records every constraint gauge under its own series
func RecordConstraints(collector *Collector, constraints []models.ConstraintDisplay, timestamp time.Time) {
	for _, c := range constraints {
		collector.Record(ConstraintMetricName(c.Name), c.Value, timestamp)
	}
}

// ConstraintMetricName returns the series name for a constraint gauge
func ConstraintMetricName(name string) string {
	out := make([]byte, 0, len(constraintPrefix)+len(name))
	out = append(out, constraintPrefix...)
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			out = append(out, ch+'a'-'A')
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			out = append(out, ch)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// Downsample keeps at most maxPoints samples, evenly spaced and always
// including the last one
func Downsample(points []models.MetricPoint, maxPoints int) []models.MetricPoint {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return points
	}
	if maxPoints == 1 {
		return points[len(points)-1:]
	}
	out := make([]models.MetricPoint, 0, maxPoints)
	step := float64(len(points)-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints; i++ {
		out = append(out, points[int(float64(i)*step+0.5)])
	}
	return out
}
