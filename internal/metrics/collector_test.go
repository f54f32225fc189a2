package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatalf("expected non-nil collector")
	}
	if len(c.GetMetricNames()) != 0 {
		t.Fatalf("expected no metrics")
	}
}

func TestCollectorRecordAndGetTimeSeries(t *testing.T) {
	c := NewCollector()
	c.Start(t0)

	c.Record("test_metric", 10.0, t0)
	c.Record("test_metric", 20.0, t0.Add(time.Second))
	c.Record("test_metric", 30.0, t0.Add(2*time.Second))

	points := c.GetTimeSeries("test_metric")
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, want := range []float64{10, 20, 30} {
		if points[i].Value != want {
			t.Errorf("point %d value = %f, want %f", i, points[i].Value, want)
		}
	}

	// The returned slice is a copy.
	points[0].Value = 99
	if c.GetTimeSeries("test_metric")[0].Value != 10 {
		t.Error("GetTimeSeries should return a copy")
	}
	if c.GetTimeSeries("missing") != nil {
		t.Error("expected nil for unknown metric")
	}
}

func TestCollectorTimeSeriesRange(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 10; i++ {
		c.Record("progress", float64(i), t0.Add(time.Duration(i)*100*time.Millisecond))
	}

	got := c.GetTimeSeriesRange("progress", t0.Add(200*time.Millisecond), t0.Add(400*time.Millisecond))
	if len(got) != 3 {
		t.Fatalf("expected 3 points in range, got %d", len(got))
	}
	if got[0].Value != 2 || got[2].Value != 4 {
		t.Errorf("unexpected range values: %v", got)
	}
	if len(c.GetTimeSeriesRange("progress", time.Time{}, time.Time{})) != 10 {
		t.Error("open range should return every point")
	}
}

func TestCollectorAggregation(t *testing.T) {
	c := NewCollector()
	for i, v := range []float64{5, 1, 3, 2, 4} {
		c.Record("score", v, t0.Add(time.Duration(i)*time.Second))
	}

	agg := c.GetAggregation("score")
	if agg == nil {
		t.Fatal("expected aggregation")
	}
	if agg.Count != 5 || agg.Sum != 15 || agg.Min != 1 || agg.Max != 5 || agg.Mean != 3 {
		t.Errorf("unexpected aggregation: %+v", agg)
	}
	if agg.P50 != 3 {
		t.Errorf("P50 = %f, want 3", agg.P50)
	}
	if math.Abs(agg.P95-4.8) > 1e-9 {
		t.Errorf("P95 = %f, want 4.8", agg.P95)
	}
	if agg.Last != 4 {
		t.Errorf("Last = %f, want 4 (most recent sample)", agg.Last)
	}

	// Recording invalidates the cache.
	c.Record("score", 10, t0.Add(10*time.Second))
	if c.GetAggregation("score").Max != 10 {
		t.Error("aggregation not refreshed after Record")
	}
	if c.GetAggregation("missing") != nil {
		t.Error("expected nil aggregation for unknown metric")
	}
}

func TestCollectorSummaryAndClear(t *testing.T) {
	c := NewCollector()
	c.Start(t0)
	c.Record("a", 1, t0)
	c.Record("b", 2, t0)
	c.Stop(t0.Add(20 * time.Second))

	summary := c.GetSummary()
	if summary.Duration != 20*time.Second {
		t.Errorf("Duration = %v, want 20s", summary.Duration)
	}
	if len(summary.Aggregations) != 2 {
		t.Errorf("expected 2 aggregations, got %d", len(summary.Aggregations))
	}
	names := c.GetMetricNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("GetMetricNames() = %v", names)
	}

	c.Clear()
	if len(c.GetMetricNames()) != 0 {
		t.Error("Clear should drop all series")
	}
	if _, ok := c.Last("a"); ok {
		t.Error("Last should report nothing after Clear")
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []float64{7}, 0.99, 7},
		{"median", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"max", []float64{1, 2, 3, 4}, 1.0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.values, tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("percentile() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRecordHelpers(t *testing.T) {
	c := NewCollector()
	best := models.CandidateSolution{ID: 1, Cost: 55, Time: 45, Emissions: 35, LocalSourcing: 70, Reliability: 90, Score: 62.5}
	RecordProgress(c, 12.5, t0)
	RecordBest(c, best, t0)
	RecordIteration(c, 300, t0)
	RecordConstraints(c, []models.ConstraintDisplay{{Name: "Carbon Cap", Value: 61}}, t0)

	if p, ok := c.Last(MetricProgress); !ok || p.Value != 12.5 {
		t.Errorf("progress = %+v", p)
	}
	if p, _ := c.Last(MetricBestScore); p.Value != 62.5 {
		t.Errorf("best score = %f", p.Value)
	}
	if p, _ := c.Last(BestMetricName(models.MetricLocalSourcing)); p.Value != 70 {
		t.Errorf("best local sourcing = %f", p.Value)
	}
	if p, _ := c.Last(MetricIteration); p.Value != 300 {
		t.Errorf("iteration = %f", p.Value)
	}
	if p, ok := c.Last("constraint_carbon_cap"); !ok || p.Value != 61 {
		t.Errorf("constraint gauge = %+v", p)
	}
}

func TestDownsample(t *testing.T) {
	points := make([]models.MetricPoint, 201)
	for i := range points {
		points[i] = models.MetricPoint{Value: float64(i)}
	}

	got := Downsample(points, 5)
	want := []float64{0, 50, 100, 150, 200}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Value != want[i] {
			t.Errorf("point %d = %f, want %f", i, got[i].Value, want[i])
		}
	}
	if len(Downsample(points, 0)) != 201 {
		t.Error("maxPoints 0 should keep everything")
	}
	if one := Downsample(points, 1); len(one) != 1 || one[0].Value != 200 {
		t.Errorf("Downsample(1) = %v, want the last point", one)
	}
}
