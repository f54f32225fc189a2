// Package metrics records run telemetry as named time series on the
// scheduler's virtual clock.
package metrics

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

type series struct {
	points []models.MetricPoint
	agg    *models.Aggregation // nil until requested, reset on append
}

func (s *series) aggregation() *models.Aggregation {
	if s.agg == nil {
		s.agg = aggregate(s.points)
	}
	return s.agg
}

// Collector holds the samples of one run. It is safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	started    time.Time
	stopped    time.Time
	seriesByID map[string]*series
}

func NewCollector() *Collector {
	return &Collector{seriesByID: make(map[string]*series)}
}

// Start opens a collection window at t.
func (c *Collector) Start(t time.Time) {
	c.mu.Lock()
	c.started, c.stopped = t, time.Time{}
	c.mu.Unlock()
}

// Stop closes the collection window at t.
func (c *Collector) Stop(t time.Time) {
	c.mu.Lock()
	c.stopped = t
	c.mu.Unlock()
}

// Record appends a sample to the named series.
func (c *Collector) Record(name string, value float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.seriesByID[name]
	if !ok {
		s = &series{}
		c.seriesByID[name] = s
	}
	s.points = append(s.points, models.MetricPoint{Timestamp: at, Name: name, Value: value})
	s.agg = nil
}

// GetTimeSeries returns a copy of the named series, or nil if it was never
// recorded.
func (c *Collector) GetTimeSeries(name string) []models.MetricPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.seriesByID[name]; ok {
		return slices.Clone(s.points)
	}
	return nil
}

// GetTimeSeriesRange returns the samples stamped within [from, to]. A zero
// bound leaves that side open.
func (c *Collector) GetTimeSeriesRange(name string, from, to time.Time) []models.MetricPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []models.MetricPoint{}
	s, ok := c.seriesByID[name]
	if !ok {
		return out
	}
	for _, p := range s.points {
		if (from.IsZero() || !p.Timestamp.Before(from)) && (to.IsZero() || !p.Timestamp.After(to)) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Collector) Last(name string) (models.MetricPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.seriesByID[name]
	if !ok || len(s.points) == 0 {
		return models.MetricPoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// GetAggregation summarizes the named series, or returns nil when it has no
// samples.
func (c *Collector) GetAggregation(name string) *models.Aggregation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.seriesByID[name]; ok {
		return s.aggregation()
	}
	return nil
}

// GetSummary aggregates every series over the collection window.
func (c *Collector) GetSummary() *models.MetricsSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := &models.MetricsSummary{
		StartTime:    c.started,
		EndTime:      c.stopped,
		Aggregations: make(map[string]*models.Aggregation, len(c.seriesByID)),
	}
	if !c.stopped.IsZero() {
		sum.Duration = c.stopped.Sub(c.started)
	}
	for name, s := range c.seriesByID {
		if agg := s.aggregation(); agg != nil {
			sum.Aggregations[name] = agg
		}
	}
	return sum
}

// GetMetricNames lists recorded series in name order.
func (c *Collector) GetMetricNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.seriesByID))
	for name := range c.seriesByID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear drops every series and the collection window.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seriesByID = make(map[string]*series)
	c.started, c.stopped = time.Time{}, time.Time{}
}

func aggregate(points []models.MetricPoint) *models.Aggregation {
	if len(points) == 0 {
		return nil
	}
	sorted := make([]float64, len(points))
	total := 0.0
	for i, p := range points {
		sorted[i] = p.Value
		total += p.Value
	}
	sort.Float64s(sorted)
	n := len(sorted)
	return &models.Aggregation{
		Count: int64(n),
		Sum:   total,
		Min:   sorted[0],
		Max:   sorted[n-1],
		Mean:  total / float64(n),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
		P99:   percentile(sorted, 0.99),
		Last:  points[n-1].Value,
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}
