package models

import (
	"fmt"
	"strings"
	"time"
)

// Metric names one of the five scored dimensions of a candidate route
type Metric string

const (
	MetricCost          Metric = "cost"
	MetricTime          Metric = "time"
	MetricEmissions     Metric = "emissions"
	MetricLocalSourcing Metric = "local_sourcing"
	MetricReliability   Metric = "reliability"
)

// Metrics lists every metric in display order
var Metrics = []Metric{MetricCost, MetricTime, MetricEmissions, MetricLocalSourcing, MetricReliability}

// LowerIsBetter reports whether smaller values of m are improvements
func (m Metric) LowerIsBetter() bool {
	switch m {
	case MetricCost, MetricTime, MetricEmissions:
		return true
	default:
		return false
	}
}

// ParseMetric parses a metric name, accepting camelCase and snake_case
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "cost":
		return MetricCost, nil
	case "time":
		return MetricTime, nil
	case "emissions":
		return MetricEmissions, nil
	case "localsourcing":
		return MetricLocalSourcing, nil
	case "reliability":
		return MetricReliability, nil
	default:
		return "", &UnknownMetricError{Name: s}
	}
}

// UnknownMetricError indicates a metric name that is not one of Metrics
type UnknownMetricError struct {
	Name string
}

func (e *UnknownMetricError) Error() string {
	return "unknown metric: " + e.Name
}

// Weights holds the relative priority of each metric, each 0-100 in steps of 5
type Weights struct {
	Cost          float64 `json:"cost_weight" yaml:"cost"`
	Time          float64 `json:"time_weight" yaml:"time"`
	Emissions     float64 `json:"emissions_weight" yaml:"emissions"`
	LocalSourcing float64 `json:"local_sourcing_weight" yaml:"local_sourcing"`
	Reliability   float64 `json:"reliability_weight" yaml:"reliability"`
}

// Get returns the weight for m
func (w Weights) Get(m Metric) float64 {
	switch m {
	case MetricCost:
		return w.Cost
	case MetricTime:
		return w.Time
	case MetricEmissions:
		return w.Emissions
	case MetricLocalSourcing:
		return w.LocalSourcing
	case MetricReliability:
		return w.Reliability
	}
	return 0
}

// With returns a copy of w with the weight for m replaced
func (w Weights) With(m Metric, v float64) Weights {
	switch m {
	case MetricCost:
		w.Cost = v
	case MetricTime:
		w.Time = v
	case MetricEmissions:
		w.Emissions = v
	case MetricLocalSourcing:
		w.LocalSourcing = v
	case MetricReliability:
		w.Reliability = v
	}
	return w
}

// Total returns the sum of all five weights
func (w Weights) Total() float64 {
	return w.Cost + w.Time + w.Emissions + w.LocalSourcing + w.Reliability
}

// DefaultWeights is the auto-balance distribution
var DefaultWeights = Weights{Cost: 30, Time: 25, Emissions: 20, LocalSourcing: 15, Reliability: 10}

// OptimizationParams are the user-facing controls of a run
type OptimizationParams struct {
	Weights  `yaml:",inline"`
	Strength float64 `json:"optimization_strength" yaml:"strength"`
}

// DefaultParams returns the auto-balanced weights with a mid strength
func DefaultParams() OptimizationParams {
	return OptimizationParams{Weights: DefaultWeights, Strength: 50}
}

// CandidateSolution is one simulated route configuration
type CandidateSolution struct {
	ID            int     `json:"id"`
	Cost          float64 `json:"cost"`
	Time          float64 `json:"time"`
	Emissions     float64 `json:"emissions"`
	LocalSourcing float64 `json:"local_sourcing"`
	Reliability   float64 `json:"reliability"`
	Score         float64 `json:"score"`
}

// Value returns the raw metric value of the candidate
func (c CandidateSolution) Value(m Metric) float64 {
	switch m {
	case MetricCost:
		return c.Cost
	case MetricTime:
		return c.Time
	case MetricEmissions:
		return c.Emissions
	case MetricLocalSourcing:
		return c.LocalSourcing
	case MetricReliability:
		return c.Reliability
	}
	return 0
}

// ConstraintDisplay is a cosmetic constraint gauge
type ConstraintDisplay struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// RunState is the lifecycle state of the optimization center
type RunState int

const (
	RunStateIdle RunState = iota
	RunStateRunning
	RunStateComplete
)

func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateRunning:
		return "running"
	case RunStateComplete:
		return "complete"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// MarshalText encodes the state by name
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *RunState) UnmarshalText(text []byte) error {
	parsed, err := ParseRunState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseRunState parses a state name
func ParseRunState(s string) (RunState, error) {
	switch strings.ToLower(s) {
	case "idle":
		return RunStateIdle, nil
	case "running":
		return RunStateRunning, nil
	case "complete", "completed":
		return RunStateComplete, nil
	default:
		return RunStateIdle, fmt.Errorf("unknown run state: %s", s)
	}
}

// CompletionEventName is the name the completion signal is published under
const CompletionEventName = "optimization-completed"

// CompletionEvent is published once when a run reaches 100% progress
type CompletionEvent struct {
	SessionID   string             `json:"session_id"`
	RunID       string             `json:"run_id"`
	Params      OptimizationParams `json:"params"`
	Best        CandidateSolution  `json:"best"`
	Result      ResultSummary      `json:"result"`
	Iterations  int                `json:"iterations"`
	Seed        int64              `json:"seed"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Comparison is a before/after row of the result panel
type Comparison struct {
	Label  string  `json:"label"`
	Unit   string  `json:"unit"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// ResultSummary is what the result presenter renders on completion
type ResultSummary struct {
	Mode               string       `json:"mode"`
	CostSavings        float64      `json:"cost_savings_pct"`
	TimeReduction      float64      `json:"time_reduction_pct"`
	EmissionsReduction float64      `json:"emissions_reduction_pct"`
	Comparisons        []Comparison `json:"comparisons"`
}

// MetricPoint represents a single run telemetry sample
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
}

// MetricsSummary represents a summary of the telemetry of one run
type MetricsSummary struct {
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Duration     time.Duration           `json:"duration"`
	Aggregations map[string]*Aggregation `json:"aggregations,omitempty"`
}

// Aggregation represents aggregated statistics for a metric
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Last  float64 `json:"last"`
}
