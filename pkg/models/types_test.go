package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"cost", MetricCost, false},
		{"Time", MetricTime, false},
		{"emissions", MetricEmissions, false},
		{"localSourcing", MetricLocalSourcing, false},
		{"local_sourcing", MetricLocalSourcing, false},
		{"reliability", MetricReliability, false},
		{"speed", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetric(tt.in)
			if tt.wantErr {
				var unknown *UnknownMetricError
				if !errors.As(err, &unknown) {
					t.Fatalf("ParseMetric(%q) error = %v, want UnknownMetricError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMetric(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMetric(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestMetricDirection(t *testing.T) {
	lower := map[Metric]bool{
		MetricCost:          true,
		MetricTime:          true,
		MetricEmissions:     true,
		MetricLocalSourcing: false,
		MetricReliability:   false,
	}
	for m, want := range lower {
		if m.LowerIsBetter() != want {
			t.Errorf("%s.LowerIsBetter() = %v, want %v", m, m.LowerIsBetter(), want)
		}
	}
}

func TestWeightsGetWithTotal(t *testing.T) {
	w := DefaultWeights
	if w.Total() != 100 {
		t.Errorf("DefaultWeights total = %f, want 100", w.Total())
	}

	w2 := w.With(MetricReliability, 5)
	if w2.Get(MetricReliability) != 5 {
		t.Errorf("With did not set reliability, got %f", w2.Get(MetricReliability))
	}
	if w.Reliability != 10 {
		t.Error("With must not mutate the receiver")
	}
	if w2.Total() != 95 {
		t.Errorf("Total = %f, want 95", w2.Total())
	}
}

func TestCandidateValue(t *testing.T) {
	c := CandidateSolution{Cost: 1, Time: 2, Emissions: 3, LocalSourcing: 4, Reliability: 5}
	for i, m := range Metrics {
		if c.Value(m) != float64(i+1) {
			t.Errorf("Value(%s) = %f, want %d", m, c.Value(m), i+1)
		}
	}
}

func TestRunStateParse(t *testing.T) {
	for _, s := range []RunState{RunStateIdle, RunStateRunning, RunStateComplete} {
		parsed, err := ParseRunState(s.String())
		if err != nil || parsed != s {
			t.Errorf("ParseRunState(%q) = %v, %v", s.String(), parsed, err)
		}
	}
	if _, err := ParseRunState("paused"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestRunStateJSON(t *testing.T) {
	data, err := json.Marshal(map[string]RunState{"state": RunStateRunning})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"state":"running"}` {
		t.Errorf("got %s", data)
	}
}
