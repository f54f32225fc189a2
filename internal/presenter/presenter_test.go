package presenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeStatic, false},
		{"static", ModeStatic, false},
		{"derived", ModeDerived, false},
		{"live", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestStaticIgnoresRun(t *testing.T) {
	p := New(ModeStatic)
	a := p.Present(models.CandidateSolution{Cost: 90}, models.CandidateSolution{Cost: 50}, models.DefaultWeights)
	b := p.Present(models.CandidateSolution{}, models.CandidateSolution{}, models.Weights{})

	if a.CostSavings != StaticCostSavings || a.TimeReduction != StaticTimeReduction || a.EmissionsReduction != StaticEmissionsReduction {
		t.Errorf("unexpected static figures: %+v", a)
	}
	if a.CostSavings != b.CostSavings || len(a.Comparisons) != len(b.Comparisons) {
		t.Error("static summaries should not depend on the run")
	}
	if a.Mode != "static" {
		t.Errorf("Mode = %s", a.Mode)
	}

	want := map[string][2]float64{
		"Total Cost":    {124500, 95242.5},
		"Delivery Time": {72, 58.9},
		"CO2 Emissions": {45.2, 30.9},
	}
	for _, c := range a.Comparisons {
		w, ok := want[c.Label]
		if !ok {
			t.Errorf("unexpected row %s", c.Label)
			continue
		}
		if c.Before != w[0] || c.After != w[1] {
			t.Errorf("%s = %f -> %f, want %f -> %f", c.Label, c.Before, c.After, w[0], w[1])
		}
	}
}

func TestDerivedUsesBaselineAndBest(t *testing.T) {
	p := New(ModeDerived)
	baseline := models.CandidateSolution{Cost: 80, Time: 70, Emissions: 60, LocalSourcing: 40, Reliability: 80}
	best := models.CandidateSolution{Cost: 60, Time: 56, Emissions: 45, LocalSourcing: 50, Reliability: 84}

	s := p.Present(baseline, best, models.DefaultWeights)
	if s.Mode != "derived" {
		t.Errorf("Mode = %s", s.Mode)
	}
	if s.CostSavings != 25 || s.TimeReduction != 20 || s.EmissionsReduction != 25 {
		t.Errorf("unexpected derived figures: %+v", s)
	}
	if s.Comparisons[0].After != 93375 {
		t.Errorf("Total Cost after = %f, want 93375", s.Comparisons[0].After)
	}

	same := p.Present(baseline, baseline, models.DefaultWeights)
	if same.CostSavings != 0 || same.Comparisons[0].After != same.Comparisons[0].Before {
		t.Errorf("no change should give zero savings: %+v", same)
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, New(ModeStatic).Present(models.CandidateSolution{}, models.CandidateSolution{}, models.Weights{})); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Cost savings", "23.5%", "Total Cost", "124500", "58.9"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
