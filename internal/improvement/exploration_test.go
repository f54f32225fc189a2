package improvement

import (
	"testing"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

func TestExplorerNudgeRespectsBounds(t *testing.T) {
	e := NewDefaultExplorer(utils.NewRandSource(1))

	tests := []struct {
		name   string
		in     models.CandidateSolution
		nudges int
		want   func(models.CandidateSolution) bool
	}{
		{
			name:   "floors hold",
			in:     models.CandidateSolution{Cost: 50, Time: 40, Emissions: 30, LocalSourcing: 50, Reliability: 50},
			nudges: 20,
			want: func(c models.CandidateSolution) bool {
				return c.Cost == 50 && c.Time == 40 && c.Emissions == 30
			},
		},
		{
			name:   "caps hold",
			in:     models.CandidateSolution{Cost: 80, Time: 80, Emissions: 80, LocalSourcing: 100, Reliability: 99.9},
			nudges: 20,
			want: func(c models.CandidateSolution) bool {
				return c.LocalSourcing == 100 && c.Reliability <= 100
			},
		},
		{
			name:   "moves in the better direction",
			in:     models.CandidateSolution{Cost: 80, Time: 80, Emissions: 80, LocalSourcing: 50, Reliability: 50},
			nudges: 1,
			want: func(c models.CandidateSolution) bool {
				return c.Cost <= 80 && c.Cost >= 78 &&
					c.Time <= 80 && c.Time >= 78 &&
					c.Emissions <= 80 && c.Emissions >= 77 &&
					c.LocalSourcing >= 50 && c.LocalSourcing <= 51 &&
					c.Reliability >= 50 && c.Reliability <= 51
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.in
			for i := 0; i < tt.nudges; i++ {
				e.Nudge(&c)
			}
			if !tt.want(c) {
				t.Errorf("unexpected candidate after nudge: %+v", c)
			}
		})
	}
}

func TestExplorerConstraints(t *testing.T) {
	e := NewDefaultExplorer(utils.NewRandSource(2))
	constraints := e.NewConstraints()
	if len(constraints) != len(DefaultConstraints) {
		t.Fatalf("expected %d constraints, got %d", len(DefaultConstraints), len(constraints))
	}

	pinned := []models.ConstraintDisplay{{Name: "low", Value: 30}, {Name: "high", Value: 95}}
	for i := 0; i < 100; i++ {
		e.Perturb(pinned)
		for _, c := range pinned {
			if c.Value < 30 || c.Value > 95 {
				t.Fatalf("%s = %f outside [30, 95]", c.Name, c.Value)
			}
		}
	}

	// The package-level list is a template and must not be mutated.
	for _, c := range DefaultConstraints {
		if c.Value != 0 {
			t.Errorf("DefaultConstraints mutated: %+v", c)
		}
	}
}
