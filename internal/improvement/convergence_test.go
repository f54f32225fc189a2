package improvement

import (
	"strings"
	"testing"
)

func history(scores ...float64) []ScorePoint {
	points := make([]ScorePoint, len(scores))
	for i, s := range scores {
		points[i] = ScorePoint{Iteration: i + 1, Score: s}
	}
	return points
}

func smallWindows() *ConvergenceConfig {
	return &ConvergenceConfig{Warmup: 3, Patience: 3, PlateauWindow: 4, Tolerance: 0.001}
}

func TestStallCheck(t *testing.T) {
	c := NewStallCheck(smallWindows())

	tests := []struct {
		name    string
		history []ScorePoint
		want    bool
	}{
		{"empty", nil, false},
		{"before warmup", history(1, 1), false},
		{"still improving", history(1, 2, 3, 4, 5), false},
		{"stalled", history(1, 5, 4, 5, 4.5), true},
		{"gains inside tolerance", history(5, 5.0001, 5.0002, 5.0003), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := c.Check(tt.history)
			if got != tt.want {
				t.Errorf("Check() = %v (%s), want %v", got, reason, tt.want)
			}
			if got && !strings.Contains(reason, "iteration 2") && tt.name == "stalled" {
				t.Errorf("reason should name the peak iteration: %q", reason)
			}
		})
	}
}

func TestPlateauCheck(t *testing.T) {
	c := NewPlateauCheck(smallWindows())
	if ok, _ := c.Check(history(1, 2, 3, 4, 5)); ok {
		t.Error("rising scores should not plateau")
	}
	if ok, _ := c.Check(history(1, 7, 7, 7, 7)); !ok {
		t.Error("flat tail should plateau")
	}
	if ok, _ := c.Check(history(7, 7, 7)); ok {
		t.Error("history shorter than the window should not plateau")
	}
}

func TestAnyOf(t *testing.T) {
	ok, reason := DefaultConvergence(smallWindows()).Check(history(1, 7, 7, 7, 7))
	if !ok {
		t.Fatal("expected convergence")
	}
	if !strings.HasPrefix(reason, "stall: ") {
		t.Errorf("reason = %q, want the first matching check", reason)
	}

	if ok, _ := (AnyOf{}).Check(history(1, 1, 1, 1)); ok {
		t.Error("an empty AnyOf should never converge")
	}
	only := AnyOf{NewPlateauCheck(smallWindows())}
	if ok, reason := only.Check(history(1, 1, 1, 1)); !ok || !strings.HasPrefix(reason, "plateau: ") {
		t.Errorf("plateau check should be consulted, got %v %q", ok, reason)
	}
}

func TestNilConvergenceConfigUsesDefaults(t *testing.T) {
	c := NewStallCheck(nil)
	if c.cfg.Patience != DefaultConvergenceConfig().Patience {
		t.Error("nil config should fall back to defaults")
	}
}
