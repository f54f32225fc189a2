// Package presenter turns a finished run into the numbers shown on the
// result panel.
package presenter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/GoSim-25-26J-441/optimization-center/internal/improvement"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

// Mode selects where the result percentages come from
type Mode string

const (
	// ModeStatic shows the fixed example figures regardless of the run
	ModeStatic Mode = "static"
	// ModeDerived computes the figures from the baseline and final leader
	ModeDerived Mode = "derived"
)

// ParseMode parses a presenter mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStatic, "":
		return ModeStatic, nil
	case ModeDerived:
		return ModeDerived, nil
	default:
		return "", fmt.Errorf("unknown presenter mode: %s", s)
	}
}

// Example figures shown by the static panel
const (
	StaticCostSavings        = 23.5
	StaticTimeReduction      = 18.2
	StaticEmissionsReduction = 31.7
)

// baseline row values the comparison is expressed against
var comparisonRows = []struct {
	metric models.Metric
	label  string
	unit   string
	before float64
}{
	{models.MetricCost, "Total Cost", "USD", 124500},
	{models.MetricTime, "Delivery Time", "hours", 72},
	{models.MetricEmissions, "CO2 Emissions", "tonnes", 45.2},
}

// Presenter renders result summaries
type Presenter struct {
	mode Mode
}

// New creates a presenter for mode
func New(mode Mode) *Presenter {
	if mode == "" {
		mode = ModeStatic
	}
	return &Presenter{mode: mode}
}

// Mode returns the presenter mode
func (p *Presenter) Mode() Mode {
	return p.mode
}

// Present builds the result summary. Static mode ignores its arguments.
func (p *Presenter) Present(baseline, best models.CandidateSolution, weights models.Weights) models.ResultSummary {
	if p.mode == ModeDerived {
		return derived(baseline, best, weights)
	}
	return static()
}

func static() models.ResultSummary {
	return summary(ModeStatic, map[models.Metric]float64{
		models.MetricCost:      StaticCostSavings,
		models.MetricTime:      StaticTimeReduction,
		models.MetricEmissions: StaticEmissionsReduction,
	})
}

func derived(baseline, best models.CandidateSolution, weights models.Weights) models.ResultSummary {
	cmp := improvement.CompareCandidates(baseline, best, weights)
	pct := make(map[models.Metric]float64, len(comparisonRows))
	for _, row := range comparisonRows {
		if mc, ok := cmp.Metric(row.metric); ok {
			pct[row.metric] = utils.Round(mc.ImprovementPct, 1)
		}
	}
	return summary(ModeDerived, pct)
}

func summary(mode Mode, pct map[models.Metric]float64) models.ResultSummary {
	s := models.ResultSummary{
		Mode:               string(mode),
		CostSavings:        pct[models.MetricCost],
		TimeReduction:      pct[models.MetricTime],
		EmissionsReduction: pct[models.MetricEmissions],
		Comparisons:        make([]models.Comparison, 0, len(comparisonRows)),
	}
	for _, row := range comparisonRows {
		s.Comparisons = append(s.Comparisons, models.Comparison{
			Label:  row.label,
			Unit:   row.unit,
			Before: row.before,
			After:  utils.Round(row.before*(1-pct[row.metric]/100), 1),
		})
	}
	return s
}

// Render writes the summary as an aligned text table
func Render(w io.Writer, s models.ResultSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Cost savings\t%.1f%%\n", s.CostSavings)
	fmt.Fprintf(tw, "Time reduction\t%.1f%%\n", s.TimeReduction)
	fmt.Fprintf(tw, "Emissions reduction\t%.1f%%\n", s.EmissionsReduction)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Metric\tBefore\tAfter\tUnit")
	for _, c := range s.Comparisons {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Label, formatValue(c.Before), formatValue(c.After), c.Unit)
	}
	return tw.Flush()
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
