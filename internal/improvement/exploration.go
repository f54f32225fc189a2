package improvement

import (
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

// Range is a half-open interval [Min, Max) used for random draws
type Range struct {
	Min float64
	Max float64
}

// Explorer moves candidates and constraint gauges around the solution space
type Explorer struct {
	rng *utils.RandSource

	// Initial draw per metric
	Spawn map[models.Metric]Range
	// Largest single nudge per metric; lower-is-better metrics move down
	MaxNudge map[models.Metric]float64
	// Lower-is-better metrics stop at their floor, the rest at 100
	Floor map[models.Metric]float64

	ConstraintSpawn  Range
	ConstraintJitter float64
	ConstraintMin    float64
	ConstraintMax    float64
}

// DefaultConstraints are the five gauges shown next to the solution space
var DefaultConstraints = []models.ConstraintDisplay{
	{Name: "Budget Limit", Color: "#3b82f6"},
	{Name: "Delivery Window", Color: "#10b981"},
	{Name: "Carbon Cap", Color: "#f59e0b"},
	{Name: "Local Supplier Quota", Color: "#8b5cf6"},
	{Name: "Fleet Capacity", Color: "#ef4444"},
}

// NewDefaultExplorer creates an explorer with the dashboard's ranges
func NewDefaultExplorer(rng *utils.RandSource) *Explorer {
	return &Explorer{
		rng: rng,
		Spawn: map[models.Metric]Range{
			models.MetricCost:          {Min: 60, Max: 100},
			models.MetricTime:          {Min: 50, Max: 100},
			models.MetricEmissions:     {Min: 40, Max: 100},
			models.MetricLocalSourcing: {Min: 20, Max: 80},
			models.MetricReliability:   {Min: 60, Max: 95},
		},
		MaxNudge: map[models.Metric]float64{
			models.MetricCost:          2,
			models.MetricTime:          2,
			models.MetricEmissions:     3,
			models.MetricLocalSourcing: 1,
			models.MetricReliability:   1,
		},
		Floor: map[models.Metric]float64{
			models.MetricCost:      50,
			models.MetricTime:      40,
			models.MetricEmissions: 30,
		},
		ConstraintSpawn:  Range{Min: 40, Max: 90},
		ConstraintJitter: 5,
		ConstraintMin:    30,
		ConstraintMax:    95,
	}
}

// NewCandidate draws a fresh candidate
func (e *Explorer) NewCandidate(id int) models.CandidateSolution {
	c := models.CandidateSolution{ID: id}
	for _, m := range models.Metrics {
		r := e.Spawn[m]
		setValue(&c, m, e.rng.UniformFloat64(r.Min, r.Max))
	}
	return c
}

// Nudge moves every metric of c a random amount in its better direction
func (e *Explorer) Nudge(c *models.CandidateSolution) {
	for _, m := range models.Metrics {
		delta := e.rng.UniformFloat64(0, e.MaxNudge[m])
		v := c.Value(m)
		if m.LowerIsBetter() {
			v -= delta
			if floor := e.Floor[m]; v < floor {
				v = floor
			}
		} else {
			v += delta
			if v > 100 {
				v = 100
			}
		}
		setValue(c, m, v)
	}
}

// NewConstraints draws the five constraint gauges
func (e *Explorer) NewConstraints() []models.ConstraintDisplay {
	out := make([]models.ConstraintDisplay, len(DefaultConstraints))
	for i, c := range DefaultConstraints {
		c.Value = e.rng.UniformFloat64(e.ConstraintSpawn.Min, e.ConstraintSpawn.Max)
		out[i] = c
	}
	return out
}

// Perturb jitters every gauge and clamps it to the display band
func (e *Explorer) Perturb(constraints []models.ConstraintDisplay) {
	for i := range constraints {
		delta := e.rng.UniformFloat64(-e.ConstraintJitter, e.ConstraintJitter)
		constraints[i].Value = utils.ClampFloat64(constraints[i].Value+delta, e.ConstraintMin, e.ConstraintMax)
	}
}

func setValue(c *models.CandidateSolution, m models.Metric, v float64) {
	switch m {
	case models.MetricCost:
		c.Cost = v
	case models.MetricTime:
		c.Time = v
	case models.MetricEmissions:
		c.Emissions = v
	case models.MetricLocalSourcing:
		c.LocalSourcing = v
	case models.MetricReliability:
		c.Reliability = v
	}
}
