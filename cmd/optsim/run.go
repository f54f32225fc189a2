package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/optimization-center/internal/center"
	"github.com/GoSim-25-26J-441/optimization-center/internal/engine"
	"github.com/GoSim-25-26J-441/optimization-center/internal/improvement"
	"github.com/GoSim-25-26J-441/optimization-center/internal/presenter"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

// virtual clock origin so headless runs print stable timestamps
var runEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type runOptions struct {
	configPath  string
	presetsPath string
	preset      string
	seed        int64
	mode        string
	rankBy      string
	top         int
	quiet       bool
	autoBalance bool

	cost, timeW, emissions, localSourcing, reliability float64
	strength                                           float64
}

// runReport is the JSON form of a finished headless run
type runReport struct {
	RunID       string                     `json:"run_id"`
	Seed        int64                      `json:"seed"`
	Params      models.OptimizationParams  `json:"params"`
	Ticks       int                        `json:"ticks"`
	Iterations  int                        `json:"iterations"`
	VirtualTime string                     `json:"virtual_time"`
	RankedBy    string                     `json:"ranked_by"`
	Pick        models.CandidateSolution   `json:"pick"`
	Ranking     []models.CandidateSolution `json:"ranking"`
	ParetoFront []models.CandidateSolution `json:"pareto_front"`
	Result      models.ResultSummary       `json:"result"`
	Completion  models.CompletionEvent     `json:"completion"`
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one optimization to completion on a virtual clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			return runHeadless(cmd, opts, jsonOut)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&opts.presetsPath, "presets", "", "path to a YAML presets file")
	f.StringVar(&opts.preset, "preset", "", "apply a named preset before the weight flags")
	f.Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one from the clock)")
	f.StringVar(&opts.mode, "mode", "", "result presenter mode (static or derived)")
	f.StringVar(&opts.rankBy, "rank-by", improvement.ObjectiveWeighted, "rank the final population by weighted score or a single metric")
	f.IntVar(&opts.top, "top", 5, "number of ranked candidates to print")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress output")
	f.BoolVar(&opts.autoBalance, "auto-balance", false, "reset the weights to the default distribution")
	f.Float64Var(&opts.cost, "cost", 0, "cost weight")
	f.Float64Var(&opts.timeW, "time", 0, "time weight")
	f.Float64Var(&opts.emissions, "emissions", 0, "emissions weight")
	f.Float64Var(&opts.localSourcing, "local-sourcing", 0, "local sourcing weight")
	f.Float64Var(&opts.reliability, "reliability", 0, "reliability weight")
	f.Float64Var(&opts.strength, "strength", 0, "optimization strength")
	return cmd
}

func runHeadless(cmd *cobra.Command, opts *runOptions, jsonOut bool) error {
	out := cmd.OutOrStdout()

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Run.LoadingDelay = 0
	if opts.seed != 0 {
		cfg.Run.Seed = opts.seed
	}
	if opts.mode != "" {
		mode, err := presenter.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		cfg.Presenter.Mode = string(mode)
	}
	if _, err := improvement.NewObjectiveFunction(opts.rankBy, models.DefaultWeights); err != nil {
		return err
	}

	eng := engine.NewEngineAt("optsim", runEpoch)
	c := center.New(cfg, nil, center.WithSessionID("optsim"), center.WithEngine(eng))
	if err := applyRunParams(cmd, c, opts); err != nil {
		return err
	}

	c.Mount()
	defer c.Unmount()

	if !opts.quiet && !jsonOut {
		next := 10.0
		cancel := c.Watch(func(s center.Snapshot) {
			for s.Progress >= next && next <= 100 {
				score := 0.0
				if s.Best != nil {
					score = s.Best.Score
				}
				fmt.Fprintf(out, "progress %5.1f%%  iteration %5d  best score %6.2f\n", next, s.Iteration, score)
				next += 10
			}
		})
		defer cancel()
	}

	runID, err := c.Start()
	if err != nil {
		return err
	}
	elapsed := eng.AdvanceUntil(func() bool {
		return c.State() == models.RunStateComplete
	}, cfg.Run.TickInterval, 2*cfg.Run.Duration())

	result, err := c.Result()
	if err != nil {
		return fmt.Errorf("run %s did not complete after %s: %w", runID, elapsed, err)
	}
	completion, _ := c.LastCompletion()

	snap := c.Snapshot(0)
	objective, err := improvement.NewObjectiveFunction(opts.rankBy, snap.Params.Weights)
	if err != nil {
		return err
	}
	pick, err := c.SelectBest(objective)
	if err != nil {
		return err
	}
	ranking := append([]models.CandidateSolution(nil), snap.Solutions...)
	improvement.Rank(ranking, objective)
	if opts.top > 0 && len(ranking) > opts.top {
		ranking = ranking[:opts.top]
	}

	if jsonOut {
		return json.NewEncoder(out).Encode(runReport{
			RunID:       runID,
			Seed:        c.Seed(),
			Params:      snap.Params,
			Ticks:       cfg.Run.Ticks(),
			Iterations:  snap.Iteration,
			VirtualTime: utils.FormatDuration(elapsed),
			RankedBy:    objective.Name(),
			Pick:        pick,
			Ranking:     ranking,
			ParetoFront: improvement.ParetoFront(snap.Solutions),
			Result:      result,
			Completion:  completion,
		})
	}

	fmt.Fprintf(out, "\nrun %s complete after %s virtual (%d iterations, seed %d)\n\n",
		runID, utils.FormatDuration(elapsed), snap.Iteration, c.Seed())
	if err := presenter.Render(out, result); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nBest by %s: candidate %d (%.2f)\n", objective.Name(), pick.ID, utils.Round(objective.Evaluate(pick), 2))
	fmt.Fprintf(out, "\nTop candidates by %s\n", objective.Name())
	return renderRanking(out, ranking, objective)
}

// applyRunParams applies the preset, then any weight flag the user set
func applyRunParams(cmd *cobra.Command, c *center.Center, opts *runOptions) error {
	store := c.Params()
	if opts.preset != "" {
		if opts.presetsPath == "" {
			return errors.New("--preset requires --presets")
		}
		presets, err := config.LoadPresets(opts.presetsPath)
		if err != nil {
			return err
		}
		found := false
		for _, p := range presets {
			if p.Name == opts.preset {
				store.Apply(p.Params)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown preset: %s", opts.preset)
		}
	}
	if opts.autoBalance {
		store.AutoBalance()
	}

	flags := cmd.Flags()
	weightFlags := []struct {
		name   string
		metric models.Metric
		value  float64
	}{
		{"cost", models.MetricCost, opts.cost},
		{"time", models.MetricTime, opts.timeW},
		{"emissions", models.MetricEmissions, opts.emissions},
		{"local-sourcing", models.MetricLocalSourcing, opts.localSourcing},
		{"reliability", models.MetricReliability, opts.reliability},
	}
	for _, wf := range weightFlags {
		if flags.Changed(wf.name) {
			store.SetWeight(wf.metric, wf.value)
		}
	}
	if flags.Changed("strength") {
		store.SetStrength(opts.strength)
	}
	if !store.IsBalanced() {
		return fmt.Errorf("%w: total is %.0f", center.ErrUnbalancedWeights, store.TotalWeights())
	}
	return nil
}

func renderRanking(w io.Writer, ranking []models.CandidateSolution, objective improvement.ObjectiveFunction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tOBJECTIVE\tCOST\tTIME\tEMISSIONS\tLOCAL\tRELIABILITY")
	for i, c := range ranking {
		fmt.Fprintf(tw, "%d\t%d\t%.2f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			i+1, c.ID, utils.Round(objective.Evaluate(c), 2),
			c.Cost, c.Time, c.Emissions, c.LocalSourcing, c.Reliability)
	}
	return tw.Flush()
}
