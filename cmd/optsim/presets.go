package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/optimization-center/internal/params"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [presets-file]",
		Short: "List the parameter presets in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := config.LoadPresets(args[0])
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"presets": presets,
					"count":   len(presets),
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCOST\tTIME\tEMISSIONS\tLOCAL\tRELIABILITY\tSTRENGTH\tBALANCED")
			for _, p := range presets {
				w := p.Params.Weights
				fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\t%t\n",
					p.Name, w.Cost, w.Time, w.Emissions, w.LocalSourcing, w.Reliability,
					p.Params.Strength, params.IsBalanced(w))
			}
			return tw.Flush()
		},
	}
}
