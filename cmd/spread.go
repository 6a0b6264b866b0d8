package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/plot"
	"github.com/signalnine/gapbench/internal/report"
)

var (
	flagSpreadFormat string
	flagSpreadPlot   string
)

func newSpreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spread <group>",
		Short: "Compare the best and the mean cost over seeds per instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			g := cfg.GroupByName(args[0])
			if g == nil {
				return fmt.Errorf("unknown group %q", args[0])
			}
			cfg.Groups = []config.Group{*g}

			opts, release, err := analysisOptions(cfg, nil)
			if err != nil {
				return err
			}
			defer release()
			col, err := analysis.Collect(context.Background(), opts)
			if err != nil {
				return err
			}

			points := analysis.Spread(col, g.Name)
			format := flagSpreadFormat
			if format == "" {
				format = cfg.Report.Format
			}
			if err := report.WriteSpread(points, format, os.Stdout); err != nil {
				return err
			}
			if flagSpreadPlot != "" {
				dropped, err := plot.Spread(g.Name, points, flagSpreadPlot)
				if err != nil {
					return err
				}
				if dropped > 0 {
					slog.Warn("instances with zero cost left out of log-scale plot", "count", dropped)
				}
				slog.Info("wrote plot", "path", flagSpreadPlot)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagSpreadFormat, "format", "", "output format (table, markdown, json, csv; default report.format)")
	cmd.Flags().StringVar(&flagSpreadPlot, "plot", "", "also plot best against mean cost to this file")
	return cmd
}
