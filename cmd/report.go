package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/metrics"
	"github.com/signalnine/gapbench/internal/plot"
	"github.com/signalnine/gapbench/internal/report"
	"github.com/signalnine/gapbench/internal/watch"
)

var (
	flagFormat      string
	flagPlot        string
	flagMetricsFile string
	flagWatch       bool
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [group...]",
		Short: "Compute primal gap distributions for the configured groups",
		RunE:  runReport,
	}
	cmd.Flags().StringVar(&flagFormat, "format", "", "output format (table, markdown, json, csv; default report.format)")
	cmd.Flags().StringVar(&flagPlot, "plot", "", "also plot the distributions to this file (.png, .svg, .pdf)")
	cmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "recompute whenever a group's logs change")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	// Best known costs always come from every configured group.
	if _, err := selectGroups(cfg, args); err != nil {
		return err
	}
	format := flagFormat
	if format == "" {
		format = cfg.Report.Format
	}

	var rec *metrics.Recorder
	if flagMetricsFile != "" {
		rec = metrics.New()
	}
	opts, release, err := analysisOptions(cfg, rec)
	if err != nil {
		return err
	}
	defer release()
	opts.Report = args

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pass := func(ctx context.Context) error {
		res, err := analysis.Run(ctx, opts)
		if err != nil {
			return err
		}
		if err := report.Generate(res, format, os.Stdout); err != nil {
			return err
		}
		if flagPlot != "" {
			if err := plot.CDF(res.Groups, flagPlot); err != nil {
				return err
			}
			slog.Info("wrote plot", "path", flagPlot)
		}
		if rec != nil {
			return rec.WriteTextfile(flagMetricsFile)
		}
		return nil
	}
	if err := pass(ctx); err != nil {
		return err
	}
	if !flagWatch {
		return nil
	}

	dirs := make([]string, len(cfg.Groups))
	for i, g := range cfg.Groups {
		dirs[i] = g.Dir
	}
	w, err := watch.New(dirs, watch.Options{Logger: slog.Default()})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Watching %d group dirs; Ctrl-C to stop\n", len(w.Dirs()))
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		slog.Info("logs changed", "files", len(changed))
		fmt.Println()
		return pass(ctx)
	})
}
