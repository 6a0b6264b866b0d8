package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/bestknown"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/gap"
)

var (
	flagBestKnownOut   string
	flagBestKnownReuse bool
)

func newBestKnownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "best-known",
		Short: "Resolve best known costs from all groups and write the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cfg.Analysis.BestKnown.Path
			if flagBestKnownOut != "" {
				out = flagBestKnownOut
			}
			if out == "" {
				return fmt.Errorf("no store path: set analysis.best_known.path or --out")
			}

			opts, release, err := analysisOptions(cfg, nil)
			if err != nil {
				return err
			}
			defer release()
			store := opts.Store
			if store == nil || store.Path() != out {
				if store, err = bestknown.LoadStore(out); err != nil {
					return err
				}
			}

			col, err := analysis.Collect(context.Background(), opts)
			if err != nil {
				return err
			}
			best := analysis.ResolveBestKnown(col, store, flagBestKnownReuse || cfg.Analysis.BestKnown.Reuse)
			if err := store.Save(); err != nil {
				return err
			}

			unresolved := 0
			for _, c := range best {
				if c == gap.Unresolved {
					unresolved++
				}
			}
			fmt.Printf("Resolved %d instances (%d unresolved) from %d runs; wrote %s\n",
				len(best)-unresolved, unresolved, len(col.Runs), out)
			if n := len(col.Diagnostics); n > 0 {
				fmt.Printf("%d logs need attention; run 'gapbench report' for details\n", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagBestKnownOut, "out", "o", "", "store path (default analysis.best_known.path)")
	cmd.Flags().BoolVar(&flagBestKnownReuse, "reuse", false, "keep costs already in the store")
	return cmd
}
