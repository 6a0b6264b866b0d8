package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/inventory"
)

var flagCheckFormat string

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [group...]",
		Short: "List missing, incomplete and anomalous logs per group",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.Instances.Dir == "" {
				return fmt.Errorf("check needs instances.dir")
			}
			groups, err := selectGroups(cfg, args)
			if err != nil {
				return err
			}
			instances, err := analysis.DiscoverInstances(cfg.Instances.Dir, cfg.Instances.Ext)
			if err != nil {
				return err
			}

			reps, err := inventory.CheckAll(context.Background(), groups, instances, cfg.Analysis.Workers)
			if err != nil {
				return err
			}
			switch flagCheckFormat {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(reps)
			case "text", "":
				inventory.Write(os.Stdout, reps, cfg.Instances.Ext)
				return nil
			default:
				return fmt.Errorf("unknown format %q", flagCheckFormat)
			}
		},
	}
	cmd.Flags().StringVar(&flagCheckFormat, "format", "text", "output format (text, json)")
	return cmd
}
