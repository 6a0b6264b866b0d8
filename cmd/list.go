package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/config"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured groups, solver algorithms and instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Println("Groups:")
			for _, g := range cfg.Groups {
				fmt.Printf("  - %s (dir: %s%s)\n", g.Name, g.Dir, variantNote(g))
			}
			if len(cfg.Solver.Algorithms) > 0 {
				fmt.Println("\nAlgorithms:")
				for _, a := range cfg.Solver.Algorithms {
					fmt.Printf("  - %s: %s\n", a.Code, a.Name)
				}
			}
			if cfg.Instances.Dir == "" {
				return nil
			}
			instances, err := analysis.DiscoverInstances(cfg.Instances.Dir, cfg.Instances.Ext)
			if err != nil {
				return err
			}
			fmt.Printf("\nInstances (%d):\n", len(instances))
			for _, in := range instances {
				fmt.Printf("  - %s (%d bytes)\n", in.Name, in.Size)
			}
			return nil
		},
	}
}

func variantNote(g config.Group) string {
	note := ""
	if g.Algorithm != "" {
		note += ", algorithm " + g.Algorithm
	}
	if !g.Seeds.IsZero() {
		note += fmt.Sprintf(", seeds %d-%d", g.Seeds.Min, g.Seeds.Max)
	}
	return note
}
