package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/runner"
)

var (
	flagTasksOut       string
	flagTasksAlgorithm string
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Write the solver task list (instance x algorithm x seed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.Instances.Dir == "" {
				return fmt.Errorf("instances.dir is not set")
			}
			algs := filterAlgorithms(cfg.Solver.Algorithms, flagTasksAlgorithm)
			if len(algs) == 0 {
				return fmt.Errorf("no solver algorithms selected")
			}
			instances, err := analysis.DiscoverInstances(cfg.Instances.Dir, cfg.Instances.Ext)
			if err != nil {
				return err
			}
			files := make([]string, len(instances))
			for i, in := range instances {
				files[i] = filepath.Base(in.File)
			}

			tasks := runner.GenerateTasks(files, algs, cfg.Solver.Seeds)
			out := cfg.Solver.TasksFile
			if flagTasksOut != "" {
				out = flagTasksOut
			}
			if err := runner.WriteTasks(out, tasks); err != nil {
				return err
			}
			fmt.Printf("Wrote %d tasks (%d instances, %d algorithms, seeds %d-%d) to %s\n",
				len(tasks), len(files), len(algs), cfg.Solver.Seeds.Min, cfg.Solver.Seeds.Max, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagTasksOut, "out", "o", "", "task list path (default solver.tasks_file)")
	cmd.Flags().StringVar(&flagTasksAlgorithm, "algorithm", "", "only this algorithm code or name")
	return cmd
}

func filterAlgorithms(algs []config.Algorithm, name string) []config.Algorithm {
	if name == "" {
		return algs
	}
	var filtered []config.Algorithm
	for _, a := range algs {
		if a.Code == name || a.Name == name {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
