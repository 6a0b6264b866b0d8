package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/docker"
	"github.com/signalnine/gapbench/internal/metrics"
	"github.com/signalnine/gapbench/internal/runner"
)

var (
	flagRunTasks       string
	flagRunAlgorithm   string
	flagRunInstance    string
	flagParallel       int
	flagSkipExisting   bool
	flagRunMetricsFile string
	flagCleanup        bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the solver task list",
		RunE:  runTasks,
	}
	cmd.Flags().StringVar(&flagRunTasks, "tasks", "", "task list path (default solver.tasks_file)")
	cmd.Flags().StringVar(&flagRunAlgorithm, "algorithm", "", "only tasks of this algorithm code")
	cmd.Flags().StringVar(&flagRunInstance, "instance", "", "only tasks of this instance (name or file)")
	cmd.Flags().IntVar(&flagParallel, "parallel", 0, "max concurrent solver processes (default solver.parallel)")
	cmd.Flags().BoolVar(&flagSkipExisting, "skip-existing", false, "skip tasks whose log already ended cleanly")
	cmd.Flags().StringVar(&flagRunMetricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	cmd.Flags().BoolVar(&flagCleanup, "cleanup", false, "remove leftover gapbench containers after the run")
	return cmd
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Solver.Binary == "" && cfg.Solver.Image == "" {
		return fmt.Errorf("solver.binary or solver.image must be set")
	}
	if flagParallel > 0 {
		cfg.Solver.Parallel = flagParallel
	}

	path := cfg.Solver.TasksFile
	if flagRunTasks != "" {
		path = flagRunTasks
	}
	all, err := runner.ReadTasks(path)
	if err != nil {
		return err
	}
	tasks := filterTasks(all, flagRunAlgorithm, flagRunInstance)
	fmt.Printf("Running %d of %d tasks from %s (parallel %d)\n", len(tasks), len(all), path, cfg.Solver.Parallel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec *metrics.Recorder
	if flagRunMetricsFile != "" {
		rec = metrics.New()
	}
	opts := &runner.SolveOpts{
		Solver:       &cfg.Solver,
		InstancesDir: cfg.Instances.Dir,
		SkipExisting: flagSkipExisting,
		Metrics:      rec,
	}
	results, errs := runner.Run(ctx, opts, tasks, func(r *runner.TaskResult) {
		if r.Outcome == runner.OutcomeSkipped {
			fmt.Printf("  %s: skipped\n", r.Task)
			return
		}
		fmt.Printf("  %s: %s (duration: %ds)\n", r.Task, r.Outcome, r.Meta.DurationS)
	})
	for _, err := range errs {
		fmt.Printf("  ERROR: %v\n", err)
	}

	counts := map[string]int{}
	for _, r := range results {
		counts[r.Outcome]++
	}
	fmt.Printf("\n--- %d completed, %d timed out, %d failed, %d skipped, %d errors ---\n",
		counts[runner.OutcomeCompleted], counts[runner.OutcomeTimeout], counts[runner.OutcomeFailed],
		counts[runner.OutcomeSkipped], len(errs))

	if flagCleanup && cfg.Solver.Image != "" {
		cleanupDocker()
	}
	if rec != nil {
		if err := rec.WriteTextfile(flagRunMetricsFile); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func cleanupDocker() {
	// Best-effort cleanup of gapbench-labeled containers
	fmt.Println("Cleaning up Docker artifacts...")
	newExecCmd("docker", "container", "prune", "-f", "--filter", "label="+docker.Label+"=true").Run()
}

func newExecCmd(args ...string) *exec.Cmd {
	return exec.Command(args[0], args[1:]...)
}

func filterTasks(tasks []runner.Task, alg, instance string) []runner.Task {
	if alg == "" && instance == "" {
		return tasks
	}
	var filtered []runner.Task
	for _, t := range tasks {
		if alg != "" && t.Algorithm != alg {
			continue
		}
		if instance != "" && !matchInstance(t, instance) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func matchInstance(t runner.Task, pattern string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(t.Instance(), strings.TrimSuffix(pattern, "*"))
	}
	return t.Instance() == pattern || t.InstanceFile == pattern
}
