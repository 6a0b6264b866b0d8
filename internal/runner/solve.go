package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/docker"
	"github.com/signalnine/gapbench/internal/metrics"
	"github.com/signalnine/gapbench/internal/result"
)

// Task outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeTimeout   = "timeout"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Container paths used in docker mode.
const (
	containerInstances = "/instances"
	containerOut       = "/out"
)

type SolveOpts struct {
	Solver       *config.Solver
	InstancesDir string
	// SkipExisting leaves tasks alone whose log already ends the way the
	// solver ends a run.
	SkipExisting bool
	Metrics      *metrics.Recorder
	Logger       *slog.Logger
}

func (o *SolveOpts) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// TaskResult is what happened to one task.
type TaskResult struct {
	Task    Task
	Path    string
	Outcome string
	Meta    *result.TaskMeta
}

func ExitReasonFromCode(code int, timedOut bool) string {
	if timedOut {
		return OutcomeTimeout
	}
	if code == 0 {
		return OutcomeCompleted
	}
	return OutcomeFailed
}

// BuildSolverArgs returns the solver arguments for one task. A time limit
// of zero or less is omitted.
func BuildSolverArgs(alg *config.Algorithm, instancePath string, seed, timeLimit int, debug bool) []string {
	dbg := "0"
	if debug {
		dbg = "1"
	}
	args := []string{
		"--alg", alg.Code,
		"--from-file", instancePath,
		"--seed", strconv.Itoa(seed),
	}
	if timeLimit > 0 {
		args = append(args, "--timelimit", strconv.Itoa(timeLimit))
	}
	args = append(args, "--debug", dbg)
	return append(args, alg.Args...)
}

// LogPath is where the log of t goes: <output_dir>/<alg name>/<name>.out.
func LogPath(s *config.Solver, t Task) string {
	dir := t.Algorithm
	if alg := s.AlgorithmByCode(t.Algorithm); alg != nil {
		dir = alg.Name
	}
	return result.OutputPath(s.OutputDir, dir, t.Instance(), t.Algorithm, t.Seed)
}

// Solve runs one task and writes its log and task metadata. Solver failures
// and time limits are recorded in the result; only setup errors and
// cancellation are returned.
func Solve(ctx context.Context, opts *SolveOpts, t Task) (*TaskResult, error) {
	s := opts.Solver
	logPath := LogPath(s, t)
	res := &TaskResult{Task: t, Path: logPath}

	if opts.SkipExisting {
		if data, err := os.ReadFile(logPath); err == nil && result.Settled(string(data)) {
			res.Outcome = OutcomeSkipped
			opts.Metrics.ObserveTask(OutcomeSkipped)
			return res, nil
		}
	}

	alg := s.AlgorithmByCode(t.Algorithm)
	if alg == nil {
		alg = &config.Algorithm{Code: t.Algorithm, Name: t.Algorithm}
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	var (
		code     int
		timedOut bool
		duration time.Duration
		err      error
	)
	if s.Image != "" {
		code, timedOut, duration, err = solveDocker(ctx, opts, alg, t, logPath)
	} else {
		code, timedOut, duration, err = solveLocal(ctx, opts, alg, t, logPath)
	}
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", t, err)
	}

	res.Outcome = ExitReasonFromCode(code, timedOut)
	res.Meta = &result.TaskMeta{
		Instance:  t.Instance(),
		Algorithm: t.Algorithm,
		Seed:      t.Seed,
		DurationS: int(duration.Seconds()),
		ExitCode:  code,
		TimedOut:  timedOut,
	}
	if err := result.WriteTaskMeta(logPath, res.Meta); err != nil {
		return nil, fmt.Errorf("writing meta: %w", err)
	}
	opts.Metrics.ObserveTask(res.Outcome)
	return res, nil
}

func solveLocal(ctx context.Context, opts *SolveOpts, alg *config.Algorithm, t Task, logPath string) (int, bool, time.Duration, error) {
	s := opts.Solver
	out, err := os.Create(logPath)
	if err != nil {
		return 0, false, 0, fmt.Errorf("creating log: %w", err)
	}
	defer out.Close()

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.TimeLimitSeconds > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(s.TimeLimitSeconds)*time.Second)
	}
	defer cancel()

	instancePath := filepath.Join(opts.InstancesDir, t.InstanceFile)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, s.Binary, BuildSolverArgs(alg, instancePath, t.Seed, s.TimeLimitSeconds, s.Debug)...)
	cmd.Stdout = out
	cmd.Stderr = &stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = time.Duration(s.GraceSeconds) * time.Second

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	if ctx.Err() != nil {
		return 0, false, duration, ctx.Err()
	}
	timedOut := runCtx.Err() != nil
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, timedOut, duration, nil
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			code = 128 + int(ws.Signal())
		}
		if !timedOut {
			opts.logger().Warn("solver failed", "task", t.String(), "exit", code, "stderr", tail(stderr.String()))
		}
		return code, timedOut, duration, nil
	case timedOut && errors.Is(err, context.DeadlineExceeded), errors.Is(err, exec.ErrWaitDelay):
		return 0, timedOut, duration, nil
	default:
		return 0, false, duration, fmt.Errorf("running solver: %w", err)
	}
}

func solveDocker(ctx context.Context, opts *SolveOpts, alg *config.Algorithm, t Task, logPath string) (int, bool, time.Duration, error) {
	s := opts.Solver
	instancesAbs, err := filepath.Abs(opts.InstancesDir)
	if err != nil {
		return 0, false, 0, fmt.Errorf("resolving instances dir: %w", err)
	}
	outAbs, err := filepath.Abs(filepath.Dir(logPath))
	if err != nil {
		return 0, false, 0, fmt.Errorf("resolving output dir: %w", err)
	}

	binary := s.Binary
	if binary == "" {
		binary = "solver"
	}
	args := BuildSolverArgs(alg, containerInstances+"/"+t.InstanceFile, t.Seed, s.TimeLimitSeconds, s.Debug)
	script := "exec " + shellJoin(append([]string{binary}, args...)) + " > " + shellQuote(containerOut+"/"+filepath.Base(logPath))

	res, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:   s.Image,
		Command: []string{"sh", "-c", script},
		Mounts: []docker.Mount{
			{Source: instancesAbs, Target: containerInstances, ReadOnly: true},
			{Source: outAbs, Target: containerOut},
		},
		Timeout:     time.Duration(s.TimeLimitSeconds) * time.Second,
		Grace:       time.Duration(s.GraceSeconds) * time.Second,
		CPULimit:    s.CPULimit,
		MemoryLimit: s.MemoryLimit,
		UserID:      fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
	})
	if err != nil {
		return 0, false, 0, err
	}
	if res.ExitCode != 0 && !res.TimedOut {
		opts.logger().Warn("solver failed", "task", t.String(), "exit", res.ExitCode, "stderr", tail(res.Logs))
	}
	return res.ExitCode, res.TimedOut, res.Duration, nil
}

// Run solves tasks with at most Solver.Parallel at a time. Tasks that fail
// to start are reported in the returned errors; the others still run.
// progress, if set, is called from worker goroutines.
func Run(ctx context.Context, opts *SolveOpts, tasks []Task, progress func(*TaskResult)) ([]*TaskResult, []error) {
	results := make([]*TaskResult, len(tasks))
	jobs := make([]Job, len(tasks))
	for i, t := range tasks {
		jobs[i] = func(ctx context.Context) error {
			res, err := Solve(ctx, opts, t)
			if err != nil {
				return err
			}
			results[i] = res
			if progress != nil {
				progress(res)
			}
			return nil
		}
	}
	errs := RunPool(ctx, opts.Solver.Parallel, jobs)

	done := results[:0]
	for _, r := range results {
		if r != nil {
			done = append(done, r)
		}
	}
	return done, errs
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 512 {
		s = "..." + s[len(s)-512:]
	}
	return s
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}
