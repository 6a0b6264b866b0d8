package runner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/result"
)

// Task is one solver invocation: an instance file solved by one algorithm
// with one seed.
type Task struct {
	InstanceFile string
	Algorithm    string
	Seed         int
}

func (t Task) Instance() string {
	return result.InstanceName(t.InstanceFile)
}

func (t Task) String() string {
	return fmt.Sprintf("%s %s %d", t.InstanceFile, t.Algorithm, t.Seed)
}

// GenerateTasks expands every instance file × algorithm × seed of seeds.
func GenerateTasks(instanceFiles []string, algorithms []config.Algorithm, seeds config.SeedRange) []Task {
	tasks := make([]Task, 0, len(instanceFiles)*len(algorithms)*(seeds.Max-seeds.Min+1))
	for _, f := range instanceFiles {
		for _, alg := range algorithms {
			for seed := seeds.Min; seed <= seeds.Max; seed++ {
				tasks = append(tasks, Task{InstanceFile: filepath.Base(f), Algorithm: alg.Code, Seed: seed})
			}
		}
	}
	return tasks
}

// WriteTasks writes tasks to path, one "<instance-file> <alg> <seed>" per
// line.
func WriteTasks(path string, tasks []Task) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating task list: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, t := range tasks {
		fmt.Fprintln(w, t.String())
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing task list: %w", err)
	}
	return f.Close()
}

// ReadTasks parses a task list. Blank lines and lines starting with # are
// skipped.
func ReadTasks(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening task list: %w", err)
	}
	defer f.Close()

	var tasks []Task
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s line %d: want 3 fields, got %d", path, n, len(fields))
		}
		seed, err := strconv.Atoi(fields[2])
		if err != nil || seed < 0 {
			return nil, fmt.Errorf("%s line %d: bad seed %q", path, n, fields[2])
		}
		tasks = append(tasks, Task{InstanceFile: fields[0], Algorithm: fields[1], Seed: seed})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading task list: %w", err)
	}
	return tasks, nil
}
