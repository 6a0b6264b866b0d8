package docker_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/gapbench/internal/docker"
)

func TestRunContainer(t *testing.T) {
	if os.Getenv("GAPBENCH_DOCKER_TESTS") == "" {
		t.Skip("set GAPBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	os.WriteFile(filepath.Join(inDir, "p1.sas"), []byte("begin_version\n3\nend_version\n"), 0o644)

	result, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "head -1 /instances/p1.sas > /out/p1_0_42.out"},
		Mounts: []docker.Mount{
			{Source: inDir, Target: "/instances", ReadOnly: true},
			{Source: outDir, Target: "/out"},
		},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code: got %d, want 0", result.ExitCode)
	}
	if result.TimedOut {
		t.Error("unexpected timeout")
	}
	content, err := os.ReadFile(filepath.Join(outDir, "p1_0_42.out"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(content) != "begin_version\n" {
		t.Errorf("output: got %q, want %q", content, "begin_version\n")
	}
}

func TestRunContainerTimeoutSendsSIGTERM(t *testing.T) {
	if os.Getenv("GAPBENCH_DOCKER_TESTS") == "" {
		t.Skip("set GAPBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	outDir := t.TempDir()

	result, err := docker.RunContainer(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "trap 'echo Timelimit reached > /out/log; exit 15' TERM; while true; do sleep 0.1; done"},
		Mounts:  []docker.Mount{{Source: outDir, Target: "/out"}},
		Timeout: 2 * time.Second,
		Grace:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected timeout")
	}
	if result.ExitCode != 15 {
		t.Errorf("exit code: got %d, want 15", result.ExitCode)
	}
	content, _ := os.ReadFile(filepath.Join(outDir, "log"))
	if string(content) != "Timelimit reached\n" {
		t.Errorf("log: got %q", content)
	}
}

func TestRunContainerKilledAfterGrace(t *testing.T) {
	if os.Getenv("GAPBENCH_DOCKER_TESTS") == "" {
		t.Skip("set GAPBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	result, err := docker.RunContainer(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "trap '' TERM; while true; do sleep 0.1; done"},
		Timeout: 1 * time.Second,
		Grace:   1 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected timeout")
	}
	if result.ExitCode != 137 {
		t.Errorf("exit code: got %d, want 137", result.ExitCode)
	}
}

func TestRunContainerCrash(t *testing.T) {
	if os.Getenv("GAPBENCH_DOCKER_TESTS") == "" {
		t.Skip("set GAPBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	result, err := docker.RunContainer(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "echo boom >&2; exit 1"},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if result.ExitCode != 1 {
		t.Errorf("exit code: got %d, want 1", result.ExitCode)
	}
	if result.Logs == "" {
		t.Error("expected stderr tail for failed run")
	}
}
