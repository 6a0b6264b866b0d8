package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
)

// Label marks every container started by gapbench.
const Label = "gapbench"

type RunOpts struct {
	Image   string
	Command []string
	Env     map[string]string
	Mounts  []Mount
	// Timeout is the wall time after which the container receives SIGTERM.
	// Zero means no limit.
	Timeout time.Duration
	// Grace is how long the container may run after SIGTERM before it is
	// killed.
	Grace       time.Duration
	CPULimit    float64
	MemoryLimit int64
	UserID      string
}

type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

type RunResult struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration
	// Logs holds the tail of the container output for failed runs.
	Logs string
}

func RunContainer(ctx context.Context, opts *RunOpts) (*RunResult, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	envSlice := make([]string, 0, len(opts.Env))
	for k, v := range opts.Env {
		envSlice = append(envSlice, k+"="+v)
	}

	mounts := make([]mount.Mount, 0, len(opts.Mounts))
	for _, m := range opts.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts:      mounts,
		Init:        &initTrue,
		NetworkMode: "none",
	}
	if opts.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(opts.CPULimit * 1e9)
	}
	if opts.MemoryLimit > 0 {
		hostCfg.Memory = opts.MemoryLimit
	}

	containerCfg := &container.Config{
		Image:  opts.Image,
		Cmd:    opts.Command,
		Env:    envSlice,
		Labels: map[string]string{Label: "true"},
	}
	if opts.UserID != "" {
		containerCfg.User = opts.UserID
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	code, err := wait(waitCtx, cli, containerID)
	if err == nil {
		res := &RunResult{ExitCode: code, Duration: time.Since(start)}
		if code != 0 {
			res.Logs = tailLogs(cli, containerID)
		}
		return res, nil
	}
	if ctx.Err() != nil {
		cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
		return nil, ctx.Err()
	}
	if waitCtx.Err() == nil {
		return nil, fmt.Errorf("waiting for container: %w", err)
	}

	// Time limit hit: let the solver print its best solution, then kill.
	cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGTERM"})
	graceCtx, graceCancel := context.WithTimeout(context.Background(), opts.Grace)
	defer graceCancel()
	code, err = wait(graceCtx, cli, containerID)
	if err != nil {
		cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
		code = 137
	}
	return &RunResult{
		ExitCode: code,
		TimedOut: true,
		Duration: time.Since(start),
	}, nil
}

func wait(ctx context.Context, cli *client.Client, containerID string) (int, error) {
	waitResult := cli.ContainerWait(ctx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				return 0, err
			}
			// nil error means no error on this channel; wait for result
		case status := <-waitResult.Result:
			return int(status.StatusCode), nil
		}
	}
}

func tailLogs(cli *client.Client, containerID string) string {
	logReader, _ := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{ShowStderr: true, Tail: "20"})
	if logReader == nil {
		return ""
	}
	defer logReader.Close()
	data, _ := io.ReadAll(logReader)
	return string(data)
}
