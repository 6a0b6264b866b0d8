package inventory_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/inventory"
	"github.com/signalnine/gapbench/internal/result"
)

func writeLog(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func instances() []analysis.Instance {
	return []analysis.Instance{
		{Name: "small", Size: 100},
		{Name: "medium", Size: 5000},
		{Name: "large", Size: 90000},
		{Name: "huge", Size: 700000},
	}
}

func TestCheck(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hmax")
	writeLog(t, dir, "small_3_42.out", "Solution found!\n############### Solution ###############\n1 2\nCost: 7\n")
	writeLog(t, dir, "medium_3_42.out", "Solving...\nTimelimit reached\n")
	writeLog(t, dir, "large_3_42.out", "File large.sas parsed!\nSolving...\n")
	writeLog(t, dir, "notes.txt", "ignored")

	rep, err := inventory.Check(config.Group{Name: "hmax", Dir: dir}, instances())
	require.NoError(t, err)

	assert.Equal(t, "hmax", rep.Group)
	assert.Equal(t, 3, rep.Logs)
	assert.Equal(t, 1, rep.Finished)

	require.Len(t, rep.Missing, 1)
	assert.Equal(t, "huge", rep.Missing[0].Instance)
	assert.Equal(t, int64(700000), rep.Missing[0].Size)

	require.Len(t, rep.Incomplete, 2)
	assert.Equal(t, "large", rep.Incomplete[0].Instance)
	assert.Equal(t, "medium", rep.Incomplete[1].Instance)

	require.Len(t, rep.Anomalous, 1)
	assert.Equal(t, "large", rep.Anomalous[0].Instance)
	assert.Equal(t, "Solving...", rep.Anomalous[0].LastLine)
}

func TestCheckMissingSortedBySize(t *testing.T) {
	rep, err := inventory.Check(config.Group{Name: "empty", Dir: filepath.Join(t.TempDir(), "none")}, instances())
	require.NoError(t, err)

	var names []string
	for _, e := range rep.Missing {
		names = append(names, e.Instance)
	}
	assert.Equal(t, []string{"huge", "large", "medium", "small"}, names)
	assert.Zero(t, rep.Logs)
}

func TestCheckHonoursGroupFilters(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "small_4_42.out", "Solution does not exist!\n")
	writeLog(t, dir, "small_4_50.out", "Solving...\n")
	writeLog(t, dir, "medium_1_42.out", "Solving...\n")

	g := config.Group{Name: "backprop", Dir: dir, Algorithm: "4", Seeds: config.SeedRange{Min: 42, Max: 46}}
	rep, err := inventory.Check(g, instances())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Logs)
	assert.Equal(t, 1, rep.Finished)
	assert.Empty(t, rep.Anomalous)
	assert.Len(t, rep.Missing, 3)
}

func TestCheckReadsTaskMeta(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "large_0_42.out", "Solving...\nTimelimit reached\n")
	require.NoError(t, result.WriteTaskMeta(filepath.Join(dir, "large_0_42.out"), &result.TaskMeta{
		Instance: "large", Algorithm: "0", Seed: 42, ExitCode: 143, TimedOut: true,
	}))

	rep, err := inventory.Check(config.Group{Name: "random", Dir: dir}, instances())
	require.NoError(t, err)

	require.Len(t, rep.Incomplete, 1)
	e := rep.Incomplete[0]
	require.NotNil(t, e.ExitCode)
	assert.Equal(t, 143, *e.ExitCode)
	assert.True(t, e.TimedOut)
	assert.Equal(t, 1, rep.Logs)
}

func TestCheckAllAndWrite(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	writeLog(t, a, "small_0_42.out", "Solution found!\n############### Solution ###############\n1\nCost: 3\n")
	writeLog(t, b, "large_1_42.out", "Segmentation fault\n")

	reps, err := inventory.CheckAll(context.Background(), []config.Group{
		{Name: "a", Dir: a},
		{Name: "b", Dir: b},
	}, instances(), 2)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, "a", reps[0].Group)
	assert.Equal(t, "b", reps[1].Group)

	var buf bytes.Buffer
	inventory.Write(&buf, reps, ".sas")
	out := buf.String()
	assert.Contains(t, out, "== a: 1/1 finished")
	assert.Contains(t, out, "== b: 0/1 finished")
	assert.Contains(t, out, "Missing: huge.sas, Size: 700000 bytes")
	assert.Contains(t, out, `Anomalous: `+filepath.Join(b, "large_1_42.out")+`: "Segmentation fault"`)
	assert.Less(t, strings.Index(out, "== a"), strings.Index(out, "== b"))
}

func TestCheckAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inventory.CheckAll(ctx, []config.Group{{Name: "a", Dir: t.TempDir()}}, nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
