package watch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/gapbench/internal/watch"
)

func TestWatcherBatchesLogChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := watch.New([]string{dir, filepath.Join(dir, "missing")}, watch.Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, w.Dirs())

	calls := make(chan []string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p1_0_42.out.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p1_0_42.out"), []byte("Solving...\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p2_0_42.out"), []byte("Solving...\n"), 0o644))

	select {
	case changed := <-calls:
		assert.Equal(t, []string{filepath.Join(dir, "p1_0_42.out"), filepath.Join(dir, "p2_0_42.out")}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcherHandlerErrorKeepsRunning(t *testing.T) {
	dir := t.TempDir()
	w, err := watch.New([]string{dir}, watch.Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	calls := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func(context.Context, []string) error {
		calls <- struct{}{}
		return errors.New("analysis failed")
	})

	for i, name := range []string{"a_0_1.out", "b_0_1.out"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("Solving...\n"), 0o644))
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("handler call %d missing", i+1)
		}
	}
}

func TestNewNoWatchableDirs(t *testing.T) {
	_, err := watch.New([]string{filepath.Join(t.TempDir(), "nope")}, watch.Options{})
	assert.Error(t, err)
}
