// Package inventory checks the state of a batch of solver runs: which
// instances have no log yet, which logs stopped before printing a cost and
// which ended on a line the solver never writes on exit.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/result"
)

// Entry is one instance or log flagged by a check.
type Entry struct {
	Instance string `json:"instance"`
	Size     int64  `json:"size"`
	Path     string `json:"path,omitempty"`
	LastLine string `json:"last_line,omitempty"`

	// Exit details, present when the runner left task metadata.
	ExitCode *int `json:"exit_code,omitempty"`
	TimedOut bool `json:"timed_out,omitempty"`
}

// Report is the inventory of one group.
type Report struct {
	Group    string `json:"group"`
	Logs     int    `json:"logs"`
	Finished int    `json:"finished"`

	// Missing lists instances without any log, largest instance first.
	Missing []Entry `json:"missing"`
	// Incomplete lists logs whose last line carries no cost, largest
	// instance first.
	Incomplete []Entry `json:"incomplete"`
	// Anomalous lists logs whose last line is none of the lines the solver
	// writes on exit.
	Anomalous []Entry `json:"anomalous"`
	// Unreadable lists logs that could not be read.
	Unreadable []Entry `json:"unreadable,omitempty"`
}

// Check builds the inventory of group g against instances.
func Check(g config.Group, instances []analysis.Instance) (*Report, error) {
	rep := &Report{Group: g.Name}
	sizes := make(map[string]int64, len(instances))
	for _, in := range instances {
		sizes[in.Name] = in.Size
	}

	entries, err := os.ReadDir(g.Dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("group %s: reading dir: %w", g.Name, err)
	}

	seen := map[string]bool{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), result.OutputExt) {
			continue
		}
		ref, err := result.ParseOutputName(e.Name())
		if err != nil || !g.Accepts(ref.Algorithm, ref.Seed) {
			continue
		}
		rep.Logs++
		seen[ref.Instance] = true

		path := filepath.Join(g.Dir, e.Name())
		entry := Entry{Instance: ref.Instance, Size: sizes[ref.Instance], Path: path}
		if meta, err := result.ReadTaskMeta(path); err == nil {
			code := meta.ExitCode
			entry.ExitCode = &code
			entry.TimedOut = meta.TimedOut
		}

		data, err := os.ReadFile(path)
		if err != nil {
			entry.LastLine = err.Error()
			rep.Unreadable = append(rep.Unreadable, entry)
			continue
		}
		text := string(data)
		entry.LastLine = result.LastLine(text)
		if result.Finished(text) {
			rep.Finished++
		}
		if !strings.Contains(entry.LastLine, "Cost") {
			rep.Incomplete = append(rep.Incomplete, entry)
		}
		if !result.Settled(text) {
			rep.Anomalous = append(rep.Anomalous, entry)
		}
	}

	for _, in := range instances {
		if !seen[in.Name] {
			rep.Missing = append(rep.Missing, Entry{Instance: in.Name, Size: in.Size})
		}
	}
	bySize(rep.Missing)
	bySize(rep.Incomplete)
	bySize(rep.Anomalous)
	return rep, nil
}

// CheckAll builds the inventory of every group, at most workers at a time.
func CheckAll(ctx context.Context, groups []config.Group, instances []analysis.Instance, workers int) ([]*Report, error) {
	out := make([]*Report, len(groups))
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, g := range groups {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := Check(g, instances)
			if err != nil {
				return err
			}
			out[i] = rep
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func bySize(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Size != entries[j].Size {
			return entries[i].Size > entries[j].Size
		}
		if entries[i].Instance != entries[j].Instance {
			return entries[i].Instance < entries[j].Instance
		}
		return entries[i].Path < entries[j].Path
	})
}

// Write prints reps as plain text, one block per group.
func Write(w io.Writer, reps []*Report, ext string) {
	for i, rep := range reps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s: %d/%d finished\n", rep.Group, rep.Finished, rep.Logs)
		for _, e := range rep.Missing {
			fmt.Fprintf(w, "Missing: %s%s, Size: %d bytes\n", e.Instance, ext, e.Size)
		}
		for _, e := range rep.Incomplete {
			fmt.Fprintf(w, "Incomplete: %s%s, Size: %d bytes%s\n", e.Instance, ext, e.Size, exitNote(e))
		}
		for _, e := range rep.Anomalous {
			fmt.Fprintf(w, "Anomalous: %s: %q\n", e.Path, e.LastLine)
		}
		for _, e := range rep.Unreadable {
			fmt.Fprintf(w, "Unreadable: %s: %s\n", e.Path, e.LastLine)
		}
	}
}

func exitNote(e Entry) string {
	switch {
	case e.TimedOut:
		return " (timed out)"
	case e.ExitCode != nil && *e.ExitCode != 0:
		return fmt.Sprintf(" (exit %d)", *e.ExitCode)
	}
	return ""
}
