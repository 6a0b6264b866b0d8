package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/result"
)

// Instance is one planning problem of the batch.
type Instance struct {
	Name string `json:"name"`
	File string `json:"file,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// DiscoverInstances lists the instance files with extension ext in dir.
func DiscoverInstances(dir, ext string) ([]Instance, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading instances dir: %w", err)
	}
	var out []Instance
	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		name := result.InstanceName(e.Name())
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("instances %s and %s share the name %q", prev, e.Name(), name)
		}
		seen[name] = e.Name()
		out = append(out, Instance{Name: name, File: filepath.Join(dir, e.Name()), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// logFiles lists candidate solver logs in dir, skipping hidden files and
// task metadata.
func logFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading group dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".json") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// instancesFromLogs derives the instance set from tokenised log names when no
// instance directory is configured.
func instancesFromLogs(groups []config.Group) ([]Instance, error) {
	seen := map[string]bool{}
	var out []Instance
	for _, g := range groups {
		files, err := logFiles(g.Dir)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}
		for _, f := range files {
			ref, err := result.ParseOutputName(f)
			if err != nil || seen[ref.Instance] {
				continue
			}
			seen[ref.Instance] = true
			out = append(out, Instance{Name: ref.Instance})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// matcher assigns log filenames to instances.
type matcher interface {
	match(file string) (result.OutputRef, *Diagnostic)
}

type tokenMatcher struct {
	known map[string]bool
}

func (m tokenMatcher) match(file string) (result.OutputRef, *Diagnostic) {
	if !strings.HasSuffix(file, result.OutputExt) {
		return result.OutputRef{}, nil
	}
	ref, err := result.ParseOutputName(file)
	if err != nil {
		return result.OutputRef{}, &Diagnostic{Kind: KindUnmatched, Err: err.Error()}
	}
	if !m.known[ref.Instance] {
		return result.OutputRef{}, &Diagnostic{Kind: KindUnmatched, Err: fmt.Sprintf("unknown instance %q", ref.Instance)}
	}
	return ref, nil
}

// prefixMatcher keeps the legacy prefix association. When several instance
// names prefix a file, the longest one wins and the ambiguity is reported.
type prefixMatcher struct {
	names []string
}

func newPrefixMatcher(instances []Instance) prefixMatcher {
	names := make([]string, len(instances))
	for i, in := range instances {
		names[i] = in.Name
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	return prefixMatcher{names: names}
}

func (m prefixMatcher) match(file string) (result.OutputRef, *Diagnostic) {
	var hits []string
	for _, n := range m.names {
		if strings.HasPrefix(file, n) {
			hits = append(hits, n)
		}
	}
	if len(hits) == 0 {
		return result.OutputRef{}, &Diagnostic{Kind: KindUnmatched, Err: "no instance name prefixes this file"}
	}
	ref := result.OutputRef{Instance: hits[0]}
	if parsed, err := result.ParseOutputName(file); err == nil && parsed.Instance == hits[0] {
		ref = parsed
	}
	if len(hits) > 1 {
		return ref, &Diagnostic{Kind: KindAmbiguous, Err: fmt.Sprintf("matches instances %s; using %q", strings.Join(hits, ", "), hits[0])}
	}
	return ref, nil
}

func newMatcher(mode string, instances []Instance) matcher {
	if mode == config.MatchPrefix {
		return newPrefixMatcher(instances)
	}
	known := make(map[string]bool, len(instances))
	for _, in := range instances {
		known[in.Name] = true
	}
	return tokenMatcher{known: known}
}
