// Package analysis runs the primal-gap pipeline: it parses every solver log
// of every configured group, resolves a best known cost per instance, turns
// each run into a primal gap and bins the gaps into per-group cumulative
// distributions.
//
// Best known costs are resolved for all instances before any gap is
// computed; that is the only synchronisation point between stages.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/gapbench/internal/bestknown"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/distribution"
	"github.com/signalnine/gapbench/internal/gap"
	"github.com/signalnine/gapbench/internal/metrics"
	"github.com/signalnine/gapbench/internal/outcomecache"
	"github.com/signalnine/gapbench/internal/result"
)

// Diagnostic kinds.
const (
	KindParse     = "parse"
	KindUnmatched = "unmatched"
	KindAmbiguous = "ambiguous"
)

// Diagnostic reports a log that needs manual follow-up. It never aborts a
// pass.
type Diagnostic struct {
	Group string `json:"group"`
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Err   string `json:"error"`
}

type Options struct {
	// Groups are all groups whose runs count toward best known costs.
	Groups []config.Group
	// Report names the groups to aggregate. Empty means every group.
	Report []string

	InstancesDir string
	InstancesExt string
	Match        string
	Grid         distribution.Grid

	// SkipUnresolved drops runs against instances no group solved.
	SkipUnresolved bool
	Workers        int

	// Store, when set, receives every resolved best known cost. With
	// ReuseStore, costs already in the store are used instead of being
	// recomputed from the logs.
	Store      *bestknown.Store
	ReuseStore bool

	Cache   *outcomecache.Cache
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// OptionsFromConfig builds Options from a loaded config. Store, cache and
// metrics are left for the caller to attach.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Groups:         cfg.Groups,
		InstancesDir:   cfg.Instances.Dir,
		InstancesExt:   cfg.Instances.Ext,
		Match:          cfg.Analysis.Match,
		Grid:           cfg.Analysis.Grid,
		SkipUnresolved: cfg.Analysis.SkipUnresolved,
		Workers:        cfg.Analysis.Workers,
		ReuseStore:     cfg.Analysis.BestKnown.Reuse,
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

// Collection is every parsed run of a pass.
type Collection struct {
	Instances   []Instance
	Groups      []string
	Runs        []result.Run
	Diagnostics []Diagnostic
}

// GroupRuns returns the runs of one group in collection order.
func (c *Collection) GroupRuns(group string) []result.Run {
	var out []result.Run
	for _, r := range c.Runs {
		if r.Group == group {
			out = append(out, r)
		}
	}
	return out
}

// OutcomesByInstance groups outcomes of all groups by instance.
func (c *Collection) OutcomesByInstance() map[string][]result.RunOutcome {
	out := make(map[string][]result.RunOutcome, len(c.Instances))
	for _, r := range c.Runs {
		out[r.Instance] = append(out[r.Instance], r.Outcome)
	}
	return out
}

// Collect discovers instances, associates every group's logs with them and
// parses the logs in parallel.
func Collect(ctx context.Context, opts Options) (*Collection, error) {
	log := opts.logger()

	var (
		instances []Instance
		err       error
	)
	switch {
	case opts.InstancesDir != "":
		instances, err = DiscoverInstances(opts.InstancesDir, opts.InstancesExt)
	case opts.Match == config.MatchPrefix:
		return nil, fmt.Errorf("prefix matching needs an instances dir")
	default:
		instances, err = instancesFromLogs(opts.Groups)
	}
	if err != nil {
		return nil, err
	}

	col := &Collection{Instances: instances}
	m := newMatcher(opts.Match, instances)
	for _, g := range opts.Groups {
		col.Groups = append(col.Groups, g.Name)
		files, err := logFiles(g.Dir)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}
		if len(files) == 0 {
			log.Warn("group has no logs", "group", g.Name, "dir", g.Dir)
		}
		for _, f := range files {
			path := filepath.Join(g.Dir, f)
			ref, diag := m.match(f)
			if diag != nil {
				diag.Group, diag.Path = g.Name, path
				col.Diagnostics = append(col.Diagnostics, *diag)
			}
			if ref.Instance == "" || !g.Accepts(ref.Algorithm, ref.Seed) {
				continue
			}
			col.Runs = append(col.Runs, result.Run{
				Instance:  ref.Instance,
				Group:     g.Name,
				Algorithm: ref.Algorithm,
				Seed:      ref.Seed,
				Path:      path,
			})
		}
	}

	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.workers())
	for i := range col.Runs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run := &col.Runs[i]
			o, hit, err := readOutcome(opts.Cache, run.Path)
			run.Outcome = o
			if opts.Cache != nil {
				opts.Metrics.ObserveCache(hit)
			}
			opts.Metrics.ObserveLog(run.Group, o.Status.String(), err != nil)
			if err != nil {
				log.Warn("unusable log", "group", run.Group, "path", run.Path, "err", err)
				mu.Lock()
				col.Diagnostics = append(col.Diagnostics, Diagnostic{Group: run.Group, Path: run.Path, Kind: KindParse, Err: err.Error()})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(col.Diagnostics, func(i, j int) bool {
		return col.Diagnostics[i].Path < col.Diagnostics[j].Path
	})
	return col, nil
}

func readOutcome(c *outcomecache.Cache, path string) (result.RunOutcome, bool, error) {
	if c == nil {
		o, err := result.ReadOutcome(path)
		return o, false, err
	}
	return c.Read(path)
}

// ResolveBestKnown computes the best known cost of every instance of col. If
// store is non-nil every value is written to it; with reuse, values already
// stored win over the logs.
func ResolveBestKnown(col *Collection, store *bestknown.Store, reuse bool) map[string]int64 {
	byInstance := col.OutcomesByInstance()
	best := make(map[string]int64, len(col.Instances))
	for _, in := range col.Instances {
		if store != nil && reuse {
			if c, ok := store.Get(in.Name); ok {
				best[in.Name] = c
				continue
			}
		}
		c := bestknown.Resolve(byInstance[in.Name])
		best[in.Name] = c
		if store != nil {
			store.Set(in.Name, c)
		}
	}
	return best
}

// GroupSummary is the outcome of one algorithm group.
type GroupSummary struct {
	Name       string               `json:"name"`
	Runs       int                  `json:"runs"`
	Solved     int                  `json:"solved"`
	Infeasible int                  `json:"infeasible"`
	Unsolved   int                  `json:"unsolved"`
	Skipped    int                  `json:"skipped,omitempty"`
	MeanGap    float64              `json:"mean_gap"`
	CDF        []distribution.Point `json:"cdf"`
}

// Aggregate computes the gaps of the groups named in opts.Report (all groups
// when empty) against best and bins them. Groups are processed in parallel.
func Aggregate(ctx context.Context, col *Collection, best map[string]int64, opts Options) ([]GroupSummary, error) {
	names, err := reportGroups(col.Groups, opts.Report)
	if err != nil {
		return nil, err
	}
	agg := distribution.NewAggregator(opts.Grid)
	summaries := make([]GroupSummary, len(names))
	runsByGroup := map[string][]result.Run{}
	for _, r := range col.Runs {
		runsByGroup[r.Group] = append(runsByGroup[r.Group], r)
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.workers())
	for i, name := range names {
		agg.Declare(name)
		runs := runsByGroup[name]
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := GroupSummary{Name: name}
			gaps := make([]float64, 0, len(runs))
			var sum float64
			for _, r := range runs {
				b, ok := best[r.Instance]
				if !ok {
					b = gap.Unresolved
				}
				if opts.SkipUnresolved && b == gap.Unresolved {
					s.Skipped++
					continue
				}
				s.Runs++
				switch r.Outcome.Status {
				case result.Solved:
					s.Solved++
				case result.Infeasible:
					s.Infeasible++
				default:
					s.Unsolved++
				}
				g := gap.ForOutcome(r.Outcome, b)
				gaps = append(gaps, g)
				sum += g
			}
			if len(gaps) > 0 {
				s.MeanGap = sum / float64(len(gaps))
			}
			agg.Add(name, gaps...)
			summaries[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	series, err := agg.Distributions(ctx, opts.workers())
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].CDF = series[i].Points
	}
	return summaries, nil
}

func reportGroups(all, selected []string) ([]string, error) {
	if len(selected) == 0 {
		return all, nil
	}
	known := make(map[string]bool, len(all))
	for _, g := range all {
		known[g] = true
	}
	for _, g := range selected {
		if !known[g] {
			return nil, fmt.Errorf("unknown group %q", g)
		}
	}
	return selected, nil
}

// Result is the outcome of a full pass.
type Result struct {
	Thresholds  []float64        `json:"thresholds"`
	Instances   int              `json:"instances"`
	Unresolved  int              `json:"unresolved"`
	BestKnown   map[string]int64 `json:"best_known"`
	Groups      []GroupSummary   `json:"groups"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
}

// Run executes a full pass and saves the best-known store if it changed.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.logger()

	col, err := Collect(ctx, opts)
	if err != nil {
		return nil, err
	}
	log.Info("collected runs", "instances", len(col.Instances), "runs", len(col.Runs), "diagnostics", len(col.Diagnostics))

	best := ResolveBestKnown(col, opts.Store, opts.ReuseStore)
	if opts.Store != nil && opts.Store.Path() != "" && opts.Store.Dirty() {
		if err := opts.Store.Save(); err != nil {
			return nil, fmt.Errorf("saving best-known store: %w", err)
		}
		log.Info("best-known store updated", "path", opts.Store.Path(), "instances", opts.Store.Len())
	}

	groups, err := Aggregate(ctx, col, best, opts)
	if err != nil {
		return nil, err
	}

	unresolved := 0
	for _, c := range best {
		if c == gap.Unresolved {
			unresolved++
		}
	}
	res := &Result{
		Thresholds:  opts.Grid.Values(),
		Instances:   len(col.Instances),
		Unresolved:  unresolved,
		BestKnown:   best,
		Groups:      groups,
		Diagnostics: col.Diagnostics,
	}

	opts.Metrics.SetInstances(res.Instances-unresolved, unresolved)
	for _, g := range groups {
		opts.Metrics.SetMeanGap(g.Name, g.MeanGap)
	}
	opts.Metrics.ObserveAnalysis(time.Since(start).Seconds())
	return res, nil
}
