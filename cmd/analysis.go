package cmd

import (
	"fmt"
	"log/slog"

	"github.com/signalnine/gapbench/internal/analysis"
	"github.com/signalnine/gapbench/internal/bestknown"
	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/metrics"
	"github.com/signalnine/gapbench/internal/outcomecache"
)

// analysisOptions builds pass options from cfg with the store, outcome
// cache and metrics attached. The returned func releases the cache.
func analysisOptions(cfg *config.Config, rec *metrics.Recorder) (analysis.Options, func(), error) {
	opts := analysis.OptionsFromConfig(cfg)
	opts.Metrics = rec
	opts.Logger = slog.Default()
	release := func() {}

	if p := cfg.Analysis.BestKnown.Path; p != "" {
		store, err := bestknown.LoadStore(p)
		if err != nil {
			return opts, release, err
		}
		opts.Store = store
	}
	if dir := cfg.Analysis.Cache.Dir; dir != "" {
		cache, err := outcomecache.Open(outcomecache.Config{Dir: dir, Logger: slog.Default()})
		if err != nil {
			return opts, release, err
		}
		opts.Cache = cache
		release = func() {
			if err := cache.Close(); err != nil {
				slog.Warn("closing outcome cache", "err", err)
			}
		}
	}
	return opts, release, nil
}

// selectGroups narrows cfg to the named groups. No names keeps all.
func selectGroups(cfg *config.Config, names []string) ([]config.Group, error) {
	if len(names) == 0 {
		return cfg.Groups, nil
	}
	var groups []config.Group
	for _, n := range names {
		g := cfg.GroupByName(n)
		if g == nil {
			return nil, fmt.Errorf("unknown group %q", n)
		}
		groups = append(groups, *g)
	}
	return groups, nil
}
