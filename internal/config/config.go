package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalnine/gapbench/internal/distribution"
)

// Matching modes for associating log files with instances.
const (
	MatchToken  = "token"
	MatchPrefix = "prefix"
)

type Config struct {
	Instances Instances `yaml:"instances"`
	Groups    []Group   `yaml:"groups"`
	Analysis  Analysis  `yaml:"analysis"`
	Solver    Solver    `yaml:"solver"`
	Report    Report    `yaml:"report"`
}

type Instances struct {
	Dir string `yaml:"dir"`
	Ext string `yaml:"ext"`
}

// Group is one algorithm group: every log in Dir, optionally narrowed to one
// algorithm token and a seed range.
type Group struct {
	Name      string    `yaml:"name"`
	Dir       string    `yaml:"dir"`
	Algorithm string    `yaml:"algorithm"`
	Seeds     SeedRange `yaml:"seeds"`
}

// Accepts reports whether a log of the given algorithm and seed belongs to g.
func (g Group) Accepts(algorithm string, seed int) bool {
	if g.Algorithm != "" && algorithm != g.Algorithm {
		return false
	}
	return g.Seeds.Contains(seed)
}

type SeedRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r SeedRange) IsZero() bool { return r.Min == 0 && r.Max == 0 }

func (r SeedRange) Contains(seed int) bool {
	return r.IsZero() || (seed >= r.Min && seed <= r.Max)
}

type Analysis struct {
	Grid           distribution.Grid `yaml:"grid"`
	Match          string            `yaml:"match"`
	SkipUnresolved bool              `yaml:"skip_unresolved"`
	Workers        int               `yaml:"workers"`
	BestKnown      BestKnown         `yaml:"best_known"`
	Cache          Cache             `yaml:"cache"`
}

type BestKnown struct {
	Path  string `yaml:"path"`
	Reuse bool   `yaml:"reuse"`
}

type Cache struct {
	Dir string `yaml:"dir"`
}

type Solver struct {
	Binary           string      `yaml:"binary"`
	Image            string      `yaml:"image"`
	TimeLimitSeconds int         `yaml:"time_limit_seconds"`
	// GraceSeconds is how long a solver may keep running after SIGTERM
	// before it is killed.
	GraceSeconds     int         `yaml:"grace_seconds"`
	Algorithms       []Algorithm `yaml:"algorithms"`
	Seeds            SeedRange   `yaml:"seeds"`
	OutputDir        string      `yaml:"output_dir"`
	TasksFile        string      `yaml:"tasks_file"`
	Parallel         int         `yaml:"parallel"`
	Debug            bool        `yaml:"debug"`
	CPULimit         float64     `yaml:"cpu_limit"`
	MemoryLimit      int64       `yaml:"memory_limit"`
}

// Algorithm maps a solver --alg code to the directory its logs go to.
type Algorithm struct {
	Code string   `yaml:"code"`
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

type Report struct {
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Instances.Ext == "" {
		cfg.Instances.Ext = ".sas"
	}
	if len(cfg.Groups) == 0 {
		return fmt.Errorf("no groups defined")
	}
	seen := map[string]bool{}
	for i, g := range cfg.Groups {
		if g.Name == "" {
			return fmt.Errorf("group %d: name is required", i)
		}
		if g.Dir == "" {
			return fmt.Errorf("group %q: dir is required", g.Name)
		}
		if seen[g.Name] {
			return fmt.Errorf("group %q: duplicate name", g.Name)
		}
		seen[g.Name] = true
		if g.Seeds.Max < g.Seeds.Min {
			return fmt.Errorf("group %q: seeds.max below seeds.min", g.Name)
		}
	}

	a := &cfg.Analysis
	if a.Grid.Step == 0 && a.Grid.Lower == 0 && a.Grid.Upper == 0 && len(a.Grid.Thresholds) == 0 {
		a.Grid = distribution.DefaultGrid()
	}
	if err := a.Grid.Validate(); err != nil {
		return fmt.Errorf("analysis.grid: %w", err)
	}
	switch a.Match {
	case "":
		a.Match = MatchToken
	case MatchToken, MatchPrefix:
	default:
		return fmt.Errorf("analysis.match: unknown mode %q", a.Match)
	}
	if a.Match == MatchPrefix {
		for _, g := range cfg.Groups {
			if g.Algorithm != "" || !g.Seeds.IsZero() {
				return fmt.Errorf("group %q: algorithm and seeds filters need match mode %q", g.Name, MatchToken)
			}
		}
	}
	if a.Workers < 1 {
		a.Workers = 8
	}
	if a.BestKnown.Reuse && a.BestKnown.Path == "" {
		return fmt.Errorf("analysis.best_known: reuse needs a path")
	}

	s := &cfg.Solver
	if s.TimeLimitSeconds < 0 {
		return fmt.Errorf("solver.time_limit_seconds must not be negative")
	}
	if s.GraceSeconds < 0 {
		return fmt.Errorf("solver.grace_seconds must not be negative")
	}
	if s.GraceSeconds == 0 {
		s.GraceSeconds = 5
	}
	if s.Parallel < 1 {
		s.Parallel = 1
	}
	if s.TasksFile == "" {
		s.TasksFile = "tasks.txt"
	}
	if s.OutputDir == "" {
		s.OutputDir = "out"
	}
	if s.Seeds.Max < s.Seeds.Min {
		return fmt.Errorf("solver.seeds: max below min")
	}
	for i, alg := range s.Algorithms {
		if alg.Code == "" {
			return fmt.Errorf("solver.algorithms[%d]: code is required", i)
		}
		if alg.Name == "" {
			s.Algorithms[i].Name = alg.Code
		}
	}

	switch cfg.Report.Format {
	case "":
		cfg.Report.Format = "table"
	case "table", "markdown", "json", "csv":
	default:
		return fmt.Errorf("report.format: unknown format %q", cfg.Report.Format)
	}
	return nil
}

// GroupByName returns the named group, or nil.
func (c *Config) GroupByName(name string) *Group {
	for i := range c.Groups {
		if c.Groups[i].Name == name {
			return &c.Groups[i]
		}
	}
	return nil
}

// AlgorithmByCode returns the solver algorithm with the given code, or nil.
func (s *Solver) AlgorithmByCode(code string) *Algorithm {
	for i := range s.Algorithms {
		if s.Algorithms[i].Code == code {
			return &s.Algorithms[i]
		}
	}
	return nil
}
