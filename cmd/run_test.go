package cmd

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/signalnine/gapbench/internal/config"
	"github.com/signalnine/gapbench/internal/runner"
)

func TestFilterAlgorithms(t *testing.T) {
	algs := []config.Algorithm{
		{Code: "0", Name: "random"},
		{Code: "1", Name: "greedy"},
		{Code: "7", Name: "partial"},
	}

	tests := []struct {
		name   string
		filter string
		want   int
	}{
		{"empty filter returns all", "", 3},
		{"match by code", "1", 1},
		{"match by name", "partial", 1},
		{"no match", "beam", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterAlgorithms(algs, tt.filter)
			if len(got) != tt.want {
				t.Errorf("filterAlgorithms(%q) returned %d, want %d", tt.filter, len(got), tt.want)
			}
		})
	}
}

func TestFilterTasks(t *testing.T) {
	tasks := []runner.Task{
		{InstanceFile: "sokoban-p03.sas", Algorithm: "0", Seed: 1},
		{InstanceFile: "sokoban-p04.sas", Algorithm: "1", Seed: 1},
		{InstanceFile: "blocks-p01.sas", Algorithm: "0", Seed: 2},
	}

	tests := []struct {
		name     string
		alg      string
		instance string
		want     int
	}{
		{"empty filters returns all", "", "", 3},
		{"filter by algorithm", "0", "", 2},
		{"filter by instance name", "", "sokoban-p03", 1},
		{"filter by instance file", "", "blocks-p01.sas", 1},
		{"filter by instance prefix", "", "sokoban-*", 2},
		{"combined", "1", "sokoban-*", 1},
		{"no match", "3", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterTasks(tasks, tt.alg, tt.instance)
			if len(got) != tt.want {
				t.Errorf("filterTasks(%q, %q) returned %d, want %d", tt.alg, tt.instance, len(got), tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if err != nil {
			t.Errorf("parseLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestVariantNote(t *testing.T) {
	tests := []struct {
		g    config.Group
		want string
	}{
		{config.Group{Name: "all"}, ""},
		{config.Group{Algorithm: "3"}, ", algorithm 3"},
		{config.Group{Algorithm: "3", Seeds: config.SeedRange{Min: 42, Max: 51}}, ", algorithm 3, seeds 42-51"},
	}
	for _, tt := range tests {
		if got := variantNote(tt.g); got != tt.want {
			t.Errorf("variantNote(%+v) = %q, want %q", tt.g, got, tt.want)
		}
	}
}

func TestSelectGroups(t *testing.T) {
	cfg := &config.Config{Groups: []config.Group{{Name: "random"}, {Name: "greedy"}}}

	all, err := selectGroups(cfg, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("selectGroups(nil) = %v, %v", all, err)
	}
	one, err := selectGroups(cfg, []string{"greedy"})
	if err != nil || len(one) != 1 || one[0].Name != "greedy" {
		t.Errorf("selectGroups(greedy) = %v, %v", one, err)
	}
	if _, err := selectGroups(cfg, []string{"beam"}); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := logHandler("json", &buf, slog.LevelWarn)
	if err != nil {
		t.Fatalf("logHandler: %v", err)
	}
	log := slog.New(h)
	log.Info("hidden")
	log.Warn("unusable log", "path", "out/random/p1_0_42.out")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record passed a warn level handler: %s", out)
	}
	if !strings.Contains(out, `"path":"out/random/p1_0_42.out"`) {
		t.Errorf("expected JSON attribute, got %s", out)
	}
	if _, err := logHandler("xml", &buf, slog.LevelInfo); err == nil {
		t.Error("expected error for unknown format")
	}
}
