package result_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/signalnine/gapbench/internal/result"
)

func TestWriteAndReadTaskMeta(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hmax", "p12_deletefree_3_42.out")
	meta := &result.TaskMeta{
		Instance:  "p12_deletefree",
		Algorithm: "3",
		Seed:      42,
		DurationS: 60,
		ExitCode:  143,
		TimedOut:  true,
	}
	if err := result.WriteTaskMeta(logPath, meta); err != nil {
		t.Fatalf("WriteTaskMeta: %v", err)
	}
	got, err := result.ReadTaskMeta(logPath)
	if err != nil {
		t.Fatalf("ReadTaskMeta: %v", err)
	}
	if *got != *meta {
		t.Errorf("got %+v, want %+v", got, meta)
	}
}

func TestOutputPath(t *testing.T) {
	base := t.TempDir()
	got := result.OutputPath(base, "greedy", "p12_deletefree", "1", 44)
	want := filepath.Join(base, "greedy", "p12_deletefree_1_44.out")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseOutputName(t *testing.T) {
	tests := []struct {
		file string
		want result.OutputRef
	}{
		{"agricola-sat18-strips-p12_deletefree_0_42.out", result.OutputRef{Instance: "agricola-sat18-strips-p12_deletefree", Algorithm: "0", Seed: 42}},
		{"/out/random/p1_random_7.out", result.OutputRef{Instance: "p1", Algorithm: "random", Seed: 7}},
		{"a_b_c_d_1.out", result.OutputRef{Instance: "a_b_c", Algorithm: "d", Seed: 1}},
	}
	for _, tt := range tests {
		got, err := result.ParseOutputName(tt.file)
		if err != nil {
			t.Errorf("ParseOutputName(%q): %v", tt.file, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputName(%q) = %+v, want %+v", tt.file, got, tt.want)
		}
	}
}

func TestParseOutputNameRejects(t *testing.T) {
	for _, file := range []string{
		"p1_0_42.txt",
		"p1_42.out",
		"p1_0_x.out",
		"_0_42.out",
		"p1__42.out",
		"p1_0_-3.out",
	} {
		if _, err := result.ParseOutputName(file); !errors.Is(err, result.ErrBadOutputName) {
			t.Errorf("ParseOutputName(%q): expected ErrBadOutputName, got %v", file, err)
		}
	}
}

func TestInstanceName(t *testing.T) {
	tests := map[string]string{
		"p12_deletefree.sas":         "p12_deletefree",
		"../DeletefreeSAS/p03.sas":   "p03",
		"noext":                      "noext",
		"sokoban.sat08.deletefree.x": "sokoban",
	}
	for in, want := range tests {
		if got := result.InstanceName(in); got != want {
			t.Errorf("InstanceName(%q) = %q, want %q", in, got, want)
		}
	}
}
