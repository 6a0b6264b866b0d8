package result_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalnine/gapbench/internal/result"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want result.RunOutcome
	}{
		{
			"solved",
			"File x.sas parsed!\nSolving...\nSolution found!\n\n############### Solution ###############\n3 7 1\nCost: 42\n",
			result.SolvedOutcome(42),
		},
		{
			"solved negative cost",
			"Solution found!\nCost: -7",
			result.SolvedOutcome(-7),
		},
		{
			"solved trailing blank lines",
			"Solution found!\nCost: 5\n\n\n",
			result.SolvedOutcome(5),
		},
		{
			"infeasible",
			"Solving...\nSolution does not exist!\n",
			result.InfeasibleOutcome(),
		},
		{
			"still running",
			"File x.sas parsed!\nSolving...\n",
			result.UnsolvedOutcome(),
		},
		{
			"timelimit",
			"Solving...\nTimelimit reached\n",
			result.UnsolvedOutcome(),
		},
		{
			"empty",
			"",
			result.UnsolvedOutcome(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := result.Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMalformedCost(t *testing.T) {
	for _, text := range []string{
		"Solution found!\nTimelimit reached\n",
		"Solution found!\nCost: abc\n",
		"Solution found!\nCost: \n",
	} {
		got, err := result.Parse(text)
		if !errors.Is(err, result.ErrMalformedCost) {
			t.Errorf("Parse(%q): expected ErrMalformedCost, got %v", text, err)
		}
		if got != result.UnsolvedOutcome() {
			t.Errorf("Parse(%q): got %+v, want unsolved", text, got)
		}
	}
}

func TestParseFoundTakesPriority(t *testing.T) {
	got, err := result.Parse("Solution does not exist!\nSolution found!\nCost: 3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != result.SolvedOutcome(3) {
		t.Errorf("got %+v, want solved(3)", got)
	}
}

func TestReadOutcome(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a_1_42.out")
	os.WriteFile(path, []byte("Solution found!\nCost: 9\n"), 0o644)

	got, err := result.ReadOutcome(path)
	if err != nil {
		t.Fatalf("ReadOutcome: %v", err)
	}
	if got != result.SolvedOutcome(9) {
		t.Errorf("got %+v", got)
	}

	got, err = result.ReadOutcome(filepath.Join(dir, "missing.out"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if got.Status != result.Unsolved || got.Cost != result.NoCost {
		t.Errorf("missing file: got %+v, want unsolved", got)
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []result.Status{result.Solved, result.Infeasible, result.Unsolved} {
		b, _ := s.MarshalText()
		var back result.Status
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", b, err)
		}
		if back != s {
			t.Errorf("got %v, want %v", back, s)
		}
	}
	var s result.Status
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestFinishedAndSettled(t *testing.T) {
	tests := []struct {
		text     string
		finished bool
		settled  bool
	}{
		{"Solution found!\n############### Solution ###############\n1\nCost: 4\n", true, true},
		{"Solving...\nSolution does not exist!\n", true, true},
		{"Solving...\nTimelimit reached\n", false, true},
		{"Solving...\n", false, false},
		{"Solution found!\n############### Solution ###############\n1 2\n", true, false},
		{"", false, false},
	}
	for _, tt := range tests {
		if got := result.Finished(tt.text); got != tt.finished {
			t.Errorf("Finished(%q) = %v, want %v", tt.text, got, tt.finished)
		}
		if got := result.Settled(tt.text); got != tt.settled {
			t.Errorf("Settled(%q) = %v, want %v", tt.text, got, tt.settled)
		}
	}
}
