package result

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Markers written by the solver.
const (
	MarkerFound      = "Solution found!"
	MarkerInfeasible = "Solution does not exist!"
	MarkerTimelimit  = "Timelimit reached"
	MarkerSolution   = "############### Solution ###############"
	costPrefix       = "Cost: "
)

var ErrMalformedCost = errors.New("malformed cost line")

// Parse turns the content of one solver log into a RunOutcome. A log that
// reports a solution but has no readable cost on its final line yields an
// Unsolved outcome together with an error wrapping ErrMalformedCost.
func Parse(text string) (RunOutcome, error) {
	switch {
	case strings.Contains(text, MarkerFound):
		last := LastLine(text)
		cost, err := parseCost(last)
		if err != nil {
			return UnsolvedOutcome(), err
		}
		return SolvedOutcome(cost), nil
	case strings.Contains(text, MarkerInfeasible):
		return InfeasibleOutcome(), nil
	default:
		return UnsolvedOutcome(), nil
	}
}

func parseCost(line string) (int64, error) {
	rest, ok := strings.CutPrefix(line, costPrefix)
	if !ok {
		return NoCost, fmt.Errorf("%w: %q", ErrMalformedCost, line)
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return NoCost, fmt.Errorf("%w: %q", ErrMalformedCost, line)
	}
	cost, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return NoCost, fmt.Errorf("%w: %q", ErrMalformedCost, line)
	}
	return cost, nil
}

// LastLine returns the final non-blank line of text with surrounding
// whitespace removed.
func LastLine(text string) string {
	text = strings.TrimRight(text, " \t\r\n")
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(text)
}

// ReadOutcome parses the log at path. Read failures are returned alongside an
// Unsolved outcome so callers can keep going.
func ReadOutcome(path string) (RunOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return UnsolvedOutcome(), fmt.Errorf("reading log: %w", err)
	}
	o, err := Parse(string(data))
	if err != nil {
		return o, fmt.Errorf("parsing %s: %w", path, err)
	}
	return o, nil
}

// Finished reports whether the solver ran to completion: it proved the
// instance infeasible or printed a solution.
func Finished(text string) bool {
	return strings.Contains(text, MarkerInfeasible) || strings.Contains(text, MarkerSolution)
}

// Settled reports whether the last line of text is one the solver writes on
// exit: a cost, the time limit notice or the infeasibility notice.
func Settled(text string) bool {
	last := LastLine(text)
	return strings.Contains(last, "Cost") ||
		strings.Contains(last, MarkerTimelimit) ||
		strings.Contains(last, MarkerInfeasible)
}
