package result

import "fmt"

// NoCost is the cost recorded for runs that produced no usable solution.
const NoCost int64 = -1

type Status int

const (
	Unsolved Status = iota
	Solved
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case Infeasible:
		return "infeasible"
	default:
		return "unsolved"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "solved":
		*s = Solved
	case "infeasible":
		*s = Infeasible
	case "unsolved":
		*s = Unsolved
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// RunOutcome is the parsed result of a single solver log.
type RunOutcome struct {
	Status Status `json:"status"`
	Cost   int64  `json:"cost"`
}

// HasCost reports whether Cost carries a meaningful value.
func (o RunOutcome) HasCost() bool {
	return o.Status == Solved || o.Status == Infeasible
}

func SolvedOutcome(cost int64) RunOutcome {
	return RunOutcome{Status: Solved, Cost: cost}
}

func InfeasibleOutcome() RunOutcome {
	return RunOutcome{Status: Infeasible, Cost: 0}
}

func UnsolvedOutcome() RunOutcome {
	return RunOutcome{Status: Unsolved, Cost: NoCost}
}

// Run ties an outcome to the log it was parsed from.
type Run struct {
	Instance  string     `json:"instance"`
	Group     string     `json:"group"`
	Algorithm string     `json:"algorithm,omitempty"`
	Seed      int        `json:"seed,omitempty"`
	Path      string     `json:"path"`
	Outcome   RunOutcome `json:"outcome"`
}
