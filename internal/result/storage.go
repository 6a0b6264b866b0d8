package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OutputExt is the extension of solver logs.
const OutputExt = ".out"

var ErrBadOutputName = errors.New("output name does not match <instance>_<algorithm>_<seed>" + OutputExt)

// OutputRef is the structured form of a solver log filename.
type OutputRef struct {
	Instance  string
	Algorithm string
	Seed      int
}

// InstanceName strips everything from the first dot of a file's base name,
// so "p12_deletefree.sas" becomes "p12_deletefree".
func InstanceName(file string) string {
	base := filepath.Base(file)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

func OutputName(instance, algorithm string, seed int) string {
	return fmt.Sprintf("%s_%s_%d%s", instance, algorithm, seed, OutputExt)
}

func OutputPath(outDir, group, instance, algorithm string, seed int) string {
	return filepath.Join(outDir, group, OutputName(instance, algorithm, seed))
}

// ParseOutputName splits a log filename from the right: the last field is the
// seed, the one before it the algorithm, and everything else the instance.
func ParseOutputName(file string) (OutputRef, error) {
	base := filepath.Base(file)
	stem, ok := strings.CutSuffix(base, OutputExt)
	if !ok {
		return OutputRef{}, fmt.Errorf("%w: %s", ErrBadOutputName, base)
	}
	i := strings.LastIndexByte(stem, '_')
	if i <= 0 {
		return OutputRef{}, fmt.Errorf("%w: %s", ErrBadOutputName, base)
	}
	seed, err := strconv.Atoi(stem[i+1:])
	if err != nil || seed < 0 {
		return OutputRef{}, fmt.Errorf("%w: %s", ErrBadOutputName, base)
	}
	stem = stem[:i]
	j := strings.LastIndexByte(stem, '_')
	if j <= 0 || j == len(stem)-1 {
		return OutputRef{}, fmt.Errorf("%w: %s", ErrBadOutputName, base)
	}
	return OutputRef{Instance: stem[:j], Algorithm: stem[j+1:], Seed: seed}, nil
}

// TaskMeta records how a solver process ended. It is written next to the log
// as <log>.json.
type TaskMeta struct {
	Instance  string `json:"instance"`
	Algorithm string `json:"algorithm"`
	Seed      int    `json:"seed"`
	DurationS int    `json:"duration_s"`
	ExitCode  int    `json:"exit_code"`
	TimedOut  bool   `json:"timed_out"`
}

func MetaPath(logPath string) string {
	return logPath + ".json"
}

func WriteTaskMeta(logPath string, meta *TaskMeta) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	return os.WriteFile(MetaPath(logPath), data, 0o644)
}

func ReadTaskMeta(logPath string) (*TaskMeta, error) {
	data, err := os.ReadFile(MetaPath(logPath))
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	var meta TaskMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing meta: %w", err)
	}
	return &meta, nil
}
