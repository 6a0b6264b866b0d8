package bestknown

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/signalnine/gapbench/internal/result"
)

const (
	linePrefix = "Instance: "
	lineSep    = ", Best known cost: "
)

// Store maps instance names to best known costs. It is safe for concurrent
// use; Save holds the write lock for the whole write so concurrent writers
// never interleave.
type Store struct {
	path string

	mu    sync.RWMutex
	costs map[string]int64
	dirty bool
}

func NewStore(path string) *Store {
	return &Store{path: path, costs: map[string]int64{}}
}

// LoadStore reads the store at path. A missing file gives an empty store;
// any other failure is returned.
func LoadStore(path string) (*Store, error) {
	s := NewStore(path)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening best-known store: %w", err)
	}
	defer f.Close()
	if err := s.read(f); err != nil {
		return nil, fmt.Errorf("reading best-known store %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) read(r io.Reader) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, cost, err := ParseLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		s.costs[name] = cost
	}
	return sc.Err()
}

// ParseLine parses "Instance: <name>, Best known cost: <n>". The name is
// normalised with result.InstanceName, so files written with the instance's
// source extension are accepted.
func ParseLine(line string) (string, int64, error) {
	rest, ok := strings.CutPrefix(line, linePrefix)
	if !ok {
		return "", 0, fmt.Errorf("missing %q prefix: %q", linePrefix, line)
	}
	i := strings.LastIndex(rest, lineSep)
	if i < 0 {
		return "", 0, fmt.Errorf("missing cost field: %q", line)
	}
	name := result.InstanceName(strings.TrimSpace(rest[:i]))
	if name == "" {
		return "", 0, fmt.Errorf("empty instance name: %q", line)
	}
	cost, err := strconv.ParseInt(strings.TrimSpace(rest[i+len(lineSep):]), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad cost: %q", line)
	}
	return name, cost, nil
}

func FormatLine(name string, cost int64) string {
	return fmt.Sprintf("%s%s%s%d", linePrefix, name, lineSep, cost)
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get(name string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.costs[name]
	return c, ok
}

func (s *Store) Set(name string, cost int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.costs[name]; ok && old == cost {
		return
	}
	s.costs[name] = cost
	s.dirty = true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.costs)
}

// Names returns the stored instance names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.costs))
	for n := range s.costs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Save writes the store to its path via a temporary file and rename.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("best-known store has no path")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".best-known-*")
	if err != nil {
		return fmt.Errorf("creating temp store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp store: %w", err)
	}
	if err := s.write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	s.dirty = false
	return nil
}

func (s *Store) write(w io.Writer) error {
	names := make([]string, 0, len(s.costs))
	for n := range s.costs {
		names = append(names, n)
	}
	sort.Strings(names)
	bw := bufio.NewWriter(w)
	for _, n := range names {
		if _, err := fmt.Fprintln(bw, FormatLine(n, s.costs[n])); err != nil {
			return err
		}
	}
	return bw.Flush()
}
