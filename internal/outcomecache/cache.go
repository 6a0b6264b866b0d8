// Package outcomecache persists parsed run outcomes in BadgerDB so repeated
// analysis passes skip logs that have not changed since they were parsed.
//
// Entries are keyed by absolute log path and validated against the file's
// size and modification time; a mismatch is treated as a miss.
package outcomecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"github.com/signalnine/gapbench/internal/result"
)

type Config struct {
	// Dir holds the database files. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	Logger   *slog.Logger
}

type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

type entry struct {
	Size    int64             `json:"size"`
	ModTime int64             `json:"mod_time"`
	Outcome result.RunOutcome `json:"outcome"`
}

func Open(cfg Config) (*Cache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("cache dir is required")
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating cache dir %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithNumVersionsToKeep(1)
	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
		logger = slog.Default()
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening outcome cache: %w", err)
	}
	return &Cache{db: db, logger: logger}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func key(path string) []byte {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return []byte("outcome/" + path)
}

// Get returns the cached outcome for path if the cached entry still matches
// info.
func (c *Cache) Get(path string, info os.FileInfo) (result.RunOutcome, bool) {
	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return result.RunOutcome{}, false
	}
	if e.Size != info.Size() || e.ModTime != info.ModTime().UnixNano() {
		return result.RunOutcome{}, false
	}
	return e.Outcome, true
}

func (c *Cache) Put(path string, info os.FileInfo, o result.RunOutcome) error {
	data, err := json.Marshal(entry{Size: info.Size(), ModTime: info.ModTime().UnixNano(), Outcome: o})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(path), data)
	})
}

// Read parses the log at path, consulting the cache first. Logs that fail to
// parse are never cached, so their diagnostics repeat on every pass. A failed
// cache write is logged and does not affect the returned outcome.
func (c *Cache) Read(path string) (o result.RunOutcome, hit bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return result.UnsolvedOutcome(), false, fmt.Errorf("stat log: %w", err)
	}
	if o, ok := c.Get(path, info); ok {
		return o, true, nil
	}
	o, err = result.ReadOutcome(path)
	if err != nil {
		return o, false, err
	}
	if perr := c.Put(path, info, o); perr != nil {
		c.logger.Warn("caching outcome", "path", path, "err", perr)
	}
	return o, false, nil
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
