// Package cache provides the durable image byte cache.
//
// Entries are keyed by photo identifier, overwritten on Put, never evicted and
// survive restarts. All backends are safe for concurrent use.
package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendBolt   = "bolt"
	BackendBadger = "badger"
	BackendPebble = "pebble"
	BackendFS     = "fs"
)

// Cache stores raw image bytes by key.
type Cache interface {
	// Get returns the bytes stored under key. A backend failure is logged and
	// reported as a miss.
	Get(key string) ([]byte, bool)

	// Put stores data under key, replacing any previous entry.
	Put(key string, data []byte) error

	// Walk calls fn for every entry until fn returns an error.
	Walk(fn func(key string, size int) error) error

	Close() error
}

// Open opens the cache backend rooted at path. Bolt uses path as a file; the
// other backends use it as a directory.
func Open(backend, path string, logger *slog.Logger) (Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("cache path cannot be empty")
	}

	logger = logger.With("component", "image_cache", "backend", backend)

	switch backend {
	case BackendBolt, "":
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
		return OpenBolt(path, logger)
	case BackendBadger:
		return OpenBadger(path, logger)
	case BackendPebble:
		return OpenPebble(path, logger)
	case BackendFS:
		return OpenFS(path, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("cache key cannot be empty")
	}
	return nil
}
