package cache

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble"
)

const pebblePrefix = "image:"

// PebbleCache stores entries in a pebble key-value directory.
type PebbleCache struct {
	db     *pebble.DB
	logger *slog.Logger
}

// OpenPebble opens or creates the pebble directory at dir.
func OpenPebble(dir string, logger *slog.Logger) (*PebbleCache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}
	return &PebbleCache{db: db, logger: logger}, nil
}

func pebbleKey(key string) []byte {
	return []byte(pebblePrefix + key)
}

// Get implements Cache.
func (c *PebbleCache) Get(key string) ([]byte, bool) {
	value, closer, err := c.db.Get(pebbleKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	defer closer.Close()

	// value is only valid until closer is closed.
	return append([]byte(nil), value...), true
}

// Put implements Cache.
func (c *PebbleCache) Put(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := c.db.Set(pebbleKey(key), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to set image data: %w", err)
	}
	return nil
}

// Walk implements Cache.
func (c *PebbleCache) Walk(fn func(key string, size int) error) error {
	// The upper bound is the prefix with its last byte incremented.
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(pebblePrefix),
		UpperBound: []byte(pebblePrefix[:len(pebblePrefix)-1] + ";"),
	})
	if err != nil {
		return fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key()[len(pebblePrefix):])
		if err := fn(key, len(iter.Value())); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close implements Cache.
func (c *PebbleCache) Close() error {
	return c.db.Close()
}
