package cache

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

var badgerPrefix = []byte("image:")

// BadgerCache stores entries in a badger key-value directory.
type BadgerCache struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens or creates the badger directory at dir.
func OpenBadger(dir string, logger *slog.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithSyncWrites(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerCache{db: db, logger: logger}, nil
}

func badgerKey(key string) []byte {
	return append(append([]byte(nil), badgerPrefix...), key...)
}

// Get implements Cache.
func (c *BadgerCache) Get(key string) ([]byte, bool) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	return data, true
}

// Put implements Cache.
func (c *BadgerCache) Put(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(key), data)
	})
}

// Walk implements Cache.
func (c *BadgerCache) Walk(fn func(key string, size int) error) error {
	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = badgerPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(badgerPrefix); it.ValidForPrefix(badgerPrefix); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(badgerPrefix):])
			if err := fn(key, int(item.ValueSize())); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close implements Cache.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
