package cache

import (
	"fmt"
	"log/slog"

	bolt "go.etcd.io/bbolt"
)

var imagesBucket = []byte("images")

// BoltCache keeps every entry in a single bbolt file.
type BoltCache struct {
	db     *bolt.DB
	logger *slog.Logger
}

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string, logger *slog.Logger) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(imagesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltCache{db: db, logger: logger}, nil
}

// Get implements Cache.
func (c *BoltCache) Get(key string) ([]byte, bool) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		// Values are only valid for the life of the transaction.
		if v := tx.Bucket(imagesBucket).Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	return data, data != nil
}

// Put implements Cache.
func (c *BoltCache) Put(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(imagesBucket).Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to update images bucket: %w", err)
		}
		return nil
	})
}

// Walk implements Cache.
func (c *BoltCache) Walk(fn func(key string, size int) error) error {
	return c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(imagesBucket).ForEach(func(k, v []byte) error {
			return fn(string(k), len(v))
		})
	})
}

// Close implements Cache.
func (c *BoltCache) Close() error {
	return c.db.Close()
}
