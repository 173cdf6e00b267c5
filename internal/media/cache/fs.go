package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	entryExt = ".img"
	keyExt   = ".key"
)

// FSCache stores one file per entry under a directory. File names are derived
// from a hash of the key, and the key itself is kept in a sidecar file so Walk
// can report it.
type FSCache struct {
	basePath string
	logger   *slog.Logger
	mu       sync.RWMutex // Protects file operations
}

// OpenFS creates dir if needed and returns a cache rooted there.
func OpenFS(dir string, logger *slog.Logger) (*FSCache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FSCache{basePath: dir, logger: logger}, nil
}

// Path returns the file that holds key's bytes.
func (c *FSCache) Path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.basePath, hex.EncodeToString(sum[:])+entryExt)
}

// Get implements Cache.
func (c *FSCache) Get(key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	return data, true
}

// Put implements Cache. Files are written to a temporary name and renamed so
// readers never observe a partial entry.
func (c *FSCache) Put(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.Path(key)
	keyPath := strings.TrimSuffix(path, entryExt) + keyExt

	if err := writeAtomic(keyPath, []byte(key)); err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// Walk implements Cache.
func (c *FSCache) Walk(fn func(key string, size int) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		return fmt.Errorf("read cache directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != entryExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return fmt.Errorf("stat cache entry: %w", err)
		}
		keyPath := filepath.Join(c.basePath, strings.TrimSuffix(e.Name(), entryExt)+keyExt)
		key, err := os.ReadFile(keyPath) //#nosec G304 -- path is built from the cache directory
		if err != nil {
			return fmt.Errorf("read cache key: %w", err)
		}
		if err := fn(string(key), int(info.Size())); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Cache.
func (c *FSCache) Close() error {
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write image file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync image file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close image file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move image file: %w", err)
	}
	return nil
}
