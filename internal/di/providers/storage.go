package providers

import (
	"github.com/samber/do/v2"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/logger"
	"github.com/photoramax/photorama/internal/media/cache"
	"github.com/photoramax/photorama/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the photo and tag database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := sqlite.Open(cfg.Storage.DBPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Debug("database opened", "path", cfg.Storage.DBPath)
	return &StoreHandle{Store: st}, nil
}

// CacheHandle wraps the image byte cache with shutdown capability.
type CacheHandle struct {
	cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideImageCache opens the configured image cache backend.
func ProvideImageCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	c, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Debug("image cache opened", "backend", cfg.Cache.Backend, "path", cfg.Cache.Path)
	return &CacheHandle{Cache: c}, nil
}
