// Package providers contains dependency injection providers for photorama.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/logger"
)

// ProvideConfig loads configuration using the command-line flags registered
// in the container.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags := do.MustInvoke[config.Flags](i)
	return config.Load(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"db_path", cfg.Storage.DBPath,
		"cache_backend", cfg.Cache.Backend,
		"cache_path", cfg.Cache.Path,
	)

	return log, nil
}
