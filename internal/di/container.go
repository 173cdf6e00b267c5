// Package di provides dependency injection configuration for photorama.
package di

import (
	"github.com/samber/do/v2"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/di/providers"
)

// NewContainer creates the DI container. Services are built lazily on first
// invoke, so commands only open what they use.
func NewContainer(flags config.Flags) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, flags)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideMetricsRegistry)
	do.Provide(injector, providers.ProvideTracing)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideImageCache)

	// Remote listing
	do.Provide(injector, providers.ProvideFlickrClient)
	do.Provide(injector, providers.ProvideListingParser)

	// Business services
	do.Provide(injector, providers.ProvidePhotoStore)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}
