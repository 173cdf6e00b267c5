package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/flickr"
	"github.com/photoramax/photorama/internal/logger"
	"github.com/photoramax/photorama/internal/service"
)

// ProvideMetricsRegistry provides the Prometheus registry shared by the photo
// store and the HTTP server.
func ProvideMetricsRegistry(_ do.Injector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, nil
}

// PhotoStoreHandle wraps the photo store with shutdown capability.
type PhotoStoreHandle struct {
	*service.PhotoStore
}

// Shutdown implements do.Shutdownable. In-flight operations finish and
// deliver before the store and cache below it are closed.
func (h *PhotoStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvidePhotoStore wires the photo store over the repository, cache and
// remote client.
func ProvidePhotoStore(i do.Injector) (*PhotoStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	clientHandle := do.MustInvoke[*FlickrClientHandle](i)
	parser := do.MustInvoke[*flickr.Parser](i)
	reg := do.MustInvoke[*prometheus.Registry](i)
	_ = do.MustInvoke[*TracingHandle](i)

	ps, err := service.NewPhotoStore(service.Deps{
		Fetcher: clientHandle.Client,
		Parser:  parser,
		Photos:  storeHandle.Store,
		Tags:    storeHandle.Store,
		Cache:   cacheHandle.Cache,
	}, service.Options{
		Workers:    cfg.Workers.Count,
		Registerer: reg,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	return &PhotoStoreHandle{PhotoStore: ps}, nil
}
