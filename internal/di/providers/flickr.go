package providers

import (
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/flickr"
	"github.com/photoramax/photorama/internal/logger"
	"github.com/photoramax/photorama/internal/validation"
)

// FlickrClientHandle wraps the listing client with shutdown capability.
type FlickrClientHandle struct {
	*flickr.Client
}

// Shutdown implements do.Shutdownable.
func (h *FlickrClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideFlickrClient provides the remote listing client.
func ProvideFlickrClient(i do.Injector) (*FlickrClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client, err := flickr.NewClient(flickr.ClientConfig{
		BaseURL:           cfg.Flickr.BaseURL,
		APIKey:            cfg.Flickr.APIKey,
		Method:            cfg.Flickr.Method,
		Extras:            cfg.Flickr.Extras,
		Timeout:           cfg.Flickr.Timeout,
		RequestsPerSecond: cfg.Flickr.RequestsPerSecond,
		Burst:             cfg.Flickr.Burst,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	return &FlickrClientHandle{Client: client}, nil
}

// ProvideValidator provides the shared struct validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideListingParser provides the listing parser.
func ProvideListingParser(i do.Injector) (*flickr.Parser, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	v := do.MustInvoke[*validation.Validator](i)

	loc, err := time.LoadLocation(cfg.Flickr.Location)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", cfg.Flickr.Location, err)
	}

	return flickr.NewParser(loc, v, log.Logger), nil
}
