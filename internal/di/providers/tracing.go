package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/photoramax/photorama/internal/tracing"
)

// TracingHandle wraps the tracer provider with shutdown capability.
type TracingHandle struct {
	*tracing.Provider
}

// Shutdown implements do.Shutdownable.
func (h *TracingHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Provider.Shutdown(ctx)
}

// ProvideTracing installs the global tracer provider.
func ProvideTracing(_ do.Injector) (*TracingHandle, error) {
	p, err := tracing.Setup("photorama", "1.0.0")
	if err != nil {
		return nil, err
	}
	return &TracingHandle{Provider: p}, nil
}
