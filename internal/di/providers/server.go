package providers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/photoramax/photorama/internal/api"
	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/logger"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	// BoundAddr is the address actually bound, which differs from the
	// configured one when port 0 is requested.
	BoundAddr string
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer binds the configured address and serves the API in the
// background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	photos := do.MustInvoke[*PhotoStoreHandle](i)
	reg := do.MustInvoke[*prometheus.Registry](i)
	tracingHandle := do.MustInvoke[*TracingHandle](i)

	handler := api.NewServer(photos.PhotoStore, reg, log.Logger)
	handler.MountTracez(tracingHandle.TracezHandler())

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("HTTP server listening", "addr", ln.Addr().String())

	return &HTTPServerHandle{Server: srv, BoundAddr: ln.Addr().String()}, nil
}
