// Package api exposes the photo store over a local HTTP API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/photoramax/photorama/internal/service"
)

// Server is the HTTP surface over a PhotoStore.
type Server struct {
	photos   *service.PhotoStore
	registry *prometheus.Registry
	router   *chi.Mux
	handler  http.Handler
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a server with all routes configured. Metrics of the HTTP
// layer are added to registry, which is also served on /metrics.
func NewServer(photos *service.PhotoStore, registry *prometheus.Registry, logger *slog.Logger) *Server {
	s := &Server{
		photos:   photos,
		registry: registry,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Photorama API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()
	s.handler = otelhttp.NewHandler(s.router, "photorama-api")
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// MountTracez serves the span inspector at /debug/tracez.
func (s *Server) MountTracez(h http.Handler) {
	s.router.Handle("/debug/tracez", h)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if s.registry != nil {
		factory := promauto.With(s.registry)
		inFlight := factory.NewGauge(prometheus.GaugeOpts{
			Name: "photorama_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		})
		duration := factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photorama_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"code", "method"})

		s.router.Use(func(next http.Handler) http.Handler {
			return promhttp.InstrumentHandlerInFlight(inFlight,
				promhttp.InstrumentHandlerDuration(duration, next))
		})
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerPhotoRoutes()
	s.registerTagRoutes()

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}
