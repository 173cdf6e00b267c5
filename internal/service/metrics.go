package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domainerrors "github.com/photoramax/photorama/internal/errors"
)

// Cache outcome labels.
const (
	cacheHit      = "hit"
	cacheMiss     = "miss"
	cacheStale    = "stale"
	cachePutError = "put_error"
)

// Metrics holds the Prometheus collectors of the photo store.
type Metrics struct {
	// Completed operations by name and result ("ok" or an error code).
	Operations *prometheus.CounterVec

	// Operation latency by name.
	OperationLatency *prometheus.HistogramVec

	// Image cache outcomes.
	ImageCache *prometheus.CounterVec

	// Photos delivered by the last successful refresh.
	LastRefreshPhotos prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photorama_operations_total",
				Help: "Photo store operations by result",
			},
			[]string{"operation", "result"},
		),

		OperationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "photorama_operation_duration_seconds",
				Help: "Photo store operation latency in seconds",
				Buckets: []float64{
					0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0,
				},
			},
			[]string{"operation"},
		),

		ImageCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photorama_image_cache_total",
				Help: "Image cache lookups and writes by outcome",
			},
			[]string{"outcome"},
		),

		LastRefreshPhotos: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "photorama_last_refresh_photos",
				Help: "Number of photos delivered by the last successful refresh",
			},
		),
	}
}

// RegisterPending exposes a lane's queue depth as a gauge.
func (m *Metrics) RegisterPending(reg prometheus.Registerer, lane string, pending func() int) {
	promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "photorama_lane_pending",
			Help:        "Tasks queued on a lane and not yet started",
			ConstLabels: prometheus.Labels{"lane": lane},
		},
		func() float64 { return float64(pending()) },
	)
}

// RecordOperation records a completed operation with its latency and result.
func (m *Metrics) RecordOperation(op string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(domainerrors.CodeOf(err))
	}
	m.Operations.WithLabelValues(op, result).Inc()
	m.OperationLatency.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) recordCache(outcome string) {
	if m == nil {
		return
	}
	m.ImageCache.WithLabelValues(outcome).Inc()
}
