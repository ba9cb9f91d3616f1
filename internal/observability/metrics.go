// Package observability collects the Prometheus metric registries for the
// RetroView pipeline.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/retroview/retroview-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	Import     *metrics.ImportMetrics
	ImageCache *metrics.ImageCacheMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors on a fresh registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	importMetrics, err := metrics.NewImportMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create import metrics: %w", err)
	}
	imageCacheMetrics, err := metrics.NewImageCacheMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache metrics: %w", err)
	}

	return &Metrics{
		registry:   registry,
		Import:     importMetrics,
		ImageCache: imageCacheMetrics,
	}, nil
}

// Registry exposes the underlying registry for scraping or test gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
