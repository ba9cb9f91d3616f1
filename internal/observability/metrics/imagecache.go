// Package metrics provides custom Prometheus metrics for the RetroView
// pipeline components.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ImageCacheMetrics contains all Prometheus metrics related to image
// fetching and the tiered cache.
type ImageCacheMetrics struct {
	MemoryCacheSize  prometheus.Gauge
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	Downloads        prometheus.Counter
	DownloadErrors   prometheus.Counter
	DecodeErrors     prometheus.Counter
	DownloadDuration prometheus.Histogram
	ThumbnailRenders prometheus.Counter
}

// NewImageCacheMetrics creates and registers the image cache metrics.
func NewImageCacheMetrics(registry *prometheus.Registry) (*ImageCacheMetrics, error) {
	m := &ImageCacheMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register image cache metrics: %w", err)
	}
	return m, nil
}

func (m *ImageCacheMetrics) initMetrics() {
	m.MemoryCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "image_cache_memory_size_bytes",
		Help: "Current resident size of the in-memory image cache in bytes.",
	})

	m.CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_cache_hits_total",
		Help: "Total cache hits by tier.",
	}, []string{"tier"})

	m.CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_cache_misses_total",
		Help: "Total cache misses by tier.",
	}, []string{"tier"})

	m.Downloads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "image_cache_downloads_total",
		Help: "Total number of remote image downloads.",
	})

	m.DownloadErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "image_cache_download_errors_total",
		Help: "Total number of failed remote image downloads.",
	})

	m.DecodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "image_cache_decode_errors_total",
		Help: "Total number of image payloads that failed to decode.",
	})

	m.DownloadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "image_cache_download_duration_seconds",
		Help:    "Duration of remote image downloads in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	m.ThumbnailRenders = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "image_cache_thumbnail_renders_total",
		Help: "Total number of locally rendered thumbnails.",
	})
}

// Describe implements the prometheus.Collector interface.
func (m *ImageCacheMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.MemoryCacheSize.Describe(ch)
	m.CacheHits.Describe(ch)
	m.CacheMisses.Describe(ch)
	m.Downloads.Describe(ch)
	m.DownloadErrors.Describe(ch)
	m.DecodeErrors.Describe(ch)
	m.DownloadDuration.Describe(ch)
	m.ThumbnailRenders.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ImageCacheMetrics) Collect(ch chan<- prometheus.Metric) {
	m.MemoryCacheSize.Collect(ch)
	m.CacheHits.Collect(ch)
	m.CacheMisses.Collect(ch)
	m.Downloads.Collect(ch)
	m.DownloadErrors.Collect(ch)
	m.DecodeErrors.Collect(ch)
	m.DownloadDuration.Collect(ch)
	m.ThumbnailRenders.Collect(ch)
}

// RecordCacheHit increments the hit counter for a tier ("memory" or "disk").
func (m *ImageCacheMetrics) RecordCacheHit(tier string) {
	m.CacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss increments the miss counter for a tier.
func (m *ImageCacheMetrics) RecordCacheMiss(tier string) {
	m.CacheMisses.WithLabelValues(tier).Inc()
}

// RecordDownload observes one completed download and its duration.
func (m *ImageCacheMetrics) RecordDownload(seconds float64) {
	m.Downloads.Inc()
	m.DownloadDuration.Observe(seconds)
}
