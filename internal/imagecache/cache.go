// cache.go: the tiered image cache front door
package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/errors"
	"github.com/retroview/retroview-go/internal/logging"
	"github.com/retroview/retroview-go/internal/observability/metrics"
	"github.com/retroview/retroview-go/internal/syncutil"
)

// logger resolves the service logger per call so handlers configured after
// package load are picked up.
func logger() *slog.Logger {
	return logging.ForService("imagecache")
}

// Cache is the tiered image cache. Get resolves an image id and quality tier
// through memory, then disk, then the remote service, back-filling the
// faster tiers on the way out.
type Cache struct {
	mem     *MemoryCache
	disk    *DiskCache
	fetcher *Fetcher

	thumbs    *syncutil.Coalescer
	thumbGate *syncutil.Gate
	thumbSize int

	metrics *metrics.ImageCacheMetrics
}

// SetMetrics attaches cache metrics. Safe to leave unset.
func (c *Cache) SetMetrics(m *metrics.ImageCacheMetrics) {
	c.metrics = m
}

// New assembles the cache from configuration.
func New(settings *conf.Settings) (*Cache, error) {
	disk, err := NewDiskCache(settings.Cache.DiskPath)
	if err != nil {
		return nil, err
	}
	thumbSize := settings.Cache.ThumbnailSize
	if thumbSize < 1 {
		thumbSize = 256
	}
	return &Cache{
		mem:       NewMemoryCache(settings.Cache.MemoryLimitBytes),
		disk:      disk,
		fetcher:   NewFetcher(&settings.ImageService),
		thumbs:    syncutil.NewCoalescer(),
		thumbGate: syncutil.NewGate(settings.Cache.Concurrency),
		thumbSize: thumbSize,
	}, nil
}

// Get returns the decoded image for an id at a quality tier. Misses walk
// down the tiers; a remote fetch stores the encoded bytes on disk and the
// decoded image in memory before returning.
func (c *Cache) Get(ctx context.Context, imageID string, quality Quality) (image.Image, error) {
	key := CacheKey(imageID, quality)

	if img, ok := c.mem.Get(key); ok {
		if c.metrics != nil {
			c.metrics.RecordCacheHit("memory")
		}
		return img, nil
	}
	if c.metrics != nil {
		c.metrics.RecordCacheMiss("memory")
	}

	if data, ok := c.disk.Get(key); ok {
		img, err := decodeImage(imageID, data)
		if err == nil {
			if c.metrics != nil {
				c.metrics.RecordCacheHit("disk")
			}
			c.mem.Set(key, img)
			c.reportMemorySize()
			return img, nil
		}
		// A corrupt disk entry is dropped and the fetch falls through to
		// the network.
		logger().Warn("Corrupt disk cache entry, refetching", "key", key, "error", err)
	}

	if c.metrics != nil {
		c.metrics.RecordCacheMiss("disk")
	}
	start := time.Now()
	data, err := c.fetcher.Fetch(ctx, imageID, quality)
	if err != nil {
		if c.metrics != nil {
			c.metrics.DownloadErrors.Inc()
		}
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordDownload(time.Since(start).Seconds())
	}
	img, err := decodeImage(imageID, data)
	if err != nil {
		if c.metrics != nil {
			c.metrics.DecodeErrors.Inc()
		}
		return nil, err
	}

	if err := c.disk.Put(key, data); err != nil {
		logger().Warn("Failed to persist image to disk cache", "key", key, "error", err)
	}
	c.mem.Set(key, img)
	c.reportMemorySize()
	return img, nil
}

func (c *Cache) reportMemorySize() {
	if c.metrics != nil {
		c.metrics.MemoryCacheSize.Set(float64(c.mem.Size()))
	}
}

// GetBytes returns the encoded bytes for an id at a quality tier, fetching
// and disk-caching on a miss. It is the byte-level sibling of Get for
// callers that store payloads rather than display them.
func (c *Cache) GetBytes(ctx context.Context, imageID string, quality Quality) ([]byte, error) {
	key := CacheKey(imageID, quality)
	if data, ok := c.disk.Get(key); ok {
		return data, nil
	}

	data, err := c.fetcher.Fetch(ctx, imageID, quality)
	if err != nil {
		return nil, err
	}
	if _, err := decodeImage(imageID, data); err != nil {
		return nil, err
	}
	if err := c.disk.Put(key, data); err != nil {
		logger().Warn("Failed to persist image to disk cache", "key", key, "error", err)
	}
	return data, nil
}

// ClearMemory drops the in-memory tier, keeping disk entries.
func (c *Cache) ClearMemory() {
	c.mem.Clear()
}

// ClearDisk drops the persistent tier.
func (c *Cache) ClearDisk() error {
	return c.disk.Clear()
}

// MemorySize returns the resident byte cost of the in-memory tier.
func (c *Cache) MemorySize() int64 {
	return c.mem.Size()
}

func decodeImage(imageID string, data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(fmt.Errorf("%w: %v", ErrDecodeFailed, err)).
			Category(errors.CategoryImageDecode).
			Context("image_id", imageID).
			Build()
	}
	return img, nil
}
