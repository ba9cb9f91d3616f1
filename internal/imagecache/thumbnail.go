// thumbnail.go: local thumbnail rendering
package imagecache

import (
	"context"
	"image"

	"golang.org/x/image/draw"
)

// Thumbnail returns a small rendition of the image. The remote thumbnail
// tier is preferred; when the service cannot serve it, a local downscale of
// the standard tier is rendered instead. The render is CPU-bound, so it is
// gate-bounded and coalesced: concurrent requests for the same id share one
// render.
func (c *Cache) Thumbnail(ctx context.Context, imageID string) (image.Image, error) {
	key := CacheKey(imageID, QualityThumbnail)
	if img, ok := c.mem.Get(key); ok {
		return img, nil
	}

	result, err := c.thumbs.Perform(ctx, key, func() (any, error) {
		// The work is shared between every coalesced caller, so it must not
		// die with the caller that happened to start it. Cancellation stays
		// per-caller in Perform's select.
		workCtx := context.WithoutCancel(ctx)

		if img, err := c.Get(workCtx, imageID, QualityThumbnail); err == nil {
			return img, nil
		}

		full, err := c.Get(workCtx, imageID, QualityStandard)
		if err != nil {
			return nil, err
		}

		var thumb image.Image
		err = c.thumbGate.Do(workCtx, func() error {
			thumb = scaleToFit(full, c.thumbSize)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if c.metrics != nil {
			c.metrics.ThumbnailRenders.Inc()
		}
		c.mem.Set(key, thumb)
		return thumb, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(image.Image), nil
}

// scaleToFit scales img so its long edge is at most maxEdge, preserving
// aspect ratio. Images already small enough pass through untouched.
func scaleToFit(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	var tw, th int
	if w >= h {
		tw = maxEdge
		th = h * maxEdge / w
	} else {
		th = maxEdge
		tw = w * maxEdge / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
