// appearance.go: card appearance derived from imagery
package imagecache

import (
	"fmt"
	"image"
)

// deriveAppearance computes a card's background color and opacity from its
// front image. The color is the mean of the image's border pixels, which is
// where a card's mount color dominates; the opacity is the mean alpha of
// those samples, so fully opaque scans yield 1.0.
func deriveAppearance(img image.Image) (string, float64) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return "#000000", 1.0
	}

	var sumR, sumG, sumB, sumA, samples uint64
	sample := func(x, y int) {
		r, g, b, a := img.At(x, y).RGBA()
		sumR += uint64(r >> 8)
		sumG += uint64(g >> 8)
		sumB += uint64(b >> 8)
		sumA += uint64(a >> 8)
		samples++
	}

	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		sample(x, bounds.Min.Y)
		if h > 1 {
			sample(x, bounds.Max.Y-1)
		}
	}
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		sample(bounds.Min.X, y)
		if w > 1 {
			sample(bounds.Max.X-1, y)
		}
	}

	hex := fmt.Sprintf("#%02x%02x%02x", sumR/samples, sumG/samples, sumB/samples)
	return hex, float64(sumA/samples) / 255.0
}
