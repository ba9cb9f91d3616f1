// Package imagecache fetches card imagery from the remote image service and
// serves it through a tiered cache: decoded images in memory with an LRU
// byte budget, encoded bytes on disk with no automatic eviction, and the
// network as the tier of last resort.
package imagecache

import "fmt"

// Quality is an image resolution tier. Tiers are ordered, so a caller can
// show a lower tier it already has while a higher one loads.
type Quality int

const (
	QualityThumbnail Quality = iota
	QualityStandard
	QualityHigh
)

// Token returns the tier token the remote image service expects in its
// "t" query parameter.
func (q Quality) Token() string {
	switch q {
	case QualityThumbnail:
		return "t"
	case QualityStandard:
		return "w"
	case QualityHigh:
		return "q"
	default:
		return "w"
	}
}

func (q Quality) String() string {
	switch q {
	case QualityThumbnail:
		return "thumbnail"
	case QualityStandard:
		return "standard"
	case QualityHigh:
		return "high"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// CacheKey builds the composite key an image is cached under across the
// memory and disk tiers.
func CacheKey(imageID string, quality Quality) string {
	return imageID + "-" + quality.Token()
}
