// prefetch.go: post-import thumbnail warming
package imagecache

import (
	"context"
	"time"

	"github.com/retroview/retroview-go/internal/datastore"
)

// Prefetcher warms the thumbnail tier for cards whose imagery has not been
// cached yet. It runs after a batch import finishes, in small chunks with a
// pause between them so it never saturates the image service.
type Prefetcher struct {
	store Store
	cache *Cache

	chunkSize  int
	chunkDelay time.Duration
}

// NewPrefetcher builds a prefetcher over store and cache.
func NewPrefetcher(store Store, cache *Cache) *Prefetcher {
	return &Prefetcher{
		store:      store,
		cache:      cache,
		chunkSize:  20,
		chunkDelay: 500 * time.Millisecond,
	}
}

// PrefetchMissingThumbnails fetches thumbnails for every card that has a
// front image id but no stored front image. Individual failures are logged
// and skipped; only cancellation stops the pass early.
func (p *Prefetcher) PrefetchMissingThumbnails(ctx context.Context) error {
	cards, err := p.store.CardsWithoutImage(datastore.SideFront)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}
	logger().Info("Prefetching thumbnails", "cards", len(cards))

	for start := 0; start < len(cards); start += p.chunkSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.chunkDelay):
			}
		}

		end := min(start+p.chunkSize, len(cards))
		for _, card := range cards[start:end] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if card.FrontImageID == "" {
				continue
			}
			if _, err := p.cache.Thumbnail(ctx, card.FrontImageID); err != nil {
				logger().Warn("Thumbnail prefetch failed",
					"uuid", card.UUID, "image_id", card.FrontImageID, "error", err)
			}
		}
	}
	return nil
}
