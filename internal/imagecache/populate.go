// populate.go: background image population after card import
package imagecache

import (
	"context"
	"sync"

	"github.com/retroview/retroview-go/internal/datastore"
)

// Store is the subset of the card store the image pipeline writes to and
// scans.
type Store interface {
	SaveCardImage(uuid, side string, data []byte) error
	SetCardAppearance(uuid, backgroundHex string, opacity float64) error
	CardsWithoutImage(side string) ([]datastore.Card, error)
}

type populateJob struct {
	cardUUID string
	imageID  string
	side     string
}

// PopulateQueue attaches remote imagery to freshly imported cards in the
// background. Work items are enqueued after a card insert and drained by a
// fixed worker pool; every failure is logged and dropped, because image
// population is best-effort and must never fail an import.
type PopulateQueue struct {
	store Store
	cache *Cache

	jobs     chan populateJob
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPopulateQueue builds a queue draining into store via cache. workers
// below 1 is treated as 1.
func NewPopulateQueue(store Store, cache *Cache, workers int) *PopulateQueue {
	if workers < 1 {
		workers = 1
	}
	q := &PopulateQueue{
		store: store,
		cache: cache,
		jobs:  make(chan populateJob, 256),
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

// EnqueueCardImages queues fetches for whichever sides of a card have an
// external image id. The call never blocks: when the queue is full the work
// is dropped and a later prefetch pass picks the card up again.
func (q *PopulateQueue) EnqueueCardImages(cardUUID, frontImageID, backImageID string) {
	if frontImageID != "" {
		q.enqueue(populateJob{cardUUID: cardUUID, imageID: frontImageID, side: datastore.SideFront})
	}
	if backImageID != "" {
		q.enqueue(populateJob{cardUUID: cardUUID, imageID: backImageID, side: datastore.SideBack})
	}
}

func (q *PopulateQueue) enqueue(job populateJob) {
	select {
	case q.jobs <- job:
	default:
		logger().Warn("Image populate queue full, dropping work item",
			"uuid", job.cardUUID, "side", job.side)
	}
}

// Stop drains no further work and waits for in-flight jobs to finish.
func (q *PopulateQueue) Stop() {
	q.stopOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *PopulateQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.populate(job)
	}
}

// populate fetches the standard-tier bytes for one side and stores them on
// the card record. Failures are logged, never propagated.
func (q *PopulateQueue) populate(job populateJob) {
	data, err := q.cache.GetBytes(context.Background(), job.imageID, QualityStandard)
	if err != nil {
		logger().Warn("Failed to fetch card image",
			"uuid", job.cardUUID, "side", job.side, "image_id", job.imageID, "error", err)
		return
	}
	if err := q.store.SaveCardImage(job.cardUUID, job.side, data); err != nil {
		logger().Warn("Failed to store card image",
			"uuid", job.cardUUID, "side", job.side, "error", err)
		return
	}

	// The front image also drives the card's display appearance.
	if job.side == datastore.SideFront {
		if img, err := decodeImage(job.imageID, data); err == nil {
			hex, opacity := deriveAppearance(img)
			if err := q.store.SetCardAppearance(job.cardUUID, hex, opacity); err != nil {
				logger().Warn("Failed to store card appearance",
					"uuid", job.cardUUID, "error", err)
			}
		}
	}

	logger().Debug("Populated card image",
		"uuid", job.cardUUID, "side", job.side, "bytes", len(data))
}
