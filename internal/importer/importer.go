// importer.go: single-file record import against the card store
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retroview/retroview-go/internal/datastore"
	"github.com/retroview/retroview-go/internal/errors"
	"github.com/retroview/retroview-go/internal/logging"
	"github.com/retroview/retroview-go/internal/observability/metrics"
	"github.com/retroview/retroview-go/internal/textnorm"
)

// ImageEnqueuer receives best-effort image population work after a card has
// been inserted. Implementations must never block the importer for long and
// must swallow their own failures.
type ImageEnqueuer interface {
	EnqueueCardImages(cardUUID, frontImageID, backImageID string)
}

// Importer parses metadata documents and inserts card records. A single
// Importer instance is one import session: entity resolution is funneled
// through per-session caches so that two files referencing the same new
// subject concurrently cannot both miss the store lookup and create
// duplicates.
type Importer struct {
	store   datastore.Interface
	images  ImageEnqueuer // optional
	metrics *metrics.ImportMetrics

	mu       sync.Mutex
	titles   map[string]*datastore.Title
	authors  map[string]*datastore.Author
	subjects map[string]*datastore.Subject
	dates    map[string]*datastore.Date
}

// New creates an import session against store. images may be nil, in which
// case no image population is queued.
func New(store datastore.Interface, images ImageEnqueuer) *Importer {
	return &Importer{
		store:    store,
		images:   images,
		titles:   make(map[string]*datastore.Title),
		authors:  make(map[string]*datastore.Author),
		subjects: make(map[string]*datastore.Subject),
		dates:    make(map[string]*datastore.Date),
	}
}

// SetMetrics attaches import metrics. Safe to leave unset; counters are
// simply not recorded then.
func (im *Importer) SetMetrics(m *metrics.ImportMetrics) {
	im.metrics = m
}

// Import reads and imports a single metadata document. It tries the flat
// simplified schema first and falls back to MODS. A card whose uuid already
// exists is skipped without error; that is the dedup contract.
func (im *Importer) Import(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(fmt.Errorf("reading metadata file: %w", err)).
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}

	record, fellBack, err := parseDocument(path, data)
	if err != nil {
		return err
	}
	if fellBack && im.metrics != nil {
		im.metrics.ParseFallbacks.Inc()
	}

	if err := im.importRecord(ctx, path, record); err != nil {
		return err
	}
	if im.metrics != nil {
		im.metrics.ImportDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// Parse parses a metadata document as format A, falling back to MODS. The
// returned error describes both failures when neither format matches.
func Parse(file string, data []byte) (*ParsedCard, error) {
	record, _, err := parseDocument(file, data)
	return record, err
}

// parseDocument reports whether the MODS fallback produced the record.
func parseDocument(file string, data []byte) (*ParsedCard, bool, error) {
	record, errA := parseFormatA(file, data)
	if errA == nil {
		return record, false, nil
	}
	record, errB := parseMODS(file, data)
	if errB == nil {
		return record, true, nil
	}
	return nil, false, errors.New(fmt.Errorf("document matches neither card schema: %w", errors.Join(errA, errB))).
		Category(errors.CategoryFileParsing).
		Context("file", file).
		Build()
}

func (im *Importer) importRecord(ctx context.Context, path string, record *ParsedCard) error {
	if _, err := uuid.Parse(record.UUID); err != nil {
		return missingField(path, "valid uuid")
	}

	exists, err := im.store.CardExists(record.UUID)
	if err != nil {
		return processingError(path, err)
	}
	if exists {
		logger().Debug("Card already imported, skipping", "uuid", record.UUID, "file", path)
		if im.metrics != nil {
			im.metrics.CardsSkipped.Inc()
		}
		return nil
	}

	card := &datastore.Card{
		UUID:         record.UUID,
		FrontImageID: record.FrontImageID,
		BackImageID:  record.BackImageID,
	}

	// Resolve shared metadata entities by exact text match. Subjects pass
	// through the normalizer first so near-duplicates collapse to one
	// entity; the other kinds keep their original text.
	for _, text := range uniqueStrings(record.Titles) {
		title, err := im.resolveTitle(text)
		if err != nil {
			return processingError(path, err)
		}
		card.Titles = append(card.Titles, *title)
	}
	for _, text := range uniqueStrings(record.Authors) {
		author, err := im.resolveAuthor(text)
		if err != nil {
			return processingError(path, err)
		}
		card.Authors = append(card.Authors, *author)
	}
	for _, text := range textnorm.NormalizedUnique(record.Subjects) {
		subject, err := im.resolveSubject(text)
		if err != nil {
			return processingError(path, err)
		}
		card.Subjects = append(card.Subjects, *subject)
	}
	for _, text := range uniqueStrings(record.Dates) {
		date, err := im.resolveDate(text)
		if err != nil {
			return processingError(path, err)
		}
		card.Dates = append(card.Dates, *date)
	}

	// The first resolved title is the picked one.
	if len(card.Titles) > 0 {
		card.PickedTitleID = &card.Titles[0].ID
	}

	for _, box := range []*CropBox{record.LeftCrop, record.RightCrop} {
		if box == nil {
			continue
		}
		card.Crops = append(card.Crops, datastore.Crop{
			Side:  box.Side,
			X0:    box.X0,
			Y0:    box.Y0,
			X1:    box.X1,
			Y1:    box.Y1,
			Score: box.Score,
		})
	}

	if err := im.store.InsertCard(card); err != nil {
		return processingError(path, err)
	}

	// Image population is best-effort and decoupled: a fetch failure later
	// must not fail this import.
	if im.images != nil && (card.FrontImageID != "" || card.BackImageID != "") {
		im.images.EnqueueCardImages(card.UUID, card.FrontImageID, card.BackImageID)
	}

	if im.metrics != nil {
		im.metrics.CardsImported.Inc()
	}
	logger().Debug("Imported card", "uuid", card.UUID, "file", path,
		"titles", len(card.Titles), "subjects", len(card.Subjects))
	return nil
}

// logger resolves the service logger per call so handlers configured after
// package load are picked up.
func logger() *slog.Logger {
	return logging.ForService("importer")
}

// uniqueStrings trims each entry and drops empties and exact duplicates,
// preserving first-occurrence order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (im *Importer) resolveTitle(text string) (*datastore.Title, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if cached, ok := im.titles[text]; ok {
		return cached, nil
	}
	title, err := im.store.GetOrCreateTitle(text)
	if err != nil {
		return nil, err
	}
	im.titles[text] = title
	return title, nil
}

func (im *Importer) resolveAuthor(text string) (*datastore.Author, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if cached, ok := im.authors[text]; ok {
		return cached, nil
	}
	author, err := im.store.GetOrCreateAuthor(text)
	if err != nil {
		return nil, err
	}
	im.authors[text] = author
	return author, nil
}

func (im *Importer) resolveSubject(text string) (*datastore.Subject, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if cached, ok := im.subjects[text]; ok {
		return cached, nil
	}
	subject, err := im.store.GetOrCreateSubject(text)
	if err != nil {
		return nil, err
	}
	im.subjects[text] = subject
	return subject, nil
}

func (im *Importer) resolveDate(text string) (*datastore.Date, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if cached, ok := im.dates[text]; ok {
		return cached, nil
	}
	date, err := im.store.GetOrCreateDate(text)
	if err != nil {
		return nil, err
	}
	im.dates[text] = date
	return date, nil
}
