// batch.go: directory-scale import orchestration
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/errors"
	"github.com/retroview/retroview-go/internal/observability/metrics"
	"github.com/retroview/retroview-go/internal/syncutil"
)

// BatchState is the lifecycle phase of a batch run.
type BatchState int32

const (
	BatchIdle BatchState = iota
	BatchCounting
	BatchImporting
	BatchCompleted
	BatchFailed
	BatchCancelled
)

func (s BatchState) String() string {
	switch s {
	case BatchIdle:
		return "idle"
	case BatchCounting:
		return "counting"
	case BatchImporting:
		return "importing"
	case BatchCompleted:
		return "completed"
	case BatchFailed:
		return "failed"
	case BatchCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FileError records one file that failed to import.
type FileError struct {
	File    string
	Message string
}

// Report summarizes a finished batch run. A cancelled run reports only the
// files whose import actually started.
type Report struct {
	Attempted int
	Succeeded int
	Failures  []FileError
}

// ThumbnailPrefetcher warms the thumbnail cache after a batch finishes.
// Prefetching is best-effort and its errors do not affect the run outcome.
type ThumbnailPrefetcher interface {
	PrefetchMissingThumbnails(ctx context.Context) error
}

// BatchImporter walks a directory of metadata documents and imports them in
// fixed-size chunks with bounded concurrency. At most one run is active per
// BatchImporter; a second Run while one is in flight is a no-op.
type BatchImporter struct {
	importer *Importer
	prefetch ThumbnailPrefetcher // optional
	metrics  *metrics.ImportMetrics

	chunkSize   int
	concurrency int
	extensions  map[string]bool

	state     atomic.Int32
	total     atomic.Int64
	processed atomic.Int64

	cancelMu  sync.Mutex
	cancelRun context.CancelFunc
}

// NewBatchImporter wires a batch orchestrator over an import session.
// prefetch may be nil to skip cache warming.
func NewBatchImporter(importer *Importer, prefetch ThumbnailPrefetcher, settings *conf.ImportSettings) *BatchImporter {
	exts := make(map[string]bool, len(settings.Extensions))
	for _, ext := range settings.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	chunkSize := settings.ChunkSize
	if chunkSize < 1 {
		chunkSize = 50
	}
	concurrency := settings.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchImporter{
		importer:    importer,
		prefetch:    prefetch,
		chunkSize:   chunkSize,
		concurrency: concurrency,
		extensions:  exts,
	}
}

// SetMetrics attaches import metrics to the orchestrator and its importer.
func (b *BatchImporter) SetMetrics(m *metrics.ImportMetrics) {
	b.metrics = m
	b.importer.SetMetrics(m)
}

// State returns the current lifecycle phase.
func (b *BatchImporter) State() BatchState {
	return BatchState(b.state.Load())
}

// Progress returns how many files have been attempted so far and the total
// discovered for the active run. The processed count only ever grows during
// a run, failures included, so progress bars cannot move backwards.
func (b *BatchImporter) Progress() (processed, total int64) {
	return b.processed.Load(), b.total.Load()
}

// Cancel stops the active run, if any. The run winds down cooperatively:
// in-flight files finish, queued ones are abandoned.
func (b *BatchImporter) Cancel() {
	b.cancelMu.Lock()
	defer b.cancelMu.Unlock()
	if b.cancelRun != nil {
		b.cancelRun()
	}
}

// Run imports every recognized metadata file under the given directories. It
// returns the run report, or (nil, nil) when another run is already active.
// The state machine passes through counting and importing before settling
// back to idle, so observers can distinguish the enumeration phase from the
// import phase.
func (b *BatchImporter) Run(ctx context.Context, dirs ...string) (*Report, error) {
	if !b.state.CompareAndSwap(int32(BatchIdle), int32(BatchCounting)) {
		logger().Warn("Batch import already running, ignoring start request", "dirs", dirs)
		return nil, nil
	}
	defer b.state.Store(int32(BatchIdle))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.cancelMu.Lock()
	b.cancelRun = cancel
	b.cancelMu.Unlock()
	defer func() {
		b.cancelMu.Lock()
		b.cancelRun = nil
		b.cancelMu.Unlock()
	}()

	files, err := b.enumerate(dirs)
	if err != nil {
		b.state.Store(int32(BatchFailed))
		return nil, err
	}
	b.total.Store(int64(len(files)))
	b.processed.Store(0)
	if b.metrics != nil {
		b.metrics.BatchesRun.Inc()
	}
	logger().Info("Starting batch import", "dirs", dirs, "files", len(files))

	b.state.Store(int32(BatchImporting))
	report := &Report{}
	var reportMu sync.Mutex

	for start := 0; start < len(files); start += b.chunkSize {
		if runCtx.Err() != nil {
			break
		}
		end := min(start+b.chunkSize, len(files))
		b.importChunk(runCtx, files[start:end], report, &reportMu)
	}

	// Attempted reflects files whose import actually ran, which on the
	// cancellation path is fewer than were enumerated.
	report.Attempted = int(b.processed.Load())

	if runCtx.Err() != nil {
		b.state.Store(int32(BatchCancelled))
		logger().Info("Batch import cancelled",
			"attempted", report.Attempted, "total", len(files))
		return report, runCtx.Err()
	}

	if b.prefetch != nil {
		if err := b.prefetch.PrefetchMissingThumbnails(ctx); err != nil {
			logger().Warn("Thumbnail prefetch after import failed", "error", err)
		}
	}

	b.state.Store(int32(BatchCompleted))
	logger().Info("Batch import finished",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", len(report.Failures))
	return report, nil
}

// importChunk imports one slice of files with bounded concurrency. A file
// failure is recorded in the report and never aborts the chunk; only run
// cancellation stops it early.
func (b *BatchImporter) importChunk(ctx context.Context, files []string, report *Report, reportMu *sync.Mutex) {
	gate := syncutil.NewGate(b.concurrency)
	group, groupCtx := errgroup.WithContext(ctx)

	for _, file := range files {
		file := file
		group.Go(func() error {
			started := false
			err := gate.Do(groupCtx, func() error {
				started = true
				return b.importer.Import(groupCtx, file)
			})
			if !started {
				// Cancelled while waiting for a permit; the file was never
				// attempted and must not advance the progress counter.
				return nil
			}
			b.processed.Add(1)
			if b.metrics != nil {
				b.metrics.FilesProcessed.Inc()
			}
			switch {
			case err == nil:
				reportMu.Lock()
				report.Succeeded++
				reportMu.Unlock()
			case !errors.Is(err, context.Canceled):
				if b.metrics != nil {
					b.metrics.FilesFailed.Inc()
				}
				logger().Error("Failed to import file", "file", file, "error", err)
				reportMu.Lock()
				report.Failures = append(report.Failures, FileError{
					File:    file,
					Message: err.Error(),
				})
				reportMu.Unlock()
			}
			// Per-file errors are already recorded; returning nil keeps the
			// rest of the chunk running.
			return nil
		})
	}
	_ = group.Wait()
}

// enumerate collects the recognized metadata files directly under each source
// directory in a deterministic order.
func (b *BatchImporter) enumerate(dirs []string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.New(fmt.Errorf("reading import directory: %w", err)).
				Category(errors.CategoryFileIO).
				Context("dir", dir).
				Build()
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if b.extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				files = append(files, filepath.Join(dir, entry.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
