// Package imports provides the import command for RetroView
package imports

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/retroview/retroview-go/internal/archive"
	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/datastore"
	"github.com/retroview/retroview-go/internal/imagecache"
	"github.com/retroview/retroview-go/internal/importer"
	"github.com/retroview/retroview-go/internal/observability"
)

// Command creates and returns the import command
func Command(settings *conf.Settings) *cobra.Command {
	var skipImages bool
	var skipPrefetch bool

	cmd := &cobra.Command{
		Use:   "import [directory...]",
		Short: "Import card metadata documents from one or more directories",
		Long: `Import walks directories of per-card metadata documents, parses each one
(simplified schema first, MODS fallback), and inserts new cards into the
library. Cards whose uuid already exists are skipped. Imagery is fetched in
the background after each insert.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), settings, args, skipImages, skipPrefetch)
		},
	}

	cmd.Flags().BoolVar(&skipImages, "no-images", false, "Skip background image population")
	cmd.Flags().BoolVar(&skipPrefetch, "no-prefetch", false, "Skip thumbnail prefetch after import")
	cmd.Flags().IntVar(&settings.Import.Concurrency, "concurrency", settings.Import.Concurrency, "Concurrent file imports per chunk")
	return cmd
}

func runImport(ctx context.Context, settings *conf.Settings, dirs []string, skipImages, skipPrefetch bool) error {
	// A staged archive import takes precedence over the live store files.
	if archive.HasPendingImport(settings.Archive.StagingPath) {
		return fmt.Errorf("a staged archive import is pending in %s; run 'retroview restore apply' first",
			settings.Archive.StagingPath)
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	imageCache, err := imagecache.New(settings)
	if err != nil {
		return err
	}
	imageCache.SetMetrics(metrics.ImageCache)

	var enqueuer importer.ImageEnqueuer
	var queue *imagecache.PopulateQueue
	if !skipImages {
		queue = imagecache.NewPopulateQueue(store, imageCache, settings.ImageService.Concurrency)
		defer queue.Stop()
		enqueuer = queue
	}

	var prefetch importer.ThumbnailPrefetcher
	if !skipPrefetch {
		prefetch = imagecache.NewPrefetcher(store, imageCache)
	}

	batch := importer.NewBatchImporter(importer.New(store, enqueuer), prefetch, &settings.Import)
	batch.SetMetrics(metrics.Import)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := batch.Run(runCtx, dirs...)
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("an import is already running")
	}

	fmt.Printf("Imported %d of %d files\n", report.Succeeded, report.Attempted)
	for _, failure := range report.Failures {
		fmt.Printf("  failed: %s: %s\n", failure.File, failure.Message)
	}
	return nil
}
