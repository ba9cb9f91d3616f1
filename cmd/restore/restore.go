// Package restore provides the restore command for RetroView
package restore

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retroview/retroview-go/internal/archive"
	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/datastore"
)

// Command creates and returns the restore command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [archive file]",
		Short: "Stage a store archive for import",
		Long: `Restore validates an archive file and stages its contents next to the
live store. The staged files replace the live store when 'restore apply'
runs, so a bad archive can be inspected or discarded before anything is
touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(settings, args[0])
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Replace the live store with the staged archive contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(settings)
		},
	}

	discardCmd := &cobra.Command{
		Use:   "discard",
		Short: "Discard a staged archive import without applying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return archive.DiscardPendingImport(settings.Archive.StagingPath)
		},
	}

	cmd.AddCommand(applyCmd, discardCmd)
	return cmd
}

func runStage(settings *conf.Settings, archivePath string) error {
	if _, err := os.Stat(archivePath); os.IsNotExist(err) {
		return fmt.Errorf("archive file does not exist: %s", archivePath)
	}
	if err := archive.ImportArchive(archivePath, settings.Archive.StagingPath); err != nil {
		return err
	}
	fmt.Printf("Archive staged in %s; run 'retroview restore apply' to activate it\n",
		settings.Archive.StagingPath)
	return nil
}

func runApply(settings *conf.Settings) error {
	target := datastore.New(settings)
	if err := archive.ApplyPendingImport(settings.Archive.StagingPath, target); err != nil {
		return err
	}
	fmt.Println("Store restored from staged archive")
	return nil
}
