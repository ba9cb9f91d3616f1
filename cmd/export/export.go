// Package export provides the export command for RetroView
package export

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retroview/retroview-go/internal/archive"
	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/datastore"
)

// Command creates and returns the export command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [output file]",
		Short: "Export the whole library as compressed JSON",
		Long: `Export writes every card and collection to a compressed JSON document.
Unlike the raw-file archive, this export survives schema changes and can be
merged into an existing library with 'export load'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(settings, args[0])
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load [export file]",
		Short: "Load a library export, skipping cards that already exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(settings, args[0])
		},
	}

	cmd.AddCommand(loadCmd)
	return cmd
}

func runExport(settings *conf.Settings, output string) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	payload, err := archive.Export(store)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, payload, 0o644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	fmt.Printf("Library exported to %s (%d bytes)\n", output, len(payload))
	return nil
}

func runLoad(settings *conf.Settings, input string) error {
	payload, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading export file: %w", err)
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	report, err := archive.Load(store, payload)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d cards (%d already present), %d collections\n",
		report.CardsImported, report.CardsSkipped, report.CollectionsImported)
	return nil
}
