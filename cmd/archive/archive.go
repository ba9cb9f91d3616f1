// Package archive provides the archive command for RetroView
package archive

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retroview/retroview-go/internal/archive"
	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/datastore"
)

// Command creates and returns the archive command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive [output file]",
		Short: "Snapshot the raw store files into a portable archive",
		Long: `Archive writes the primary store file and its write-ahead-log sidecars
into a single container file. The store should be closed or idle while the
snapshot is taken.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(settings, args[0])
		},
	}
	return cmd
}

func runCreate(settings *conf.Settings, output string) error {
	source := datastore.New(settings)
	if err := archive.CreateFile(output, source); err != nil {
		return err
	}
	fmt.Printf("Archive written to %s\n", output)
	return nil
}
