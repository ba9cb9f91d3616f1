package cmd

import (
	"github.com/spf13/cobra"

	"github.com/retroview/retroview-go/cmd/archive"
	"github.com/retroview/retroview-go/cmd/cache"
	"github.com/retroview/retroview-go/cmd/export"
	"github.com/retroview/retroview-go/cmd/imports"
	"github.com/retroview/retroview-go/cmd/restore"
	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "retroview",
		Short: "RetroView stereo card library CLI",
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			logging.SetLevel(logging.LevelTrace)
		}
		return nil
	}

	rootCmd.AddCommand(
		imports.Command(settings),
		archive.Command(settings),
		restore.Command(settings),
		export.Command(settings),
		cache.Command(settings),
	)
	return rootCmd
}
