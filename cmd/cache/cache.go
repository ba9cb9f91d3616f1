// Package cache provides the cache command for RetroView
package cache

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/imagecache"
)

// Command creates and returns the cache command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the image cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("please specify a subcommand: clear")
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the disk image cache",
		Long: `Clear removes every cached image file from the disk cache directory.
The cache refills lazily as imagery is requested again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(settings)
		},
	}

	cmd.AddCommand(clearCmd)
	return cmd
}

func runClear(settings *conf.Settings) error {
	cache, err := imagecache.New(settings)
	if err != nil {
		return err
	}
	if err := cache.ClearDisk(); err != nil {
		return err
	}
	fmt.Printf("Disk cache cleared: %s\n", settings.Cache.DiskPath)
	return nil
}
