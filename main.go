package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/retroview/retroview-go/cmd"
	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init()
	if settings.Debug || settings.Main.Log.Debug {
		logging.SetLevel(logging.LevelTrace)
	}

	if settings.Main.Log.Enabled {
		level := slog.LevelInfo
		if settings.Main.Log.Debug {
			level = slog.LevelDebug
		}
		fileLogger, closeLogger, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer closeLogger()
		slog.SetDefault(fileLogger)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
