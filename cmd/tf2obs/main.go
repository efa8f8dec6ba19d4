// Command tf2obs drives OBS Studio from Team Fortress 2 console log events.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tf2obs/tf2obs-go/internal/config"
	"github.com/tf2obs/tf2obs-go/internal/logging"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "tf2obs",
	Short: "Drive OBS overlays from Team Fortress 2 console log events",
	Long: `tf2obs follows the Team Fortress 2 console.log, classifies each line into
game events (kills, deaths, spawns, captures, ...) and shows matching
overlays in OBS Studio through obs-websocket v5.

The game must write its console to a file: add -condebug to the launch
options. obs-websocket is built into OBS 28 and later.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Configuration file (YAML)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config and applies --verbose.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(stderr io.Writer, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	return logging.New(stderr, logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}
