package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/tf2obs/tf2obs-go/internal/app"
	"github.com/tf2obs/tf2obs-go/internal/config"
	"github.com/tf2obs/tf2obs-go/internal/effects"
	"github.com/tf2obs/tf2obs-go/pkg/obsws"
)

// sceneLister is the part of *obsws.Client used by the scenes command.
type sceneLister interface {
	Version(ctx context.Context) (obsws.VersionInfo, error)
	CurrentProgramScene(ctx context.Context) (string, error)
	SceneList(ctx context.Context) ([]obsws.Scene, error)
	SceneItemList(ctx context.Context, scene string) ([]obsws.SceneItem, error)
}

var (
	scenesCheck   bool
	scenesTimeout time.Duration
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List OBS scenes and their sources",
	Long: `Connect to obs-websocket and list every scene with its sources.

With --check, also report the overlay sources tf2obs would use that are
missing from the current program scene.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := runOpts.apply(cfg, cmd.Flags().Changed); err != nil {
			return err
		}
		logger, closer, err := newLogger(cmd.ErrOrStderr(), cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		client, err := app.NewClient(cfg.OBS, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), scenesTimeout)
		defer cancel()
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("connect to OBS: %w", err)
		}

		var expected []string
		if scenesCheck {
			expected = expectedSources(cfg)
		}
		return listScenes(ctx, client, cmd.OutOrStdout(), expected)
	},
}

func init() {
	f := scenesCmd.Flags()
	f.BoolVar(&scenesCheck, "check", false,
		"Report overlay sources missing from the current scene")
	f.DurationVar(&scenesTimeout, "timeout", 10*time.Second,
		"Overall timeout")
	f.StringVar(&runOpts.obsHost, "obs-host", "", "obs-websocket host")
	f.IntVar(&runOpts.obsPort, "obs-port", 0, "obs-websocket port")
	f.StringVar(&runOpts.obsPassword, "obs-password", "", "obs-websocket password")
	rootCmd.AddCommand(scenesCmd)
}

// expectedSources returns every source name the dispatcher may touch with
// cfg, sorted and without duplicates.
func expectedSources(cfg *config.Config) []string {
	overlays := effects.DefaultOverlays()
	maps.Copy(overlays, cfg.Effects.Overlays)
	classes := effects.DefaultClassSources()
	maps.Copy(classes, cfg.Effects.Classes)

	set := make(map[string]struct{})
	for _, m := range []map[string]string{overlays, classes} {
		for _, name := range m {
			if name != "" {
				set[name] = struct{}{}
			}
		}
	}
	set[cfg.Effects.NotificationOverlay] = struct{}{}
	set[cfg.Effects.NotificationText] = struct{}{}
	set[cfg.Effects.KillstreakText] = struct{}{}
	delete(set, "")
	return slices.Sorted(maps.Keys(set))
}

func listScenes(ctx context.Context, c sceneLister, out io.Writer, expected []string) error {
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "OBS %s, obs-websocket %s\n", v.OBSVersion, v.OBSWebSocketVersion)

	current, err := c.CurrentProgramScene(ctx)
	if err != nil {
		return err
	}
	scenes, err := c.SceneList(ctx)
	if err != nil {
		return err
	}

	var currentItems []obsws.SceneItem
	for _, s := range scenes {
		marker := " "
		if s.Name == current {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, s.Name)

		items, err := c.SceneItemList(ctx, s.Name)
		if err != nil {
			return err
		}
		if s.Name == current {
			currentItems = items
		}
		for _, it := range items {
			state := "hidden"
			if it.Enabled {
				state = "visible"
			}
			fmt.Fprintf(out, "    [%d] %s (%s, %s)\n", it.ID, it.SourceName, it.InputKind, state)
		}
	}

	if len(expected) == 0 {
		return nil
	}
	present := make(map[string]bool, len(currentItems))
	for _, it := range currentItems {
		present[it.SourceName] = true
	}
	var missing []string
	for _, name := range expected {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		fmt.Fprintf(out, "all %d overlay sources present in %s\n", len(expected), current)
		return nil
	}
	fmt.Fprintf(out, "missing from %s (%d):\n", current, len(missing))
	for _, name := range missing {
		fmt.Fprintf(out, "    %s\n", name)
	}
	return nil
}
