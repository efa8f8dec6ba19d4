package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tf2obs/tf2obs-go/internal/app"
	"github.com/tf2obs/tf2obs-go/internal/config"
)

// runOptions holds the run flags. Only flags set on the command line
// override the configuration file.
type runOptions struct {
	logFile     string
	player      string
	obsHost     string
	obsPort     int
	obsPassword string
	fromStart   bool
	follow      string
	rules       string
	classMode   string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Follow the console log and drive OBS",
	Long: `Follow the Team Fortress 2 console log and show overlays in OBS.

The log file is found in this order: --log-file, log_file in the config
file, TF2OBS_LOGFILE, then the usual Steam library locations.

Examples:
  # Auto-detect the log, connect to OBS on localhost:4455
  tf2obs run --player Alice

  # Remote OBS with a password
  tf2obs run --player Alice --obs-host 192.168.1.20 --obs-password secret

  # Everything from a config file
  tf2obs run --config tf2obs.yaml`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.logFile, "log-file", "l", "",
		"console.log path or tf directory (auto-detected if not specified)")
	f.StringVarP(&runOpts.player, "player", "p", "",
		"Watched player name")
	f.StringVar(&runOpts.obsHost, "obs-host", "",
		"obs-websocket host")
	f.IntVar(&runOpts.obsPort, "obs-port", 0,
		"obs-websocket port")
	f.StringVar(&runOpts.obsPassword, "obs-password", "",
		"obs-websocket password")
	f.BoolVar(&runOpts.fromStart, "from-start", false,
		"Replay the log from the beginning instead of the end")
	f.StringVar(&runOpts.follow, "follow", "",
		"How to follow the log: poll, notify")
	f.StringVar(&runOpts.rules, "rules", "",
		"Extra rule file (YAML)")
	f.StringVar(&runOpts.classMode, "class-mode", "",
		"Class overlay mode: images, media")
	rootCmd.AddCommand(runCmd)
}

// apply copies the flags for which changed reports true into cfg and
// validates the result.
func (o runOptions) apply(cfg *config.Config, changed func(name string) bool) error {
	if changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if changed("player") {
		cfg.Player = o.player
	}
	if changed("obs-host") {
		cfg.OBS.Host = o.obsHost
	}
	if changed("obs-port") {
		cfg.OBS.Port = o.obsPort
	}
	if changed("obs-password") {
		cfg.OBS.Password = o.obsPassword
	}
	if changed("from-start") {
		cfg.FromStart = o.fromStart
	}
	if changed("follow") {
		cfg.Follow = o.follow
	}
	if changed("rules") {
		cfg.Rules = o.rules
	}
	if changed("class-mode") {
		cfg.Effects.ClassMode = o.classMode
	}
	return cfg.Validate()
}

func runBridge(cmd *cobra.Command, args []string) error {
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

	if cfg.Player == "" {
		logger.Warn("no player name set; only world events will be shown")
	}

	session, err := app.New(cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "log_file", session.LogFile(), "obs", cfg.OBS.Addr())
	if err := session.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
