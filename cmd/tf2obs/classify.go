package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/pattern"
)

type classifyOptions struct {
	player  string
	format  string
	kinds   []string
	rules   string
	raw     bool
	strict  bool
	verbose bool
}

var classifyOpts classifyOptions

var classifyCmd = &cobra.Command{
	Use:   "classify FILE",
	Short: "Classify a saved console log",
	Long: `Classify every line of a saved console log once and print the events.

Examples:
  # JSON Lines, one event per line
  tf2obs classify console.log --player Alice

  # Only kills and deaths, human readable
  tf2obs classify console.log --player Alice --kinds kill,death --format pretty

  # Count kills with jq
  tf2obs classify console.log --player Alice | jq -s 'map(select(.kind == "kill")) | length'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		classifyOpts.verbose = verbose
		return classifyFile(ctx, args[0], classifyOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyOpts.player, "player", "p", os.Getenv("TF2OBS_PLAYER"),
		"Watched player name")
	classifyCmd.Flags().StringVarP(&classifyOpts.format, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	classifyCmd.Flags().StringSliceVarP(&classifyOpts.kinds, "kinds", "k", nil,
		"Event kinds to show (comma-separated, see tf2obs kinds)")
	classifyCmd.Flags().StringVar(&classifyOpts.rules, "rules", "",
		"Extra rule file (YAML)")
	classifyCmd.Flags().BoolVar(&classifyOpts.raw, "raw", false,
		"Include raw log lines in output")
	classifyCmd.Flags().BoolVar(&classifyOpts.strict, "strict", false,
		"Stop at the first classification error")
	rootCmd.AddCommand(classifyCmd)
}

func classifyFile(ctx context.Context, path string, o classifyOptions, out, errOut io.Writer) error {
	if !ValidFormats[o.format] {
		return fmt.Errorf("unknown format %q (want jsonl or pretty)", o.format)
	}
	kinds, err := NormalizeKinds(o.kinds)
	if err != nil {
		return err
	}

	opts := []tf2log.ParseOption{
		tf2log.WithParsePlayer(o.player),
		tf2log.WithParseIncludeRawLine(o.raw),
		tf2log.WithParseStopOnError(o.strict),
	}
	if len(kinds) > 0 {
		opts = append(opts, tf2log.WithParseFilter(kinds, nil))
	}
	if o.rules != "" {
		rules, err := pattern.LoadRules(o.rules)
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		opts = append(opts, tf2log.WithParseRules(rules...))
	}

	for ev, err := range tf2log.ParseFile(ctx, path, opts...) {
		if err != nil {
			var parseErr *tf2log.ParseError
			if errors.As(err, &parseErr) && !o.strict {
				if o.verbose {
					fmt.Fprintf(errOut, "warning: %v\n", err)
				}
				continue
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := OutputEvent(o.format, ev, out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	return nil
}
