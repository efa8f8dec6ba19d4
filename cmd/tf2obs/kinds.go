package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List event kind names",
	Long: `List the event kinds the classifier can produce.

The names are accepted by --kinds and by the "kind" field of rule files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range KindNames() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

// KindNames returns every kind name, sorted.
func KindNames() []string {
	kinds := event.Kinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	slices.Sort(names)
	return names
}

// NormalizeKinds parses kind names from a flag value. Names are trimmed and
// case-insensitive; duplicates are dropped keeping the first occurrence.
func NormalizeKinds(names []string) ([]tf2log.Kind, error) {
	if len(names) == 0 {
		return nil, nil
	}
	seen := make(map[tf2log.Kind]bool, len(names))
	out := make([]tf2log.Kind, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			return nil, fmt.Errorf("empty event kind")
		}
		k, ok := event.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown event kind %q (see tf2obs kinds)", raw)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}
