package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"

	"github.com/tf2obs/tf2obs-go/internal/safefile"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe INPUT OUTPUT",
	Short: "Remove duplicate lines from a log file",
	Long: `Copy INPUT to OUTPUT keeping only the first occurrence of every line.

Useful to shrink a console log collected over many sessions before
feeding it to "tf2obs classify" or writing rules against it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _, err := safefile.OpenRegular(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer in.Close()

		out, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}

		stats, err := dedupe(in, out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "kept %d of %d lines (%d duplicates)\n",
			stats.kept, stats.kept+stats.dropped, stats.dropped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}

type dedupeStats struct {
	kept    int
	dropped int
}

// dedupe copies r to w, dropping lines already seen. Lines are compared
// with their line ending, so a final line without a newline is distinct
// from the same text followed by one.
func dedupe(r io.Reader, w io.Writer) (dedupeStats, error) {
	var stats dedupeStats
	seen := make(map[uint64]struct{})
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			h := xxhash.Sum64String(line)
			if _, dup := seen[h]; dup {
				stats.dropped++
			} else {
				seen[h] = struct{}{}
				stats.kept++
				if _, werr := bw.WriteString(line); werr != nil {
					return stats, werr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
	}
	return stats, bw.Flush()
}
