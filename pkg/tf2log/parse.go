package tf2log

import (
	"bufio"
	"context"
	"iter"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tf2obs/tf2obs-go/internal/safefile"
)

// maxScanLine bounds a single line read by ParseFile.
const maxScanLine = 1024 * 1024

// ParseFile classifies every line of path once and yields the events.
//
// Parse errors are yielded with a zero Event and parsing continues unless
// WithParseStopOnError is set. I/O errors always end the sequence.
//
// Example:
//
//	for ev, err := range tf2log.ParseFile(ctx, "console.log", tf2log.WithParsePlayer("Alice")) {
//	    if err != nil {
//	        log.Println(err)
//	        continue
//	    }
//	    fmt.Println(ev.Kind, ev.Subject)
//	}
func ParseFile(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[Event, error] {
	cfg := applyParseOptions(opts)

	return func(yield func(Event, error) bool) {
		f, _, err := safefile.OpenRegular(path)
		if err != nil {
			yield(Event{}, &WatchError{Op: WatchOpParse, Path: path, Err: err})
			return
		}
		defer f.Close()

		p := cfg.parser
		if p == nil {
			p = NewClassifier(cfg.player, cfg.rules...)
		}

		r := transform.NewReader(f, unicode.UTF8.NewDecoder())
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxScanLine)

		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}
			line := sc.Text()

			result, err := p.ParseLine(ctx, line)
			if err != nil {
				if !yield(Event{}, &ParseError{Line: line, Err: err}) || cfg.stopOnError {
					return
				}
				continue
			}

			for _, ev := range result.Events {
				if !cfg.keep(ev) {
					continue
				}
				if cfg.includeRawLine {
					ev.RawLine = line
				} else {
					ev.RawLine = ""
				}
				if !yield(ev, nil) {
					return
				}
			}
		}
		if err := sc.Err(); err != nil {
			yield(Event{}, &WatchError{Op: WatchOpParse, Path: path, Err: err})
		}
	}
}

// ParseFileAll collects every event from ParseFile.
// The first error stops collection and is returned with the events so far.
func ParseFileAll(ctx context.Context, path string, opts ...ParseOption) ([]Event, error) {
	var events []Event
	for ev, err := range ParseFile(ctx, path, opts...) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (c *parseConfig) keep(ev Event) bool {
	if !c.filter.Allows(ev.Kind) {
		return false
	}
	if ev.Timestamp.IsZero() {
		return true
	}
	if !c.since.IsZero() && ev.Timestamp.Before(c.since) {
		return false
	}
	if !c.until.IsZero() && !ev.Timestamp.Before(c.until) {
		return false
	}
	return true
}
