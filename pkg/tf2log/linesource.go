package tf2log

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/tf2obs/tf2obs-go/internal/safefile"
)

// DefaultMaxReadBytes caps how much a single Poll reads. Anything beyond it
// is picked up by the next Poll.
const DefaultMaxReadBytes = 8 * 1024 * 1024

// LineSource returns complete lines appended to a file since the previous
// call. It is a byte-offset cursor: the offset only ever advances past
// complete lines, so a line still being written is re-read until its
// terminator arrives.
//
// A LineSource is not safe for concurrent use.
type LineSource struct {
	path    string
	log     *slog.Logger
	maxRead int64

	offset     int64
	hadContent bool
	idle       bool
}

// LineSourceOption configures a LineSource.
type LineSourceOption func(*LineSource)

// WithLineSourceLogger sets the diagnostics logger. nil disables logging.
func WithLineSourceLogger(logger *slog.Logger) LineSourceOption {
	return func(s *LineSource) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithStartAtBeginning makes the first Poll return the whole file instead of
// only what is appended afterwards.
func WithStartAtBeginning() LineSourceOption {
	return func(s *LineSource) {
		s.offset = 0
	}
}

// WithMaxReadBytes overrides DefaultMaxReadBytes.
func WithMaxReadBytes(n int64) LineSourceOption {
	return func(s *LineSource) {
		if n > 0 {
			s.maxRead = n
		}
	}
}

// NewLineSource creates a cursor over path positioned at its current end.
// A missing file starts at offset 0 so its first content is not skipped.
func NewLineSource(path string, opts ...LineSourceOption) *LineSource {
	s := &LineSource{
		path:    path,
		log:     discardLogger,
		maxRead: DefaultMaxReadBytes,
	}
	if info, err := os.Stat(path); err == nil {
		s.offset = info.Size()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Path returns the file being read.
func (s *LineSource) Path() string { return s.path }

// Offset returns the byte offset just past the last complete line returned.
func (s *LineSource) Offset() int64 { return s.offset }

// Idle reports whether the most recent Poll was the first empty one after a
// Poll that returned lines. It is true exactly once per content-to-idle
// transition.
func (s *LineSource) Idle() bool { return s.idle }

// Poll returns the complete lines appended since the previous call, with
// line terminators stripped and invalid UTF-8 replaced by U+FFFD.
//
// If the file shrank below the stored offset it is treated as truncated and
// read again from the start. Failures to open or read are returned as a
// *WatchError with no lines; the cursor is left unchanged so the next Poll
// retries.
func (s *LineSource) Poll() ([]string, error) {
	s.idle = false

	f, info, err := safefile.OpenRegular(s.path)
	if err != nil {
		return nil, &WatchError{Op: WatchOpPoll, Path: s.path, Err: err}
	}
	defer f.Close()

	size := info.Size()
	if size < s.offset {
		s.log.Info("file shrank, rescanning from start", "path", s.path, "size", size, "offset", s.offset)
		s.offset = 0
	}

	if size == s.offset {
		s.settle(false)
		return nil, nil
	}

	n := min(size-s.offset, s.maxRead)
	buf := make([]byte, n)
	read, err := f.ReadAt(buf, s.offset)
	if err != nil && err != io.EOF {
		return nil, &WatchError{Op: WatchOpPoll, Path: s.path, Err: fmt.Errorf("read at %d: %w", s.offset, err)}
	}
	buf = buf[:read]

	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		if int64(read) < s.maxRead {
			// Only a partial line so far.
			s.settle(false)
			return nil, nil
		}
		// A single line longer than the read cap; hand it over as is.
		end = read - 1
	}
	complete := buf[:end+1]

	decoded, err := unicode.UTF8.NewDecoder().Bytes(complete)
	if err != nil {
		return nil, &WatchError{Op: WatchOpPoll, Path: s.path, Err: fmt.Errorf("decode: %w", err)}
	}
	s.offset += int64(len(complete))

	lines := splitLines(string(decoded))
	s.settle(len(lines) > 0)
	return lines, nil
}

// settle tracks the content/idle transition so "no new content" is logged
// once rather than on every tick.
func (s *LineSource) settle(gotContent bool) {
	if gotContent {
		s.hadContent = true
		return
	}
	if s.hadContent {
		s.log.Debug("no new content", "path", s.path, "offset", s.offset)
		s.idle = true
	}
	s.hadContent = false
}

func splitLines(chunk string) []string {
	chunk = strings.TrimSuffix(chunk, "\n")
	parts := strings.Split(chunk, "\n")
	lines := parts[:0]
	for _, p := range parts {
		p = strings.TrimSuffix(p, "\r")
		if p == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}
