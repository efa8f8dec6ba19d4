package tf2log

import (
	"errors"
	"fmt"

	"github.com/tf2obs/tf2obs-go/internal/logfinder"
)

// Sentinel errors.
var (
	// ErrLogFileNotFound is returned when no console.log can be located.
	ErrLogFileNotFound = logfinder.ErrLogFileNotFound

	// ErrWatcherClosed is returned by Watch after Close.
	ErrWatcherClosed = errors.New("watcher closed")

	// ErrAlreadyWatching is returned when Watch is called twice.
	ErrAlreadyWatching = errors.New("watch already called")
)

// WatchOp names the operation a WatchError occurred in.
type WatchOp string

const (
	WatchOpFind  WatchOp = "find"
	WatchOpPoll  WatchOp = "poll"
	WatchOpTail  WatchOp = "tail"
	WatchOpParse WatchOp = "parse"
)

// WatchError is a soft failure reported on the watcher's error channel.
// The watcher keeps running after sending one.
type WatchError struct {
	Op   WatchOp
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// ParseError wraps a parser failure for a specific line.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
