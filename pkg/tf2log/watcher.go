package tf2log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tf2obs/tf2obs-go/internal/logfinder"
	"github.com/tf2obs/tf2obs-go/internal/tailer"
)

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Watcher monitors a TF2 console log and classifies appended lines.
type Watcher struct {
	cfg     watchConfig // immutable after creation
	logFile string
	parser  Parser
	log     *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	watching bool
}

// Watch starts watching and returns channels.
// Both channels close on ctx.Done() or Close.
// Watch can only be called once per Watcher instance.
//
// Errors sent on the error channel are soft: the watcher keeps running.
//
// Returns ErrWatcherClosed if the watcher has been closed.
// Returns ErrAlreadyWatching if Watch() has already been called.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	eventCh := make(chan Event)
	errCh := make(chan error, watcherErrBuffer)

	go w.run(ctx, eventCh, errCh)

	return eventCh, errCh, nil
}

// Close stops the watcher and releases resources.
// Safe to call multiple times.
// Blocks until the goroutine has exited.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

// LogFile returns the path being watched.
func (w *Watcher) LogFile() string { return w.logFile }

func (w *Watcher) run(ctx context.Context, eventCh chan<- Event, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(eventCh)
	defer close(errCh)

	w.log.Debug("watching log file", "path", w.logFile, "mode", w.cfg.follow, "from_start", w.cfg.fromStart)

	switch w.cfg.follow {
	case FollowNotify:
		w.runNotify(ctx, eventCh, errCh)
	default:
		w.runPoll(ctx, eventCh, errCh)
	}
}

// runPoll drives a LineSource on a fixed ticker. Read failures are reported
// and retried on the next tick.
func (w *Watcher) runPoll(ctx context.Context, eventCh chan<- Event, errCh chan<- error) {
	opts := []LineSourceOption{WithLineSourceLogger(w.log)}
	if w.cfg.fromStart {
		opts = append(opts, WithStartAtBeginning())
	}
	src := NewLineSource(w.logFile, opts...)

	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		lines, err := src.Poll()
		if err != nil {
			w.log.Debug("poll failed", "path", w.logFile, "error", err)
			sendError(ctx, errCh, err)
		}
		for _, line := range lines {
			if ctx.Err() != nil {
				return
			}
			w.processLine(ctx, line, eventCh, errCh)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) runNotify(ctx context.Context, eventCh chan<- Event, errCh chan<- error) {
	cfg := tailer.DefaultConfig()
	cfg.FromStart = w.cfg.fromStart

	t, err := tailer.New(ctx, w.logFile, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: w.logFile, Err: err})
		return
	}
	defer func() { _ = t.Stop() }()
	w.log.Debug("started tailing", "path", w.logFile)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			w.processLine(ctx, line, eventCh, errCh)
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: w.logFile, Err: err})
		}
	}
}

func (w *Watcher) processLine(ctx context.Context, line string, eventCh chan<- Event, errCh chan<- error) {
	result, err := w.parser.ParseLine(ctx, line)

	// Events from a partially failed chain are still delivered.
	for _, ev := range result.Events {
		if !w.cfg.filter.Allows(ev.Kind) {
			continue
		}
		if w.cfg.includeRawLine {
			ev.RawLine = line
		} else {
			ev.RawLine = ""
		}
		select {
		case eventCh <- ev:
		case <-ctx.Done():
			return
		}
	}

	if err != nil && ctx.Err() == nil {
		sendError(ctx, errCh, &ParseError{Line: line, Err: err})
	}
}

// sendError sends an error to the error channel.
// With a buffered channel, errors are only dropped if the buffer is full.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
	}
}

// WatchWithOptions creates a watcher using functional options and starts watching.
//
// The underlying Watcher is not returned; it stops when ctx is cancelled.
// Use NewWatcherWithOptions for synchronous shutdown via Close.
//
// Example:
//
//	events, errs, err := tf2log.WatchWithOptions(ctx,
//	    tf2log.WithPlayer("Alice"),
//	    tf2log.WithIncludeKinds(tf2log.KindKill, tf2log.KindDeath),
//	)
func WatchWithOptions(ctx context.Context, opts ...WatchOption) (<-chan Event, <-chan error, error) {
	w, err := NewWatcherWithOptions(opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// NewWatcherWithOptions creates a watcher using functional options.
// Validates options and resolves the log file path.
// Does NOT start goroutines (cheap to call).
//
// Example:
//
//	watcher, err := tf2log.NewWatcherWithOptions(
//	    tf2log.WithLogFile(`C:\Program Files (x86)\Steam\steamapps\common\Team Fortress 2\tf\console.log`),
//	    tf2log.WithPlayer("Alice"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	events, errs, err := watcher.Watch(ctx)
func NewWatcherWithOptions(opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logFile, err := logfinder.FindLogFile(cfg.logFile)
	if err != nil {
		return nil, &WatchError{Op: WatchOpFind, Path: cfg.logFile, Err: err}
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	p := cfg.parser
	if p == nil {
		p = NewClassifier(cfg.player, cfg.rules...)
	}

	return &Watcher{
		cfg:     *cfg,
		logFile: logFile,
		parser:  p,
		log:     log,
	}, nil
}
