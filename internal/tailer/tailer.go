// Package tailer follows a growing file with filesystem notifications.
package tailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

// Config configures a Tailer.
type Config struct {
	// FromStart reads the existing content before following.
	FromStart bool
	// Poll uses stat polling instead of inotify/kqueue/ReadDirectoryChanges.
	Poll bool
	// ReOpen follows the path across truncation and re-creation.
	ReOpen bool
}

// DefaultConfig returns the configuration used by the watcher.
func DefaultConfig() Config {
	return Config{ReOpen: true}
}

// Tailer streams lines appended to a file.
type Tailer struct {
	t     *tail.Tail
	lines chan string
	errs  chan error
	done  chan struct{}
	once  sync.Once
}

// New starts following path. The returned Tailer stops when ctx is
// cancelled or Stop is called.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	whence := io.SeekEnd
	if cfg.FromStart {
		whence = io.SeekStart
	}
	t, err := tail.TailFile(path, tail.Config{
		Location:      &tail.SeekInfo{Offset: 0, Whence: whence},
		ReOpen:        cfg.ReOpen,
		MustExist:     false,
		Poll:          cfg.Poll,
		Follow:        true,
		CompleteLines: true,
		Logger:        tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", path, err)
	}

	tr := &Tailer{
		t:     t,
		lines: make(chan string),
		errs:  make(chan error, 1),
		done:  make(chan struct{}),
	}
	go tr.forward(ctx)
	return tr, nil
}

func (tr *Tailer) forward(ctx context.Context) {
	defer close(tr.lines)
	defer close(tr.errs)

	for {
		select {
		case <-ctx.Done():
			_ = tr.Stop()
			return
		case <-tr.done:
			return
		case line, ok := <-tr.t.Lines:
			if !ok {
				return
			}
			if line.Err != nil {
				select {
				case tr.errs <- line.Err:
				default:
				}
				continue
			}
			select {
			case tr.lines <- strings.TrimSuffix(line.Text, "\r"):
			case <-ctx.Done():
				_ = tr.Stop()
				return
			case <-tr.done:
				return
			}
		}
	}
}

// Lines returns the channel of appended lines without terminators.
// It is closed when the tailer stops.
func (tr *Tailer) Lines() <-chan string { return tr.lines }

// Errors returns follower errors. It is closed when the tailer stops.
func (tr *Tailer) Errors() <-chan error { return tr.errs }

// Stop stops following and releases the underlying watches.
// Safe to call multiple times.
func (tr *Tailer) Stop() error {
	var err error
	tr.once.Do(func() {
		close(tr.done)
		err = tr.t.Stop()
		tr.t.Cleanup()
	})
	return err
}
