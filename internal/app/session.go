// Package app wires the watcher, the effect queue, the dispatcher and the
// OBS client into one running bridge.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tf2obs/tf2obs-go/internal/config"
	"github.com/tf2obs/tf2obs-go/internal/effects"
	"github.com/tf2obs/tf2obs-go/pkg/obsws"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/pattern"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Bridge is the OBS side of a session. *obsws.Client implements it.
type Bridge interface {
	effects.Controller
	Connect(ctx context.Context) error
	Close() error
	Events() <-chan obsws.PushEvent
	Done() <-chan struct{}
	Err() error
}

// Session owns one run of the bridge.
type Session struct {
	cfg        *config.Config
	log        *slog.Logger
	source     *tf2log.Watcher
	queue      *effects.Queue
	dispatcher *effects.Dispatcher
	bridge     Bridge
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithBridge replaces the obs-websocket client.
func WithBridge(b Bridge) Option {
	return func(s *Session) {
		s.bridge = b
	}
}

// New builds a session from cfg. Nothing is started until Run.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	s := &Session{cfg: cfg, log: discardLogger, queue: effects.NewQueue()}
	for _, opt := range opts {
		opt(s)
	}

	watcher, err := newWatcher(cfg, s.log)
	if err != nil {
		return nil, err
	}
	s.source = watcher

	if s.bridge == nil {
		client, err := NewClient(cfg.OBS, s.log)
		if err != nil {
			return nil, err
		}
		s.bridge = client
	}

	mode, _ := effects.ParseClassMode(cfg.Effects.ClassMode)
	s.dispatcher, err = effects.NewDispatcher(s.queue, s.bridge,
		effects.WithPlayer(cfg.Player),
		effects.WithLogger(s.log.With("component", "dispatcher")),
		effects.WithDurations(cfg.Effects.Flash, cfg.Effects.Notification),
		effects.WithOverlays(cfg.Effects.Overlays),
		effects.WithClassSources(cfg.Effects.Classes),
		effects.WithClassMode(mode),
		effects.WithTextSources(cfg.Effects.NotificationOverlay, cfg.Effects.NotificationText, cfg.Effects.KillstreakText),
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewClient builds an obs-websocket client from the obs section of the
// configuration.
func NewClient(c config.OBSConfig, log *slog.Logger) (*obsws.Client, error) {
	if log == nil {
		log = discardLogger
	}
	return obsws.New(c.Addr(),
		obsws.WithPassword(c.Password),
		obsws.WithLogger(log.With("component", "obsws")),
		obsws.WithRequestTimeout(c.RequestTimeout),
		obsws.WithReconnect(c.ReconnectAttempts, c.ReconnectDelay),
	)
}

func newWatcher(cfg *config.Config, log *slog.Logger) (*tf2log.Watcher, error) {
	mode, err := tf2log.ParseFollowMode(cfg.Follow)
	if err != nil {
		return nil, err
	}
	opts := []tf2log.WatchOption{
		tf2log.WithLogFile(cfg.LogFile),
		tf2log.WithPlayer(cfg.Player),
		tf2log.WithPollInterval(cfg.PollInterval),
		tf2log.WithFollowMode(mode),
		tf2log.WithLogger(log.With("component", "watcher")),
	}
	if cfg.FromStart {
		opts = append(opts, tf2log.WithReplayFromStart())
	}
	if cfg.Rules != "" {
		rules, err := pattern.LoadRules(cfg.Rules)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		opts = append(opts, tf2log.WithRules(rules...))
	}
	return tf2log.NewWatcherWithOptions(opts...)
}

// LogFile returns the console log being followed.
func (s *Session) LogFile() string { return s.source.LogFile() }

// Run connects to OBS and processes the log until ctx is cancelled or the
// connection is lost for good. A failed handshake or an exhausted
// reconnect budget is returned; a cancelled ctx is not an error.
func (s *Session) Run(ctx context.Context) error {
	if err := s.bridge.Connect(ctx); err != nil {
		s.source.Close()
		return fmt.Errorf("connect to OBS: %w", err)
	}
	s.log.Info("connected to OBS", "log_file", s.source.LogFile(), "player", s.cfg.Player)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, errs, err := s.source.Watch(ctx)
	if err != nil {
		s.bridge.Close()
		return err
	}

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		s.forward(ctx, events, errs)
	}()

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		s.dispatcher.Run(ctx)
	}()

	pushDone := make(chan struct{})
	go func() {
		defer close(pushDone)
		for ev := range s.bridge.Events() {
			s.log.Debug("obs event", "type", ev.Type)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("shutting down")
	case <-s.bridge.Done():
		runErr = s.bridge.Err()
		if runErr != nil {
			s.log.Error("lost connection to OBS", "error", runErr)
		}
	}
	cancel()

	s.join("watcher", forwardDone)
	s.source.Close()
	s.join("dispatcher", dispatchDone)
	if err := s.bridge.Close(); err != nil {
		s.log.Warn("close OBS connection", "error", err)
	}
	s.join("push events", pushDone)
	return runErr
}

// forward moves classified events into the queue and closes it on return.
// After cancellation the dispatcher finishes its current effect only;
// effects still queued are dropped.
func (s *Session) forward(ctx context.Context, events <-chan tf2log.Event, errs <-chan error) {
	defer s.queue.Close()
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.log.Debug("event", "kind", ev.Kind, "subject", ev.Subject)
			s.queue.Push(effects.Effect{Event: ev, Queued: time.Now()})
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.log.Warn("watcher", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) join(name string, done <-chan struct{}) {
	t := time.NewTimer(s.cfg.ShutdownTimeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		s.log.Warn("component did not stop in time", "component", name, "timeout", s.cfg.ShutdownTimeout)
	}
}
