package effects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Controller is the subset of the OBS client used by the dispatcher.
type Controller interface {
	CurrentProgramScene(ctx context.Context) (string, error)
	SceneItemID(ctx context.Context, scene, source string) (int, bool)
	SetSceneItemEnabled(ctx context.Context, scene string, itemID int, enabled bool) error
	SetText(ctx context.Context, input, text string) error
	SetInputMute(ctx context.Context, input string, muted bool) error
}

const (
	DefaultFlashDuration        = 300 * time.Millisecond
	DefaultNotificationDuration = 3 * time.Second
	DefaultPopTimeout           = time.Second

	// stepSlack bounds the calls of one effect beyond its own delay.
	stepSlack = 10 * time.Second
)

// Option configures a Dispatcher.
type Option func(*dispatchConfig)

type dispatchConfig struct {
	player              string
	logger              *slog.Logger
	flash               time.Duration
	notification        time.Duration
	popTimeout          time.Duration
	overlays            map[string]string
	classSources        map[string]string
	classMode           ClassMode
	notificationOverlay string
	notificationText    string
	killstreakText      string
	sleep               func(ctx context.Context, d time.Duration)
}

func defaultDispatchConfig() dispatchConfig {
	return dispatchConfig{
		flash:               DefaultFlashDuration,
		notification:        DefaultNotificationDuration,
		popTimeout:          DefaultPopTimeout,
		overlays:            DefaultOverlays(),
		classSources:        DefaultClassSources(),
		classMode:           ClassImages,
		notificationOverlay: DefaultNotificationOverlay,
		notificationText:    DefaultNotificationText,
		killstreakText:      DefaultKillstreakText,
		sleep:               sleepContext,
	}
}

func (c *dispatchConfig) validate() error {
	if c.flash < 0 || c.notification < 0 {
		return errors.New("durations must not be negative")
	}
	if c.popTimeout <= 0 {
		return errors.New("pop timeout must be positive")
	}
	return nil
}

// WithPlayer sets the name used in notification texts.
func WithPlayer(name string) Option {
	return func(c *dispatchConfig) {
		c.player = name
	}
}

// WithLogger sets the logger for diagnostics.
// If nil, logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *dispatchConfig) {
		c.logger = logger
	}
}

// WithDurations sets how long overlays flash and notifications stay up.
func WithDurations(flash, notification time.Duration) Option {
	return func(c *dispatchConfig) {
		c.flash = flash
		c.notification = notification
	}
}

// WithPopTimeout sets how long Run waits on an empty queue before checking
// for shutdown.
func WithPopTimeout(d time.Duration) Option {
	return func(c *dispatchConfig) {
		c.popTimeout = d
	}
}

// WithOverlays overrides entries of the overlay table. An empty source
// name disables the overlay for that key.
func WithOverlays(overlays map[string]string) Option {
	return func(c *dispatchConfig) {
		maps.Copy(c.overlays, overlays)
	}
}

// WithClassSources overrides entries of the class overlay table.
func WithClassSources(sources map[string]string) Option {
	return func(c *dispatchConfig) {
		maps.Copy(c.classSources, sources)
	}
}

// WithClassMode selects image or media class overlays.
func WithClassMode(m ClassMode) Option {
	return func(c *dispatchConfig) {
		c.classMode = m
	}
}

// WithTextSources sets the names of the notification overlay, the
// notification text and the killstreak text sources. Empty names keep the
// defaults.
func WithTextSources(notificationOverlay, notificationText, killstreakText string) Option {
	return func(c *dispatchConfig) {
		if notificationOverlay != "" {
			c.notificationOverlay = notificationOverlay
		}
		if notificationText != "" {
			c.notificationText = notificationText
		}
		if killstreakText != "" {
			c.killstreakText = killstreakText
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Dispatcher drains a Queue and applies each effect through a Controller.
type Dispatcher struct {
	queue *Queue
	ctrl  Controller
	cfg   dispatchConfig
	log   *slog.Logger
}

// NewDispatcher creates a dispatcher reading from q.
func NewDispatcher(q *Queue, ctrl Controller, opts ...Option) (*Dispatcher, error) {
	if q == nil || ctrl == nil {
		return nil, errors.New("effects: queue and controller are required")
	}
	cfg := defaultDispatchConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	log := cfg.logger
	if log == nil {
		log = discardLogger
	}
	return &Dispatcher{queue: q, ctrl: ctrl, cfg: cfg, log: log}, nil
}

// Run processes effects until ctx is done or the queue is closed and
// drained. An effect in progress when ctx is cancelled is finished first;
// effects still queued at that point are left unplayed.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		e, ok := d.queue.Pop(ctx, d.cfg.popTimeout)
		if !ok {
			if d.queue.Closed() && d.queue.Len() == 0 {
				return nil
			}
			continue
		}
		d.Dispatch(ctx, e.Event)
	}
}

// plan is what one event asks of OBS.
type plan struct {
	overlay    string
	text       string
	killstreak *int
	class      string
	notify     bool
}

// Dispatch applies the effect for ev. Failures are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Event) {
	p, ok := d.plan(ev)
	if !ok {
		return
	}

	// The step runs to completion, hide included, even during shutdown.
	budget := d.cfg.notification + d.cfg.flash + stepSlack
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), budget)
	defer cancel()

	log := d.log.With("kind", ev.Kind.String())
	log.Debug("dispatching effect", "subject", ev.Subject, "overlay", p.overlay)

	if p.killstreak != nil {
		if err := d.ctrl.SetText(ctx, d.cfg.killstreakText, "Killstreak: "+strconv.Itoa(*p.killstreak)); err != nil {
			log.Warn("failed to update killstreak text", "error", err)
		}
	}

	if p.class != "" {
		d.switchClass(ctx, log, p.class)
	}

	if p.overlay == "" && !p.notify {
		return
	}

	scene, err := d.ctrl.CurrentProgramScene(ctx)
	if err != nil {
		log.Warn("skipping effect, no current scene", "error", err)
		return
	}

	if p.notify {
		d.notify(ctx, log, scene, p.overlay, p.text)
		return
	}
	d.show(ctx, log, scene, []string{p.overlay}, d.cfg.flash)
}

// plan maps an event to its effect. The switch lists every kind.
func (d *Dispatcher) plan(ev event.Event) (plan, bool) {
	player := d.cfg.player
	if player == "" {
		player = ev.Actor
	}
	p := plan{overlay: d.cfg.overlays[OverlayKey(ev)], notify: true}
	streak := func() {
		n := ev.Value()
		p.killstreak = &n
	}

	switch ev.Kind {
	case event.None:
		return plan{}, false
	case event.Kill:
		streak()
		p.text = fmt.Sprintf("%s killed with %s", player, ev.Subject)
		if ev.Crit {
			p.text += " (crit)"
		}
	case event.Death, event.Suicide:
		streak()
		p.text = player + " died"
	case event.Spawn:
		streak()
		p.class = ev.Subject
		p.text = fmt.Sprintf("%s spawned as %s", player, ev.Subject)
	case event.ClassChange:
		streak()
		p.class = ev.Subject
		p.notify = false
	case event.TeamChange, event.MapChange:
		streak()
		p.notify = false
	case event.Capture:
		p.text = player + " captured a point!"
	case event.IntelPickup:
		p.text = player + " picked up the intelligence!"
	case event.IntelDrop:
		p.text = player + " dropped the intelligence!"
	case event.IntelCarry:
		p.text = player + " has the intelligence!"
	case event.IntelCapture:
		p.text = player + " captured the intelligence!"
	case event.Build:
		p.text = fmt.Sprintf("%s built a %s!", player, ev.Subject)
	case event.Destroy:
		p.text = fmt.Sprintf("%s destroyed a %s!", player, ev.Subject)
	case event.Domination:
		p.text = player + " dominated an enemy!"
	case event.Dominated:
		streak()
		p.text = player + " was dominated!"
	case event.Revenge:
		p.text = player + " got revenge!"
	case event.StatusEffect:
		p.text = fmt.Sprintf("%s was %s!", player, ev.Subject)
	case event.MedicUber:
		p.text = player + " deployed Übercharge!"
	case event.MedicCharge:
		p.text = player + " deployed charge!"
	case event.SpyDisguise:
		p.text = player + " completed disguise!"
	case event.SpyBackstab:
		p.text = player + " performed a backstab!"
	case event.EngineerTeleport:
		p.text = player + " used a teleporter!"
	case event.SniperHeadshot:
		p.text = player + " got a headshot!"
	case event.PyroAirblast:
		p.text = player + " performed an airblast!"
	case event.DemoStickyTrap:
		p.text = player + "'s sticky trap was triggered!"
	case event.HeavyEating:
		p.text = player + " is eating a sandvich!"
	case event.CritBoost:
		p.text = player + " is Crit boosted!"
	case event.MiniCritBoost:
		p.text = player + " is Mini-crit boosted!"
	case event.Damage, event.Heal, event.Assist:
		// Flash only.
		p.notify = false
	case event.RoundWin:
		streak()
		p.text = "Round win!"
	case event.RoundStalemate:
		streak()
		p.text = "Round stalemate!"
	case event.MatchWin:
		streak()
		p.text = "Match win!"
	case event.FirstBlood:
		who := ev.Subject
		if who == "" {
			who = player
		}
		p.text = who + " got First Blood!"
	default:
		d.log.Warn("no effect for event kind", "kind", ev.Kind.String())
		return plan{}, false
	}
	return p, true
}

// notify shows the event overlay with the notification text and overlay,
// waits, then hides them.
func (d *Dispatcher) notify(ctx context.Context, log *slog.Logger, scene, overlay, text string) {
	if err := d.ctrl.SetText(ctx, d.cfg.notificationText, text); err != nil {
		log.Warn("failed to set notification text", "error", err)
	}
	sources := []string{d.cfg.notificationText, d.cfg.notificationOverlay}
	if overlay != "" {
		sources = append([]string{overlay}, sources...)
	}
	d.show(ctx, log, scene, sources, d.cfg.notification)
}

// show enables sources, waits for hold, then disables them. Sources that
// cannot be resolved are skipped.
func (d *Dispatcher) show(ctx context.Context, log *slog.Logger, scene string, sources []string, hold time.Duration) {
	type item struct {
		source string
		id     int
	}
	var shown []item
	for _, src := range sources {
		id, ok := d.ctrl.SceneItemID(ctx, scene, src)
		if !ok {
			log.Debug("source not in scene", "scene", scene, "source", src)
			continue
		}
		if err := d.ctrl.SetSceneItemEnabled(ctx, scene, id, true); err != nil {
			log.Warn("failed to show source", "scene", scene, "source", src, "error", err)
			continue
		}
		shown = append(shown, item{source: src, id: id})
	}
	if len(shown) == 0 {
		return
	}

	d.cfg.sleep(ctx, hold)

	for _, it := range shown {
		if err := d.ctrl.SetSceneItemEnabled(ctx, scene, it.id, false); err != nil {
			log.Warn("failed to hide source", "scene", scene, "source", it.source, "error", err)
		}
	}
}

// switchClass makes the overlay of class the only visible (or audible) one.
func (d *Dispatcher) switchClass(ctx context.Context, log *slog.Logger, class string) {
	selected, ok := d.cfg.classSources[class]
	if !ok {
		log.Debug("no overlay for class", "class", class)
		return
	}

	names := slices.Sorted(maps.Keys(d.cfg.classSources))

	if d.cfg.classMode == ClassMedia {
		for _, name := range names {
			src := d.cfg.classSources[name]
			if err := d.ctrl.SetInputMute(ctx, src, src != selected); err != nil {
				log.Warn("failed to switch class media", "source", src, "error", err)
			}
		}
		return
	}

	scene, err := d.ctrl.CurrentProgramScene(ctx)
	if err != nil {
		log.Warn("skipping class overlay, no current scene", "error", err)
		return
	}
	for _, name := range names {
		src := d.cfg.classSources[name]
		id, ok := d.ctrl.SceneItemID(ctx, scene, src)
		if !ok {
			log.Debug("class source not in scene", "scene", scene, "source", src)
			continue
		}
		if err := d.ctrl.SetSceneItemEnabled(ctx, scene, id, src == selected); err != nil {
			log.Warn("failed to switch class overlay", "source", src, "error", err)
		}
	}
}
