package tf2log

import (
	"fmt"
	"log/slog"
	"time"
)

// FollowMode selects how the Watcher notices appended lines.
type FollowMode int

const (
	// FollowPoll checks the file size on a fixed interval (default).
	FollowPoll FollowMode = iota
	// FollowNotify streams lines from a filesystem-notification follower.
	FollowNotify
)

// String returns "poll" or "notify".
func (m FollowMode) String() string {
	switch m {
	case FollowPoll:
		return "poll"
	case FollowNotify:
		return "notify"
	default:
		return fmt.Sprintf("FollowMode(%d)", int(m))
	}
}

// ParseFollowMode parses "poll" or "notify".
func ParseFollowMode(s string) (FollowMode, error) {
	switch s {
	case "", "poll":
		return FollowPoll, nil
	case "notify":
		return FollowNotify, nil
	default:
		return FollowPoll, fmt.Errorf("unknown follow mode %q (want poll or notify)", s)
	}
}

// DefaultPollInterval is how often the log file is checked in FollowPoll mode.
const DefaultPollInterval = time.Second

// watcherErrBuffer is the buffer size for the error channel.
const watcherErrBuffer = 16

// WatchOption configures Watch behavior using the functional options pattern.
type WatchOption func(*watchConfig)

// watchConfig holds internal configuration for the watcher.
type watchConfig struct {
	logFile        string
	player         string
	pollInterval   time.Duration
	follow         FollowMode
	fromStart      bool
	includeRawLine bool
	logger         *slog.Logger
	filter         *compiledFilter
	rules          []Rule
	parser         Parser // nil means a Classifier for player
}

func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		pollInterval: DefaultPollInterval,
		follow:       FollowPoll,
	}
}

func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option combinations.
func (c *watchConfig) validate() error {
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	if c.follow != FollowPoll && c.follow != FollowNotify {
		return fmt.Errorf("invalid follow mode %v", c.follow)
	}
	if c.parser != nil && len(c.rules) > 0 {
		return fmt.Errorf("custom rules cannot be combined with a custom parser")
	}
	return nil
}

// WithLogFile sets the console log path, or a directory containing it.
// If not set, the TF2OBS_LOGFILE environment variable and the usual Steam
// install locations are tried.
func WithLogFile(path string) WatchOption {
	return func(c *watchConfig) {
		c.logFile = path
	}
}

// WithPlayer sets the watched player name. Lines about other players are
// ignored except world events such as round wins and map changes.
func WithPlayer(name string) WatchOption {
	return func(c *watchConfig) {
		c.player = name
	}
}

// WithPollInterval sets how often the file is checked in FollowPoll mode.
// Default: 1 second.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.pollInterval = interval
	}
}

// WithFollowMode selects polling or notification-based following.
func WithFollowMode(mode FollowMode) WatchOption {
	return func(c *watchConfig) {
		c.follow = mode
	}
}

// WithReplayFromStart classifies the existing file content before following.
// By default only lines written after Watch starts are reported.
func WithReplayFromStart() WatchOption {
	return func(c *watchConfig) {
		c.fromStart = true
	}
}

// WithIncludeRawLine keeps the original log line in Event.RawLine.
// Default: false.
func WithIncludeRawLine(include bool) WatchOption {
	return func(c *watchConfig) {
		c.includeRawLine = include
	}
}

// WithLogger sets a custom logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}

// WithRules adds classification rules tried before the built-in table.
func WithRules(rules ...Rule) WatchOption {
	return func(c *watchConfig) {
		c.rules = append(c.rules, rules...)
	}
}

// WithParser replaces the built-in classifier.
// If p is nil, this option has no effect.
func WithParser(p Parser) WatchOption {
	return func(c *watchConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithIncludeKinds filters events to only include the specified kinds.
// If called multiple times, only the last call takes effect.
func WithIncludeKinds(kinds ...Kind) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.include = kindSet(kinds)
	}
}

// WithExcludeKinds filters out events of the specified kinds.
// Exclude takes precedence over include.
func WithExcludeKinds(kinds ...Kind) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.exclude = kindSet(kinds)
	}
}

// WithFilter sets both include and exclude kind filters.
func WithFilter(include, exclude []Kind) WatchOption {
	return func(c *watchConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// ParseOption configures ParseFile behavior.
type ParseOption func(*parseConfig)

type parseConfig struct {
	player         string
	rules          []Rule
	parser         Parser
	filter         *compiledFilter
	includeRawLine bool
	since          time.Time
	until          time.Time
	stopOnError    bool
}

func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithParsePlayer sets the watched player for offline classification.
func WithParsePlayer(name string) ParseOption {
	return func(c *parseConfig) {
		c.player = name
	}
}

// WithParseRules adds rules tried before the built-in table.
func WithParseRules(rules ...Rule) ParseOption {
	return func(c *parseConfig) {
		c.rules = append(c.rules, rules...)
	}
}

// WithParseParser replaces the built-in classifier.
// If p is nil, this option has no effect.
func WithParseParser(p Parser) ParseOption {
	return func(c *parseConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithParseFilter sets both include and exclude kind filters for parsing.
func WithParseFilter(include, exclude []Kind) ParseOption {
	return func(c *parseConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// WithParseIncludeRawLine keeps the original log line in Event.RawLine.
func WithParseIncludeRawLine(include bool) ParseOption {
	return func(c *parseConfig) {
		c.includeRawLine = include
	}
}

// WithParseSince drops timestamped events before since.
// Events without a timestamp are always kept.
func WithParseSince(since time.Time) ParseOption {
	return func(c *parseConfig) {
		c.since = since
	}
}

// WithParseUntil drops timestamped events at or after until.
func WithParseUntil(until time.Time) ParseOption {
	return func(c *parseConfig) {
		c.until = until
	}
}

// WithParseStopOnError stops parsing on the first error instead of skipping.
// Default: false (report the error and continue).
func WithParseStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}
