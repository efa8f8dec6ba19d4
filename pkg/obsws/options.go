package obsws

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tf2obs/tf2obs-go/internal/retry"
)

const (
	DefaultRequestTimeout    = 5 * time.Second
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = 2 * time.Second
	DefaultSceneTTL          = 5 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultPongTimeout       = 60 * time.Second

	writeTimeout   = 10 * time.Second
	eventBuffer    = 64
	handshakeLimit = 10 * time.Second
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	password          string
	logger            *slog.Logger
	requestTimeout    time.Duration
	reconnectAttempts int
	reconnectDelay    time.Duration
	subscriptions     EventSubscription
	dialer            *websocket.Dialer
	lookup            retry.Policy
	sceneTTL          time.Duration
	pingInterval      time.Duration
	pongTimeout       time.Duration
	eventBuffer       int
	now               func() time.Time
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		requestTimeout:    DefaultRequestTimeout,
		reconnectAttempts: DefaultReconnectAttempts,
		reconnectDelay:    DefaultReconnectDelay,
		subscriptions:     SubscribeAllLowVolume,
		dialer:            websocket.DefaultDialer,
		lookup:            retry.Lookup,
		sceneTTL:          DefaultSceneTTL,
		pingInterval:      DefaultPingInterval,
		pongTimeout:       DefaultPongTimeout,
		eventBuffer:       eventBuffer,
		now:               time.Now,
	}
}

func (c *clientConfig) validate() error {
	if c.requestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.reconnectAttempts < 0 {
		return errors.New("reconnect attempts must not be negative")
	}
	if c.reconnectDelay < 0 {
		return errors.New("reconnect delay must not be negative")
	}
	if c.lookup.MaxAttempts <= 0 {
		return errors.New("lookup attempts must be positive")
	}
	if c.pingInterval <= 0 {
		return errors.New("ping interval must be positive")
	}
	if c.pongTimeout <= c.pingInterval {
		return errors.New("pong timeout must be longer than the ping interval")
	}
	if c.eventBuffer < 0 {
		return errors.New("event buffer must not be negative")
	}
	return nil
}

// WithPassword sets the password used to answer the Hello challenge.
func WithPassword(password string) Option {
	return func(c *clientConfig) {
		c.password = password
	}
}

// WithLogger sets the logger for diagnostics.
// If nil, logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithRequestTimeout bounds how long Call waits for a reply.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.requestTimeout = d
	}
}

// WithReconnect sets the reconnect budget. Zero attempts disables
// reconnection.
func WithReconnect(attempts int, delay time.Duration) Option {
	return func(c *clientConfig) {
		c.reconnectAttempts = attempts
		c.reconnectDelay = delay
	}
}

// WithEventSubscriptions sets the event categories requested in Identify.
func WithEventSubscriptions(subs EventSubscription) Option {
	return func(c *clientConfig) {
		c.subscriptions = subs
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *clientConfig) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithLookupPolicy sets the retry policy for scene item lookups.
func WithLookupPolicy(p retry.Policy) Option {
	return func(c *clientConfig) {
		c.lookup = p
	}
}

// WithSceneTTL sets how long the current program scene is cached.
func WithSceneTTL(d time.Duration) Option {
	return func(c *clientConfig) {
		c.sceneTTL = d
	}
}

// WithKeepalive sets how often the client pings the server and how long
// the connection may stay silent before it is treated as lost.
func WithKeepalive(interval, timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.pingInterval = interval
		c.pongTimeout = timeout
	}
}

// WithEventBuffer sets the capacity of the Events channel. Events that do
// not fit are dropped.
func WithEventBuffer(n int) Option {
	return func(c *clientConfig) {
		c.eventBuffer = n
	}
}
