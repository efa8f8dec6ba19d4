// Package obsws is a client for the obs-websocket v5 protocol used to drive
// OBS Studio scenes, sources and inputs.
//
// A Client owns one websocket connection. Requests are correlated to their
// replies by id so any number of goroutines may call concurrently; push
// events are delivered on a separate channel. Scene item ids resolved by
// SceneItemID are cached until OBS reports a change to the scene layout.
package obsws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/tf2obs/tf2obs-go/internal/retry"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// State is the connection state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type reply struct {
	resp *Response
	err  error
}

// Client is an obs-websocket v5 client.
type Client struct {
	url string
	cfg clientConfig
	log *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	pending map[string]chan reply
	closed  bool
	err     error

	writeMu sync.Mutex // serialises all conn writes

	events chan PushEvent
	items  *lookupCache
	scene  sceneCache

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a client for addr, which is either host:port or a ws:// URL.
// No connection is made until Connect.
func New(addr string, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	u, err := endpointURL(addr)
	if err != nil {
		return nil, err
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		url:     u,
		cfg:     cfg,
		log:     log,
		state:   StateDisconnected,
		pending: make(map[string]chan reply),
		events:  make(chan PushEvent, cfg.eventBuffer),
		items:   newLookupCache(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

func endpointURL(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("obsws: empty address")
	}
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("obsws: invalid address: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("obsws: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("obsws: missing host in %q", addr)
	}
	return u.String(), nil
}

// URL returns the websocket endpoint.
func (c *Client) URL() string {
	return c.url
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Events returns the push event stream. Events are dropped when the
// channel is full. The channel is closed by Close.
func (c *Client) Events() <-chan PushEvent {
	return c.events
}

// Done is closed when the client stops for good: after Close, or when the
// reconnect budget is exhausted.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the client gave up, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Connect dials the server and performs the Hello/Identify handshake.
// A handshake failure is returned as *AuthError.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}
	if err := c.attach(conn); err != nil {
		return err
	}
	c.log.Info("connected to obs", "url", c.url)
	return nil
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.cfg.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("obsws: dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.state == StateConnecting {
		c.state = StateAuthenticating
	}
	c.mu.Unlock()

	if err := c.handshake(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Client) handshake(ctx context.Context, conn *websocket.Conn) error {
	deadline := time.Now().Add(handshakeLimit)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return &AuthError{Reason: "no Hello from server", Err: err}
	}
	hello := gjson.ParseBytes(msg)
	if op := hello.Get("op").Int(); op != opHello {
		return &AuthError{Reason: fmt.Sprintf("expected Hello, got op %d", op)}
	}

	identify := newFrame(opIdentify).
		set("rpcVersion", rpcVersion).
		set("eventSubscriptions", int(c.cfg.subscriptions))
	if auth := hello.Get("d.authentication"); auth.Exists() {
		if c.cfg.password == "" {
			return &AuthError{Reason: "server requires a password"}
		}
		identify.set("authentication", authProof(c.cfg.password, auth.Get("salt").String(), auth.Get("challenge").String()))
	}
	b, err := identify.bytes()
	if err != nil {
		return &AuthError{Reason: "encode Identify", Err: err}
	}
	if err := c.write(conn, b); err != nil {
		return &AuthError{Reason: "send Identify", Err: err}
	}

	_, msg, err = conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) && ce.Code == closeAuthenticationFailed {
			return &AuthError{Reason: "password rejected", Err: err}
		}
		return &AuthError{Reason: "no Identified from server", Err: err}
	}
	identified := gjson.ParseBytes(msg)
	if op := identified.Get("op").Int(); op != opIdentified {
		return &AuthError{Reason: fmt.Sprintf("expected Identified, got op %d", op)}
	}

	conn.SetReadDeadline(time.Time{})
	c.log.Debug("identified",
		"obs_websocket_version", hello.Get("d.obsWebSocketVersion").String(),
		"rpc_version", identified.Get("d.negotiatedRpcVersion").Int())
	return nil
}

// attach makes conn the live connection and starts its loops.
func (c *Client) attach(conn *websocket.Conn) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.state = StateReady
	c.wg.Add(2)
	c.mu.Unlock()

	// Ids resolved on an earlier session may be stale.
	c.invalidate()

	go c.readLoop(conn)
	go c.pingLoop(conn)
	return nil
}

func (c *Client) write(conn *websocket.Conn, msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// readLoop is the only reader of conn. Any frame or pong extends the read
// deadline; a silent peer fails the read after the pong timeout.
func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	timeout := c.cfg.pongTimeout
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeout))
	})
	conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.lost(conn, err)
			return
		}
		conn.SetReadDeadline(time.Now().Add(timeout))
		c.route(msg)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			current := c.conn
			c.mu.Unlock()
			if current != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				// Unblocks readLoop so lost runs and reconnection starts.
				c.log.Debug("ping failed", "error", err)
				conn.Close()
				return
			}
		}
	}
}

func (c *Client) route(msg []byte) {
	f := gjson.ParseBytes(msg)
	d := f.Get("d")
	switch op := f.Get("op").Int(); op {
	case opRequestResponse:
		resp, err := parseResponse(d)
		c.deliver(resp.RequestID, reply{resp: resp, err: err})
	case opEvent:
		ev := PushEvent{
			Type:   d.Get("eventType").String(),
			Intent: d.Get("eventIntent").Int(),
		}
		if data := d.Get("eventData"); data.Exists() {
			ev.Data = []byte(data.Raw)
		}
		c.handleEvent(ev)
	default:
		c.log.Debug("ignoring frame", "op", op)
	}
}

func (c *Client) deliver(id string, r reply) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if !ok {
		c.log.Debug("dropping unmatched reply", "request_id", id)
		return
	}
	ch <- r
}

func (c *Client) handleEvent(ev PushEvent) {
	if invalidatingEvents[ev.Type] {
		c.log.Debug("scene layout changed, clearing lookup cache", "event", ev.Type)
		c.invalidate()
	}
	select {
	case c.events <- ev:
	default:
		c.log.Debug("event buffer full, dropping event", "event", ev.Type)
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// lost handles a read error on conn.
func (c *Client) lost(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn || c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = nil
	pending := c.pending
	c.pending = make(map[string]chan reply)
	reconnect := c.cfg.reconnectAttempts > 0
	if reconnect {
		c.state = StateReconnecting
		c.wg.Add(1)
	} else {
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	conn.Close()
	for _, ch := range pending {
		ch <- reply{err: ErrConnectionLost}
	}

	c.log.Warn("connection to obs lost", "error", cause)
	if !reconnect {
		c.giveUp(fmt.Errorf("%w: %v", ErrConnectionLost, cause))
		return
	}
	go c.reconnect()
}

func (c *Client) reconnect() {
	defer c.wg.Done()

	policy := retry.Fixed(c.cfg.reconnectAttempts, c.cfg.reconnectDelay)
	conn, err := retry.Do(c.ctx, policy, func(ctx context.Context) (*websocket.Conn, error) {
		conn, err := c.dial(ctx)
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, retry.Permanent(err)
		}
		return conn, err
	}, func(attempt int, err error, next time.Duration) {
		c.log.Warn("reconnect attempt failed", "attempt", attempt, "error", err, "retry_in", next)
	})
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		c.giveUp(fmt.Errorf("obsws: reconnect failed: %w", err))
		return
	}
	if err := c.attach(conn); err != nil {
		return
	}
	c.log.Info("reconnected to obs", "url", c.url)
}

func (c *Client) giveUp(err error) {
	c.mu.Lock()
	c.state = StateDisconnected
	c.err = err
	c.mu.Unlock()
	c.log.Error("giving up on obs connection", "error", err)
	c.doneOnce.Do(func() { close(c.done) })
}

// Close closes the connection and stops reconnection. Pending calls fail
// with ErrClosed. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	pending := c.pending
	c.pending = make(map[string]chan reply)
	c.mu.Unlock()

	c.cancel()
	for _, ch := range pending {
		ch <- reply{err: ErrClosed}
	}

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		conn.Close()
	}

	c.wg.Wait()
	close(c.events)
	c.doneOnce.Do(func() { close(c.done) })
	return nil
}

// Call sends a request and waits for its reply. A reply with a false
// result is returned together with a *RequestError.
func (c *Client) Call(ctx context.Context, requestType string, data any) (*Response, error) {
	id := uuid.NewString()
	f := newFrame(opRequest).set("requestType", requestType).set("requestId", id)
	if data != nil {
		f.set("requestData", data)
	}
	msg, err := f.bytes()
	if err != nil {
		return nil, fmt.Errorf("obsws: encode %s: %w", requestType, err)
	}

	ch := make(chan reply, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.state != StateReady || c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	conn := c.conn
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.write(conn, msg); err != nil {
		c.forget(id)
		return nil, fmt.Errorf("obsws: send %s: %w", requestType, err)
	}

	timer := time.NewTimer(c.cfg.requestTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			return r.resp, r.err
		}
		if !r.resp.Result {
			return r.resp, &RequestError{RequestType: requestType, Code: r.resp.Code, Comment: r.resp.Comment}
		}
		return r.resp, nil
	case <-timer.C:
		c.forget(id)
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, requestType, c.cfg.requestTimeout)
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}
