package notify

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

const (
	DefaultPingInterval    = 30 * time.Second
	DefaultReconnectDelay  = 5 * time.Second
	DefaultDisplayDuration = 15 * time.Second

	pingFrame = "ping"
	pongFrame = "pong"
)

// ErrNotStarted is returned by Connect before Start was called with a token.
var ErrNotStarted = errors.New("notify: channel not started")

// State is the connection state of a Channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
	ReconnectPending
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case ReconnectPending:
		return "reconnect_pending"
	default:
		return "disconnected"
	}
}

// Channel owns the notification socket for one session.
//
// The channel reconnects ReconnectDelay after every close for as long as it
// is started. There is no backoff and no attempt limit.
type Channel struct {
	APIBase string
	Dialer  Dialer
	Clock   Clock
	Logger  *slog.Logger

	PingInterval    time.Duration
	ReconnectDelay  time.Duration
	DisplayDuration time.Duration

	mu      sync.Mutex
	enabled bool
	token   string
	state   State

	// gen changes on every connect and teardown. Socket and timer callbacks
	// carry the generation they were created under and are ignored once it
	// is stale.
	gen uint64

	conn           Conn
	cancelDial     context.CancelFunc
	pingTimer      Timer
	reconnectTimer Timer
	dismissTimers  map[string]Timer

	items   []Notification
	subs    map[int]func([]Notification)
	nextSub int
}

// NewChannel creates a stopped channel for the API at apiBase.
func NewChannel(apiBase string, dialer Dialer, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		APIBase:         apiBase,
		Dialer:          dialer,
		Clock:           realClock{},
		Logger:          logger,
		PingInterval:    DefaultPingInterval,
		ReconnectDelay:  DefaultReconnectDelay,
		DisplayDuration: DefaultDisplayDuration,
	}
}

// Start enables the channel for token and connects. An empty token is the
// signed-out state and stops the channel. Calling Start again with the same
// token while connected is a no-op.
func (c *Channel) Start(token string) {
	if token == "" {
		c.Stop()
		return
	}

	c.mu.Lock()
	if c.enabled && c.token == token && c.state != Disconnected {
		c.mu.Unlock()
		return
	}
	c.enabled = true
	c.token = token
	fx := c.connectLocked()
	c.mu.Unlock()

	fx.run(c)
}

// Stop tears the channel down: the reconnect timer, the keep-alive timer,
// every dismiss timer and finally the socket. Received notifications are
// discarded.
func (c *Channel) Stop() {
	c.mu.Lock()
	c.enabled = false
	c.token = ""
	fx := c.teardownLocked()
	c.mu.Unlock()

	fx.run(c)
}

// Connect replaces the current socket with a new one.
func (c *Channel) Connect() error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return ErrNotStarted
	}
	fx := c.connectLocked()
	c.mu.Unlock()

	fx.run(c)
	return nil
}

// Dismiss removes a notification and cancels its auto-dismiss timer.
// Unknown IDs are ignored.
func (c *Channel) Dismiss(id string) {
	c.dispatch(dismissDue{id: id})
}

// Notifications returns the visible notifications, newest first.
func (c *Channel) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive the notification list after every
// change. fn runs outside the channel's lock. The returned func removes the
// subscription.
func (c *Channel) Subscribe(fn func([]Notification)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs == nil {
		c.subs = make(map[int]func([]Notification))
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Channel) clock() Clock {
	if c.Clock == nil {
		return realClock{}
	}
	return c.Clock
}

func (c *Channel) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
