package notify

import (
	"context"
	"slices"
	"strconv"
)

// Event is an input to the channel's state machine.
type Event interface {
	event()
}

// Opened reports that a dial completed.
type Opened struct {
	Conn Conn
	gen  uint64
}

// Message carries one inbound text frame.
type Message struct {
	Payload string
	gen     uint64
}

// Closed reports that the socket closed or the dial failed.
type Closed struct {
	Err error
	gen uint64
}

// Errored reports a socket error. A Closed event always follows.
type Errored struct {
	Err error
	gen uint64
}

type pingDue struct{ gen uint64 }

type reconnectDue struct{ gen uint64 }

type dismissDue struct{ id string }

func (Opened) event()       {}
func (Message) event()      {}
func (Closed) event()       {}
func (Errored) event()      {}
func (pingDue) event()      {}
func (reconnectDue) event() {}
func (dismissDue) event()   {}

// effects are the side effects of a transition, run after the lock is
// released.
type effects struct {
	close    []Conn
	ping     Conn
	dial     *dialJob
	notify   []func([]Notification)
	snapshot []Notification
}

type dialJob struct {
	ctx context.Context
	url string
	gen uint64
}

func (c *Channel) dispatch(ev Event) {
	c.mu.Lock()
	fx := c.apply(ev)
	c.mu.Unlock()

	fx.run(c)
}

// apply is the single transition function. It must be called with c.mu
// held.
func (c *Channel) apply(ev Event) effects {
	var fx effects
	log := c.logger()

	switch ev := ev.(type) {
	case Opened:
		if ev.gen != c.gen {
			fx.close = append(fx.close, ev.Conn)
			return fx
		}
		c.conn = ev.Conn
		c.state = Open
		c.armPing()
		log.Info("notification socket open")

	case Message:
		if ev.gen != c.gen {
			return fx
		}
		if ev.Payload == pongFrame {
			return fx
		}
		n, ok := parseNotification(ev.Payload, c.clock().Now())
		if !ok {
			log.Debug("dropping malformed notification frame", "bytes", len(ev.Payload))
			return fx
		}
		n.ID = c.uniqueID(n.ID)
		c.items = slices.Insert(c.items, 0, n)
		c.armDismiss(n.ID)
		log.Info("notification received", "type", n.Type, "pet_id", n.PetID, "id", n.ID)
		fx.publish(c)

	case Errored:
		if ev.gen != c.gen {
			return fx
		}
		log.Warn("notification socket error", "error", ev.Err)
		if c.conn != nil {
			fx.close = append(fx.close, c.conn)
		}

	case Closed:
		if ev.gen != c.gen {
			return fx
		}
		stopTimer(&c.pingTimer)
		fx.close = append(fx.close, c.releaseConn()...)

		if !c.enabled {
			c.state = Disconnected
			return fx
		}
		c.state = ReconnectPending
		c.armReconnect()
		log.Info("notification socket closed, reconnect scheduled",
			"delay", durationOr(c.ReconnectDelay, DefaultReconnectDelay),
			"error", ev.Err,
		)

	case pingDue:
		if ev.gen != c.gen || c.state != Open || c.conn == nil {
			return fx
		}
		fx.ping = c.conn
		c.armPing()

	case reconnectDue:
		if ev.gen != c.gen || !c.enabled {
			return fx
		}
		c.reconnectTimer = nil
		return c.connectLocked()

	case dismissDue:
		if t, ok := c.dismissTimers[ev.id]; ok {
			t.Stop()
			delete(c.dismissTimers, ev.id)
		}
		i := slices.IndexFunc(c.items, func(n Notification) bool { return n.ID == ev.id })
		if i < 0 {
			return fx
		}
		c.items = slices.Delete(c.items, i, i+1)
		fx.publish(c)
	}

	return fx
}

// connectLocked drops the current socket and starts a new dial.
func (c *Channel) connectLocked() effects {
	var fx effects

	stopTimer(&c.reconnectTimer)
	stopTimer(&c.pingTimer)
	fx.close = c.releaseConn()

	c.gen++
	c.state = Connecting

	url, err := URL(c.APIBase, c.token)
	if err != nil {
		c.logger().Error("cannot build notification socket url", "error", err)
		c.state = Disconnected
		return fx
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	fx.dial = &dialJob{ctx: ctx, url: url, gen: c.gen}
	return fx
}

// teardownLocked cancels, in order, the reconnect timer, the keep-alive
// timer, every dismiss timer, and the socket.
func (c *Channel) teardownLocked() effects {
	var fx effects

	stopTimer(&c.reconnectTimer)
	stopTimer(&c.pingTimer)
	for id, t := range c.dismissTimers {
		t.Stop()
		delete(c.dismissTimers, id)
	}
	fx.close = c.releaseConn()

	c.gen++
	c.state = Disconnected

	if len(c.items) > 0 {
		c.items = nil
		fx.publish(c)
	}
	return fx
}

// releaseConn cancels any in-flight dial and detaches the socket. The
// returned conns must be closed by the caller.
func (c *Channel) releaseConn() []Conn {
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	return []Conn{conn}
}

func (c *Channel) armPing() {
	g := c.gen
	c.pingTimer = c.clock().AfterFunc(durationOr(c.PingInterval, DefaultPingInterval), func() {
		c.dispatch(pingDue{gen: g})
	})
}

func (c *Channel) armReconnect() {
	g := c.gen
	c.reconnectTimer = c.clock().AfterFunc(durationOr(c.ReconnectDelay, DefaultReconnectDelay), func() {
		c.dispatch(reconnectDue{gen: g})
	})
}

func (c *Channel) armDismiss(id string) {
	if c.dismissTimers == nil {
		c.dismissTimers = make(map[string]Timer)
	}
	c.dismissTimers[id] = c.clock().AfterFunc(durationOr(c.DisplayDuration, DefaultDisplayDuration), func() {
		c.dispatch(dismissDue{id: id})
	})
}

// uniqueID suffixes id when a visible notification already uses it, which
// only happens when two frames share a receipt timestamp.
func (c *Channel) uniqueID(id string) string {
	taken := func(candidate string) bool {
		return slices.ContainsFunc(c.items, func(n Notification) bool { return n.ID == candidate })
	}
	if !taken(id) {
		return id
	}
	for i := 2; ; i++ {
		candidate := id + "-" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (fx *effects) publish(c *Channel) {
	fx.snapshot = slices.Clone(c.items)
	fx.notify = fx.notify[:0]
	for _, fn := range c.subs {
		fx.notify = append(fx.notify, fn)
	}
}

func (fx effects) run(c *Channel) {
	for _, conn := range fx.close {
		if err := conn.Close(); err != nil {
			c.logger().Debug("closing notification socket", "error", err)
		}
	}

	if fx.ping != nil {
		if err := fx.ping.WriteText(pingFrame); err != nil {
			c.logger().Warn("keep-alive ping failed", "error", err)
		}
	}

	if fx.dial != nil {
		go c.runSocket(fx.dial)
	}

	for _, fn := range fx.notify {
		fn(slices.Clone(fx.snapshot))
	}
}

// runSocket dials and then feeds every frame into the state machine until
// the socket fails.
func (c *Channel) runSocket(job *dialJob) {
	dialer := c.Dialer
	if dialer == nil {
		dialer = NewWebSocketDialer()
	}

	conn, err := dialer.Dial(job.ctx, job.url)
	if err != nil {
		c.dispatch(Errored{Err: err, gen: job.gen})
		c.dispatch(Closed{Err: err, gen: job.gen})
		return
	}

	c.dispatch(Opened{Conn: conn, gen: job.gen})

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			c.dispatch(Closed{Err: err, gen: job.gen})
			return
		}
		c.dispatch(Message{Payload: msg, gen: job.gen})
	}
}
