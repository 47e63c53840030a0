// Package realtime contains the reconnecting WebSocket clients for the LMS chat
// and exam-status channels, and the hub that fans their frames out to gateway clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
	sendQueueSize  = 64

	// Application close codes the LMS uses for auth failures.
	closeUnauthorized = 4001
	closeForbidden    = 4003
)

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateReconnecting
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateReconnecting:
		return "RECONNECTING"
	case StateFailed:
		return "FAILED"
	case StateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

var (
	ErrNotConnected     = errors.New("socket is not connected")
	ErrSendQueueFull    = errors.New("socket send queue is full")
	ErrRetriesExhausted = errors.New("socket reconnect retries exhausted")
	ErrUnauthorized     = errors.New("socket rejected credentials")
)

type Options struct {
	URL     string
	Header  http.Header
	Channel string
	Dialer  *websocket.Dialer
	Backoff Backoff

	PingInterval time.Duration
	PongTimeout  time.Duration

	Logger        *slog.Logger
	OnOpen        func()
	OnMessage     func(Message)
	OnStateChange func(State)
}

// Conn keeps one upstream socket alive until its context ends, retries run out,
// or the server closes it normally.
type Conn struct {
	opts Options

	mu    sync.RWMutex
	state State

	send   chan []byte
	random func() float64
}

func NewConn(opts Options) *Conn {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Channel == "" {
		opts.Channel = "socket"
	}
	return &Conn{
		opts:   opts,
		state:  StateConnecting,
		send:   make(chan []byte, sendQueueSize),
		random: rand.Float64,
	}
}

func (c *Conn) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev == s {
		return
	}

	metrics.SocketState.WithLabelValues(c.opts.Channel, prev.String()).Dec()
	metrics.SocketState.WithLabelValues(c.opts.Channel, s.String()).Inc()
	c.opts.Logger.Debug("Socket state changed",
		"channel", c.opts.Channel,
		"from", prev.String(),
		"to", s.String())
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(s)
	}
}

// Send queues v as a JSON text frame on the open connection.
func (c *Conn) Send(v any) error {
	if c.State() != StateOpen {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Run blocks until ctx is cancelled (nil), the server closes normally (nil),
// credentials are rejected (ErrUnauthorized) or retries are exhausted (ErrRetriesExhausted).
func (c *Conn) Run(ctx context.Context) error {
	metrics.SocketState.WithLabelValues(c.opts.Channel, StateConnecting.String()).Inc()
	failures := 0

	for {
		ws, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, c.opts.Header)
		if err == nil {
			failures = 0
			c.setState(StateOpen)
			err = c.serve(ctx, ws)
		} else if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			err = fmt.Errorf("%w: handshake status %d", ErrUnauthorized, resp.StatusCode)
		}

		switch {
		case ctx.Err() != nil:
			c.setState(StateClosed)
			return nil
		case websocket.IsCloseError(err, websocket.CloseNormalClosure):
			c.setState(StateClosed)
			return nil
		case errors.Is(err, ErrUnauthorized), websocket.IsCloseError(err, closeUnauthorized, closeForbidden):
			c.setState(StateFailed)
			c.opts.Logger.Warn("Socket credentials rejected", "channel", c.opts.Channel, "error", err)
			if errors.Is(err, ErrUnauthorized) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}

		failures++
		if c.opts.Backoff.Exhausted(failures) {
			c.setState(StateFailed)
			c.opts.Logger.Error("Socket giving up",
				"channel", c.opts.Channel,
				"failures", failures,
				"error", err)
			return fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
		}

		c.setState(StateReconnecting)
		metrics.SocketReconnects.WithLabelValues(c.opts.Channel).Inc()
		delay := c.opts.Backoff.Delay(failures-1, c.random())
		c.opts.Logger.Warn("Socket disconnected, reconnecting",
			"channel", c.opts.Channel,
			"attempt", failures,
			"delay", delay.String(),
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(StateClosed)
			return nil
		case <-timer.C:
		}
	}
}

func (c *Conn) serve(ctx context.Context, ws *websocket.Conn) error {
	readWindow := c.opts.PingInterval + c.opts.PongTimeout
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(readWindow))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(ctx, ws, done)
	}()

	if c.opts.OnOpen != nil {
		c.opts.OnOpen()
	}

	var err error
	for {
		var data []byte
		_, data, err = ws.ReadMessage()
		if err != nil {
			break
		}
		// any frame, pong included, proves the peer is alive
		ws.SetReadDeadline(time.Now().Add(readWindow))

		msg, perr := ParseMessage(data)
		if perr != nil {
			c.opts.Logger.Debug("Dropping unparseable frame", "channel", c.opts.Channel, "error", perr)
			continue
		}
		metrics.SocketMessages.WithLabelValues(c.opts.Channel, msg.Type, "in").Inc()
		if msg.Type == TypePong {
			continue
		}
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(msg)
		}
	}

	close(done)
	ws.Close()
	wg.Wait()
	return err
}

func (c *Conn) writePump(ctx context.Context, ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	ping, _ := json.Marshal(typeFrame{Type: TypePing})

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			ws.Close()
			return
		case data := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.opts.Logger.Warn("Socket write failed", "channel", c.opts.Channel, "error", err)
				ws.Close()
				return
			}
			metrics.SocketMessages.WithLabelValues(c.opts.Channel, "frame", "out").Inc()
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, ping); err != nil {
				ws.Close()
				return
			}
			metrics.SocketMessages.WithLabelValues(c.opts.Channel, TypePing, "out").Inc()
		}
	}
}
