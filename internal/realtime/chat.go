package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrEmptyMessage = errors.New("chat message is empty")

type ChatOptions struct {
	URL          string
	Header       http.Header
	Backoff      Backoff
	PingInterval time.Duration
	PongTimeout  time.Duration
	// RatePerSecond limits outgoing chat messages; zero disables limiting.
	RatePerSecond float64
	Burst         int
	Logger        *slog.Logger
	OnMessage     func(Message)
	OnStateChange func(State)
}

// ChatClient asks for history on every (re)connect and rate-limits outgoing messages.
type ChatClient struct {
	conn    *Conn
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewChatClient(opts ChatOptions) *ChatClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &ChatClient{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
	c.conn = NewConn(Options{
		URL:           opts.URL,
		Header:        opts.Header,
		Channel:       "chat",
		Backoff:       opts.Backoff,
		PingInterval:  opts.PingInterval,
		PongTimeout:   opts.PongTimeout,
		Logger:        logger,
		OnOpen:        c.onOpen,
		OnMessage:     opts.OnMessage,
		OnStateChange: opts.OnStateChange,
	})
	return c
}

func (c *ChatClient) onOpen() {
	if err := c.RequestHistory(); err != nil {
		c.logger.Warn("Failed to request chat history", "error", err)
	}
}

func (c *ChatClient) Run(ctx context.Context) error { return c.conn.Run(ctx) }

func (c *ChatClient) State() State { return c.conn.State() }

func (c *ChatClient) RequestHistory() error {
	return c.conn.Send(commandFrame{Command: "get_history"})
}

// Send waits for the rate limiter, then queues the message.
func (c *ChatClient) Send(ctx context.Context, text string, replyToID *int64) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if c.conn.State() != StateOpen {
		return ErrNotConnected
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.conn.Send(chatFrame{Message: text, ReplyToID: replyToID})
}
