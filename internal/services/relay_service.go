package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/realtime"
)

const (
	RelayChat       = "chat"
	RelayExamStatus = "exam_status"

	connectionStateType = "connection_state"
)

// RelayService shares one upstream socket per (channel, user) between all of that
// user's downstream connections and fans upstream frames out through a Hub.
type RelayService interface {
	JoinChat(token, userID, room string, sub realtime.Subscriber) (leave func())
	JoinExamStatus(token, userID, taskID string, sub realtime.Subscriber) (leave func())
	SendChat(ctx context.Context, userID, room, text string, replyToID *int64) error
	RequestStatus(userID, taskID string) error
	ExamStatus(userID, taskID string) (realtime.ExamStatusSnapshot, bool)
	Close()
}

type RelayConfig struct {
	WSBaseURL    string
	PingInterval time.Duration
	PongTimeout  time.Duration
	ChatBackoff  realtime.Backoff
	ExamBackoff  realtime.Backoff
	ChatRate     float64
	ChatBurst    int
}

// connectionFrame tells downstream clients what the upstream socket is doing.
type connectionFrame struct {
	Type   string `json:"type"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

type relay struct {
	cancel context.CancelFunc
	done   chan struct{}
	chat   *realtime.ChatClient
	exam   *realtime.ExamStatusClient
	refs   int
}

type relayService struct {
	cfg    RelayConfig
	hub    *realtime.Hub
	logger *slog.Logger

	mu     sync.Mutex
	relays map[string]*relay
}

func NewRelayService(cfg RelayConfig, hub *realtime.Hub, logger *slog.Logger) RelayService {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = realtime.NewHub(logger)
	}
	return &relayService{
		cfg:    cfg,
		hub:    hub,
		logger: logger,
		relays: make(map[string]*relay),
	}
}

func relayKey(kind, id, userID string) string {
	return kind + ":" + id + ":" + userID
}

func (s *relayService) JoinChat(token, userID, room string, sub realtime.Subscriber) func() {
	key := relayKey(RelayChat, room, userID)
	return s.join(key, sub, func(ctx context.Context) *relay {
		client := realtime.NewChatClient(realtime.ChatOptions{
			URL:           s.socketURL("/chat/"+url.PathEscape(room)+"/", token),
			Header:        authHeader(token),
			Backoff:       s.cfg.ChatBackoff,
			PingInterval:  s.cfg.PingInterval,
			PongTimeout:   s.cfg.PongTimeout,
			RatePerSecond: s.cfg.ChatRate,
			Burst:         s.cfg.ChatBurst,
			Logger:        s.logger.With("relay", key),
			OnMessage:     func(m realtime.Message) { s.hub.BroadcastRaw(key, m.Raw) },
			OnStateChange: s.stateNotifier(key),
		})
		r := &relay{chat: client}
		s.run(ctx, key, r, client.Run)
		return r
	})
}

func (s *relayService) JoinExamStatus(token, userID, taskID string, sub realtime.Subscriber) func() {
	key := relayKey(RelayExamStatus, taskID, userID)
	return s.join(key, sub, func(ctx context.Context) *relay {
		client := realtime.NewExamStatusClient(realtime.ExamStatusOptions{
			URL:           s.socketURL("/exams/"+url.PathEscape(taskID)+"/status/", token),
			Header:        authHeader(token),
			Backoff:       s.cfg.ExamBackoff,
			PingInterval:  s.cfg.PingInterval,
			PongTimeout:   s.cfg.PongTimeout,
			Logger:        s.logger.With("relay", key),
			OnMessage:     func(m realtime.Message) { s.hub.BroadcastRaw(key, m.Raw) },
			OnStateChange: s.stateNotifier(key),
		})
		r := &relay{exam: client}
		s.run(ctx, key, r, client.Run)
		return r
	})
}

func (s *relayService) SendChat(ctx context.Context, userID, room, text string, replyToID *int64) error {
	r := s.lookup(relayKey(RelayChat, room, userID))
	if r == nil || r.chat == nil {
		return ErrRelayNotFound
	}
	return r.chat.Send(ctx, text, replyToID)
}

func (s *relayService) RequestStatus(userID, taskID string) error {
	r := s.lookup(relayKey(RelayExamStatus, taskID, userID))
	if r == nil || r.exam == nil {
		return ErrRelayNotFound
	}
	return r.exam.RequestStatus()
}

func (s *relayService) ExamStatus(userID, taskID string) (realtime.ExamStatusSnapshot, bool) {
	r := s.lookup(relayKey(RelayExamStatus, taskID, userID))
	if r == nil || r.exam == nil {
		return realtime.ExamStatusSnapshot{}, false
	}
	return r.exam.Snapshot(), true
}

// Close stops every upstream socket and waits for them to finish.
func (s *relayService) Close() {
	s.mu.Lock()
	relays := make([]*relay, 0, len(s.relays))
	for key, r := range s.relays {
		relays = append(relays, r)
		delete(s.relays, key)
	}
	s.mu.Unlock()

	for _, r := range relays {
		r.cancel()
	}
	for _, r := range relays {
		<-r.done
	}
}

func (s *relayService) join(key string, sub realtime.Subscriber, start func(ctx context.Context) *relay) func() {
	s.hub.Add(key, sub)

	s.mu.Lock()
	r, ok := s.relays[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		r = start(ctx)
		r.cancel = cancel
		s.relays[key] = r
	}
	r.refs++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.leave(key, r, sub) })
	}
}

func (s *relayService) leave(key string, r *relay, sub realtime.Subscriber) {
	s.hub.Remove(key, sub)

	s.mu.Lock()
	r.refs--
	stop := r.refs <= 0 && s.relays[key] == r
	if stop {
		delete(s.relays, key)
	}
	s.mu.Unlock()

	if stop {
		r.cancel()
	}
}

// run starts the upstream loop; a relay that ends on its own is dropped so the
// next join dials again.
func (s *relayService) run(ctx context.Context, key string, r *relay, loop func(context.Context) error) {
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		err := loop(ctx)
		if err != nil {
			reason := "error"
			switch {
			case errors.Is(err, realtime.ErrUnauthorized):
				reason = "unauthorized"
			case errors.Is(err, realtime.ErrRetriesExhausted):
				reason = "retries_exhausted"
			}
			s.logger.Warn("Relay stopped", "relay", key, "reason", reason, "error", err)
			s.hub.Broadcast(key, connectionFrame{Type: connectionStateType, State: realtime.StateFailed.String(), Reason: reason})
		}

		s.mu.Lock()
		if s.relays[key] == r {
			delete(s.relays, key)
		}
		s.mu.Unlock()
	}()
}

func (s *relayService) stateNotifier(key string) func(realtime.State) {
	return func(st realtime.State) {
		// FAILED is announced with its reason once the loop returns
		if st == realtime.StateFailed {
			return
		}
		s.hub.Broadcast(key, connectionFrame{Type: connectionStateType, State: st.String()})
	}
}

func (s *relayService) lookup(key string) *relay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relays[key]
}

func (s *relayService) socketURL(path, token string) string {
	u := s.cfg.WSBaseURL + path
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
