package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Subscriber is the downstream end of a relay, normally a *websocket.Conn.
type Subscriber interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans frames out to every subscriber of a channel (a session or a chat room).
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[Subscriber]struct{}
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		channels: make(map[string]map[Subscriber]struct{}),
		logger:   logger,
	}
}

func (h *Hub) Add(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[channel] == nil {
		h.channels[channel] = make(map[Subscriber]struct{})
	}
	h.channels[channel][sub] = struct{}{}
	h.logger.Debug("Relay subscriber added", "channel", channel, "total", len(h.channels[channel]))
}

// Remove drops sub and reports how many subscribers remain on the channel.
func (h *Hub) Remove(channel string, sub Subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		return 0
	}
	if _, ok := subs[sub]; ok {
		delete(subs, sub)
		sub.Close()
	}
	if len(subs) == 0 {
		delete(h.channels, channel)
		return 0
	}
	return len(subs)
}

func (h *Hub) Count(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

// BroadcastRaw writes data to every subscriber; failed subscribers are dropped.
// Writes happen under the hub lock, which also serializes writers per connection.
func (h *Hub) BroadcastRaw(channel string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	for sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("Relay write failed", "channel", channel, "error", err)
			sub.Close()
			delete(subs, sub)
		}
	}
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

func (h *Hub) Broadcast(channel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.BroadcastRaw(channel, data)
	return nil
}
