package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/metrics"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/realtime"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/services"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 64 << 10
)

// downstreamFrame is anything a browser may send on a relay socket.
type downstreamFrame struct {
	Type      string `json:"type,omitempty"`
	Command   string `json:"command,omitempty"`
	Message   string `json:"message,omitempty"`
	ReplyToID *int64 `json:"reply_to_id,omitempty"`
}

type statusSnapshotFrame struct {
	Type string `json:"type"`
	realtime.ExamStatusSnapshot
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// lockedConn serializes writes; gorilla allows one concurrent writer.
type lockedConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (l *lockedConn) WriteMessage(messageType int, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return l.ws.WriteMessage(messageType, data)
}

func (l *lockedConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return l.WriteMessage(websocket.TextMessage, data)
}

func (l *lockedConn) Close() error {
	return l.ws.Close()
}

type WSHandler struct {
	BaseHandler
	sessionService services.SessionService
	relayService   services.RelayService
	upgrader       websocket.Upgrader
}

// NewWSHandler accepts upgrades from allowedOrigins; "*" allows any origin.
func NewWSHandler(sessionService services.SessionService, relayService services.RelayService, allowedOrigins []string, logger utils.Logger) *WSHandler {
	return &WSHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		relayService:   relayService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// ExamStatus relays the exam status channel of the session's task
// @Summary Exam status relay
// @Tags websocket
// @Param id path string true "Session ID"
// @Router /ws/sessions/{id}/status [get]
func (h *WSHandler) ExamStatus(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := h.sessionService.Get(c.Request.Context(), token, userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	taskID := view.Session.TaskID

	conn, ok := h.upgrade(c)
	if !ok {
		return
	}
	leave := h.relayService.JoinExamStatus(token, userID, taskID, conn)
	defer leave()

	// later tabs join an already-synced relay
	if snapshot, ok := h.relayService.ExamStatus(userID, taskID); ok && snapshot.Status != "" {
		conn.writeJSON(statusSnapshotFrame{Type: "status_snapshot", ExamStatusSnapshot: snapshot})
	}

	h.serve(c, conn, realtime.TypeExamStatus, func(frame downstreamFrame) {
		if frame.Type != "request_status" {
			return
		}
		if err := h.relayService.RequestStatus(userID, taskID); err != nil {
			conn.writeJSON(errorFrame{Type: realtime.TypeError, Message: err.Error()})
		}
	})
}

// Chat relays a chat room
// @Summary Chat relay
// @Tags websocket
// @Param room path string true "Room name"
// @Router /ws/chat/{room} [get]
func (h *WSHandler) Chat(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	room := ParseStringIDParam(c, "room")
	if room == "" {
		return
	}

	conn, ok := h.upgrade(c)
	if !ok {
		return
	}
	leave := h.relayService.JoinChat(token, userID, room, conn)
	defer leave()

	h.serve(c, conn, "chat", func(frame downstreamFrame) {
		if frame.Message == "" {
			return
		}
		if err := h.relayService.SendChat(c.Request.Context(), userID, room, frame.Message, frame.ReplyToID); err != nil {
			conn.writeJSON(errorFrame{Type: realtime.TypeError, Message: err.Error()})
		}
	})
}

func (h *WSHandler) upgrade(c *gin.Context) (*lockedConn, bool) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.LogWarn(c, "WebSocket upgrade failed", "error", err)
		return nil, false
	}
	return &lockedConn{ws: ws}, true
}

// serve pings the browser and hands each decoded frame to handle until the socket closes.
func (h *WSHandler) serve(c *gin.Context, conn *lockedConn, channel string, handle func(downstreamFrame)) {
	ws := conn.ws
	ws.SetReadLimit(wsMaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.LogDebug(c, "Relay client dropped", "channel", channel, "error", err)
			}
			return
		}

		var frame downstreamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			conn.writeJSON(errorFrame{Type: realtime.TypeError, Message: "invalid frame"})
			continue
		}
		kind := frame.Type
		if kind == "" {
			kind = frame.Command
		}
		if kind == "" {
			kind = "message"
		}
		metrics.SocketMessages.WithLabelValues(channel, kind, "downstream").Inc()

		if frame.Type == realtime.TypePing {
			conn.writeJSON(map[string]string{"type": realtime.TypePong})
			continue
		}
		handle(frame)
	}
}
