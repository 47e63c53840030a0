package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func fastBackoff(maxRetries int) Backoff {
	return Backoff{Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2, MaxRetries: maxRetries}
}

func TestChatClientRequestsHistoryOnOpen(t *testing.T) {
	commands := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		var frame map[string]any
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}
		cmd, _ := frame["command"].(string)
		commands <- cmd

		ws.WriteJSON(map[string]any{
			"type": TypeMessageHistory,
			"messages": []map[string]any{
				{"id": 1, "message": "hello", "sender": map[string]any{"id": 7, "full_name": "Teacher"}},
			},
		})
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		ws.ReadMessage()
	}))
	defer server.Close()

	var mu sync.Mutex
	var received []Message
	client := NewChatClient(ChatOptions{
		URL:     wsURL(server),
		Backoff: fastBackoff(3),
		OnMessage: func(m Message) {
			mu.Lock()
			received = append(received, m)
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, client.State())
	assert.Equal(t, "get_history", <-commands)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, TypeMessageHistory, received[0].Type)

	var history MessageHistory
	require.NoError(t, received[0].Decode(&history))
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hello", history.Messages[0].Message)
	assert.Equal(t, "7", history.Messages[0].Sender.ID.String())
}

func TestConnGivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	var mu sync.Mutex
	var states []State
	conn := NewConn(Options{
		URL:     url,
		Channel: "test",
		Backoff: fastBackoff(2),
		OnStateChange: func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := conn.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.Equal(t, StateFailed, conn.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, StateFailed, states[len(states)-1])
	assert.Contains(t, states, StateReconnecting)
}

func TestConnHandshakeUnauthorizedIsFatal(t *testing.T) {
	attempts := 0
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	conn := NewConn(Options{URL: wsURL(server), Backoff: fastBackoff(5)})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := conn.Run(ctx)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, StateFailed, conn.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts)
}

func TestConnReconnectsAfterAbnormalDrop(t *testing.T) {
	var mu sync.Mutex
	connects := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		connects++
		n := connects
		mu.Unlock()

		if n == 1 {
			// drop without a close frame
			ws.Close()
			return
		}
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ws.ReadMessage()
		ws.Close()
	}))
	defer server.Close()

	conn := NewConn(Options{URL: wsURL(server), Backoff: fastBackoff(3)})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, conn.Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, connects)
}

func TestConnSendRequiresOpen(t *testing.T) {
	conn := NewConn(Options{URL: "ws://127.0.0.1:0"})
	assert.ErrorIs(t, conn.Send(typeFrame{Type: "x"}), ErrNotConnected)
}

func TestChatClientRejectsEmptyMessage(t *testing.T) {
	client := NewChatClient(ChatOptions{URL: "ws://127.0.0.1:0"})
	assert.ErrorIs(t, client.Send(context.Background(), "   ", nil), ErrEmptyMessage)
	assert.ErrorIs(t, client.Send(context.Background(), "hi", nil), ErrNotConnected)
}

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":" timer_sync ","remaining_seconds":"90"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeTimerSync, msg.Type)

	var ts TimerSync
	require.NoError(t, msg.Decode(&ts))
	assert.Equal(t, 90, ts.RemainingSeconds.Int())

	_, err = ParseMessage([]byte(`{"message":"no type"}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = ParseMessage([]byte(`not json`))
	assert.Error(t, err)
}

func TestExamStatusClientTracksState(t *testing.T) {
	client := NewExamStatusClient(ExamStatusOptions{URL: "ws://127.0.0.1:0"})
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	frames := []string{
		`{"type":"exam_status","status":"in_progress","remaining_seconds":600}`,
		`{"type":"active_students","students":[{"id":2,"full_name":"B"},{"id":1,"full_name":"A"}]}`,
		`{"type":"student_joined","student":{"id":"3","full_name":"C"}}`,
		`{"type":"student_left","student":{"id":2}}`,
		`{"type":"error","message":"exam paused"}`,
	}
	for _, f := range frames {
		msg, err := ParseMessage([]byte(f))
		require.NoError(t, err)
		client.handle(msg)
	}

	now = now.Add(30 * time.Second)
	snap := client.Snapshot()
	assert.Equal(t, "in_progress", snap.Status)
	assert.Equal(t, 570, snap.RemainingSeconds)
	assert.Equal(t, "exam paused", snap.LastError)
	assert.Equal(t, "CONNECTING", snap.Connection)
	require.Len(t, snap.ActiveStudents, 2)
	assert.Equal(t, "1", snap.ActiveStudents[0].ID.String())
	assert.Equal(t, "3", snap.ActiveStudents[1].ID.String())

	msg, err := ParseMessage([]byte(`{"type":"timer_sync","remaining_seconds":10}`))
	require.NoError(t, err)
	client.handle(msg)
	now = now.Add(time.Minute)
	assert.Equal(t, 0, client.Snapshot().RemainingSeconds)
}
