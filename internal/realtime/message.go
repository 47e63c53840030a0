package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
)

// Inbound message types.
const (
	TypeMessageHistory   = "message_history"
	TypeMessageUpdate    = "message_update"
	TypeExamStatus       = "exam_status"
	TypeExamStatusUpdate = "exam_status_update"
	TypeTimerSync        = "timer_sync"
	TypeStudentJoined    = "student_joined"
	TypeStudentLeft      = "student_left"
	TypeActiveStudents   = "active_students"
	TypePing             = "ping"
	TypePong             = "pong"
	TypeError            = "error"
)

var ErrMissingType = errors.New("message has no type")

// Message is an inbound frame: the discriminator plus the undecoded body.
type Message struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

func ParseMessage(data []byte) (Message, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Message{}, fmt.Errorf("invalid frame: %w", err)
	}
	t := strings.TrimSpace(envelope.Type)
	if t == "" {
		return Message{}, ErrMissingType
	}
	return Message{Type: t, Raw: append(json.RawMessage(nil), data...)}, nil
}

func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Raw, v)
}

type UserRef struct {
	ID       models.FlexID `json:"id"`
	FullName string        `json:"full_name,omitempty"`
	Role     string        `json:"role,omitempty"`
}

type ChatMessage struct {
	ID        models.FlexID `json:"id"`
	Sender    UserRef       `json:"sender"`
	Message   string        `json:"message"`
	ReplyTo   *ChatMessage  `json:"reply_to,omitempty"`
	CreatedAt string        `json:"created_at,omitempty"`
	IsEdited  bool          `json:"is_edited,omitempty"`
}

type MessageHistory struct {
	Messages []ChatMessage `json:"messages"`
}

type MessageUpdate struct {
	Message ChatMessage `json:"message"`
}

type ExamStatus struct {
	Status           string         `json:"status"`
	RemainingSeconds models.FlexInt `json:"remaining_seconds"`
	StartedAt        string         `json:"started_at,omitempty"`
	EndsAt           string         `json:"ends_at,omitempty"`
}

type TimerSync struct {
	RemainingSeconds models.FlexInt `json:"remaining_seconds"`
	ServerTime       string         `json:"server_time,omitempty"`
}

type StudentEvent struct {
	Student UserRef `json:"student"`
}

type ActiveStudents struct {
	Students []UserRef `json:"students"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// Outbound frames.

type commandFrame struct {
	Command string `json:"command"`
}

type typeFrame struct {
	Type string `json:"type"`
}

type chatFrame struct {
	Message   string `json:"message"`
	ReplyToID *int64 `json:"reply_to_id,omitempty"`
}
