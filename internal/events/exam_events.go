package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the lifecycle events of an exam session
type EventType string

const (
	EventSessionStarted     EventType = "session.started"
	EventSessionMockSwitch  EventType = "session.mock_switched"
	EventDraftSaved         EventType = "session.draft_saved"
	EventSubmissionSent     EventType = "submission.submitted"
	EventAnswersUnresolved  EventType = "answers.unresolved"
	EventSubmissionRejected EventType = "submission.rejected"
)

const (
	eventSource  = "exam-session-gateway"
	eventVersion = "1.0"
)

// ExamEvent is the envelope for every event the gateway emits
type ExamEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func NewExamEvent(eventType EventType, data interface{}) *ExamEvent {
	return &ExamEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Event payloads

type SessionStartedEvent struct {
	SessionID    string `json:"session_id"`
	TaskID       string `json:"task_id"`
	MockID       string `json:"mock_id,omitempty"`
	SubmissionID string `json:"submission_id"`
	StudentID    string `json:"student_id"`
	TaskType     string `json:"task_type"`
	Questions    int    `json:"questions"`
}

type MockSwitchedEvent struct {
	SessionID  string `json:"session_id"`
	FromMockID string `json:"from_mock_id"`
	ToMockID   string `json:"to_mock_id"`
}

type DraftSavedEvent struct {
	SessionID    string    `json:"session_id"`
	SubmissionID string    `json:"submission_id"`
	StudentID    string    `json:"student_id"`
	Answered     int       `json:"answered"`
	SavedAt      time.Time `json:"saved_at"`
}

type SubmissionSentEvent struct {
	SessionID    string    `json:"session_id"`
	SubmissionID string    `json:"submission_id"`
	StudentID    string    `json:"student_id"`
	Answered     int       `json:"answered"`
	Unresolved   []int     `json:"unresolved,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type AnswersUnresolvedEvent struct {
	SessionID    string `json:"session_id"`
	SubmissionID string `json:"submission_id"`
	Numbers      []int  `json:"numbers"`
	Partial      bool   `json:"partial"`
}

type SubmissionRejectedEvent struct {
	SessionID    string `json:"session_id"`
	SubmissionID string `json:"submission_id"`
	StatusCode   int    `json:"status_code"`
	Message      string `json:"message"`
}
