package models

import (
	"bytes"
	"encoding/json"
)

type TaskType string

const (
	TaskTypeQuiz         TaskType = "QUIZ"
	TaskTypeExamMock     TaskType = "EXAM_MOCK"
	TaskTypePracticeMock TaskType = "PRACTICE_MOCK"
	TaskTypeCustomMock   TaskType = "CUSTOM_MOCK"
)

type MockType string

const (
	MockTypeListening MockType = "LISTENING"
	MockTypeReading   MockType = "READING"
	MockTypeWriting   MockType = "WRITING"
)

// Task is an assignable unit (exam, practice, homework item, quiz) as returned by GET /tasks/{id}/.
type Task struct {
	ID            FlexID         `json:"id"`
	Title         string         `json:"title,omitempty"`
	TaskType      TaskType       `json:"task_type"`
	CustomContent *CustomContent `json:"custom_content,omitempty"`
	Mocks         MockList       `json:"mocks"`
	Duration      FlexInt        `json:"duration,omitempty"`
}

type CustomContent struct {
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	ID             FlexID          `json:"id"`
	QuestionNumber FlexInt         `json:"question_number"`
	QuestionType   string          `json:"question_type"`
	Text           string          `json:"text,omitempty"`
	Options        json.RawMessage `json:"options,omitempty"`
	CorrectAnswer  json.RawMessage `json:"correct_answer,omitempty"`
}

// MockList decodes leniently: a missing, null or non-array "mocks" value yields an empty list.
type MockList []Mock

func (l *MockList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*l = nil
		return nil
	}
	var mocks []Mock
	if err := json.Unmarshal(data, &mocks); err != nil {
		*l = nil
		return nil
	}
	*l = mocks
	return nil
}

// Mock is a stored listening/reading/writing test instance.
type Mock struct {
	ID       FlexID        `json:"id"`
	Title    string        `json:"title,omitempty"`
	MockType MockType      `json:"mock_type"`
	Sections []Section     `json:"sections,omitempty"`
	Tasks    []WritingTask `json:"tasks,omitempty"`
}

type Section struct {
	ID           FlexID     `json:"id"`
	PartNumber   FlexInt    `json:"part_number"`
	Instructions string     `json:"instructions,omitempty"`
	AudioFile    *string    `json:"audio_file,omitempty"`
	Images       []string   `json:"images,omitempty"`
	Questions    []Question `json:"questions"`
}

type Question struct {
	ID                  FlexID          `json:"id"`
	QuestionNumberStart FlexInt         `json:"question_number_start"`
	QuestionNumberEnd   FlexInt         `json:"question_number_end"`
	QuestionType        string          `json:"question_type"`
	Content             json.RawMessage `json:"content,omitempty"`
	CorrectAnswer       json.RawMessage `json:"correct_answer,omitempty"`
}

type WritingTask struct {
	ID         FlexID  `json:"id"`
	TaskNumber FlexInt `json:"task_number"`
	Prompt     string  `json:"prompt,omitempty"`
	MinWords   FlexInt `json:"min_words,omitempty"`
	Image      *string `json:"image,omitempty"`
}

// AnswersObject is the wire payload keyed by question UUID (or writing task id).
type AnswersObject map[string]string

// Submission mirrors the LMS submission resource.
type Submission struct {
	ID          FlexID        `json:"id"`
	Task        FlexID        `json:"task,omitempty"`
	Mock        FlexID        `json:"mock,omitempty"`
	Status      string        `json:"status,omitempty"`
	Answers     AnswersObject `json:"answers,omitempty"`
	SubmittedAt *string       `json:"submitted_at,omitempty"`
}

// UserProfile is the LMS account behind a bearer token (/users/me/).
type UserProfile struct {
	ID       FlexID `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}
