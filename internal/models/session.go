package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionNotStarted SessionStatus = "NOT_STARTED"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionDraftSaved SessionStatus = "DRAFT_SAVED"
	SessionSubmitted  SessionStatus = "SUBMITTED"
)

// ExamSession is the persisted state of one student's work on one mock of a task.
type ExamSession struct {
	ID           string        `json:"id" gorm:"primaryKey;size:36"`
	TaskID       string        `json:"task_id" gorm:"not null;size:64;index"`
	MockID       string        `json:"mock_id" gorm:"size:64"`
	SubmissionID string        `json:"submission_id" gorm:"size:64;index"`
	StudentID    string        `json:"student_id" gorm:"size:64;index"`
	TaskType     TaskType      `json:"task_type" gorm:"size:32"`
	MockType     MockType      `json:"mock_type" gorm:"size:32"`
	Status       SessionStatus `json:"status" gorm:"size:32;default:NOT_STARTED;index"`

	// Answers holds map[int]string keyed by visible question number.
	Answers              datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	CurrentQuestionIndex int            `json:"current_question_index"`
	ActivePartIndex      int            `json:"active_part_index"`
	LastTouchedQuestion  int            `json:"last_touched_question"`

	DraftSavedAt *time.Time `json:"draft_saved_at"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}

// PartSummary is used for jump navigation between parts.
type PartSummary struct {
	PartNumber          int    `json:"part_number"`
	SectionID           string `json:"section_id"`
	StartIndex          int    `json:"start_index"`
	FirstQuestionNumber int    `json:"first_question_number"`
	QuestionCount       int    `json:"question_count"`
}
