package session

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
)

// Snapshot copies the mutable state into the persisted session record.
func (s *State) Snapshot(record *models.ExamSession) error {
	answers := make(map[string]string, len(s.Answers))
	for n, v := range s.Answers {
		answers[strconv.Itoa(n)] = v
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	record.Answers = raw
	record.CurrentQuestionIndex = s.CurrentQuestionIndex
	record.ActivePartIndex = s.ActivePartIndex
	record.LastTouchedQuestion = s.LastTouchedQuestion
	record.Status = s.Status
	return nil
}

// Restore loads a persisted record into the state. Navigation indexes outside the
// current task are clamped back to the first question.
func (s *State) Restore(record *models.ExamSession) error {
	s.Reset()
	if len(record.Answers) > 0 {
		var answers map[string]string
		if err := json.Unmarshal(record.Answers, &answers); err != nil {
			return fmt.Errorf("failed to decode answers: %w", err)
		}
		for k, v := range answers {
			n, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			s.Answers[n] = v
		}
	}

	if record.Status != "" {
		s.Status = record.Status
	}
	s.LastTouchedQuestion = record.LastTouchedQuestion
	if !s.HandleSelectQuestion(record.CurrentQuestionIndex) {
		s.CurrentQuestionIndex = 0
		s.ActivePartIndex = 0
	}
	return nil
}
