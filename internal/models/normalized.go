package models

import "encoding/json"

// MaxQuestionSpan caps how many numbers one question may cover.
const MaxQuestionSpan = 1000

// NormalizedTask is the single canonical shape every task/mock response is converted into.
type NormalizedTask struct {
	TaskType       TaskType             `json:"task_type"`
	Sections       []NormalizedSection  `json:"sections"`
	AllQuestions   []NormalizedQuestion `json:"all_questions"`
	TotalQuestions int                  `json:"total_questions"`
}

type NormalizedSection struct {
	ID           string               `json:"id"`
	MockID       string               `json:"mock_id,omitempty"`
	MockType     MockType             `json:"mock_type,omitempty"`
	PartNumber   int                  `json:"part_number"`
	Instructions string               `json:"instructions,omitempty"`
	AudioFile    *string              `json:"audio_file,omitempty"`
	Images       []string             `json:"images,omitempty"`
	Questions    []NormalizedQuestion `json:"questions"`
}

type NormalizedQuestion struct {
	ID           string          `json:"id"`
	Index        int             `json:"index"`
	Number       int             `json:"number"`
	NumberEnd    int             `json:"number_end"`
	QuestionType string          `json:"question_type,omitempty"`
	SectionID    string          `json:"section_id"`
	PartNumber   int             `json:"part_number"`
	Text         string          `json:"text,omitempty"`
	Content      json.RawMessage `json:"content,omitempty"`
	// Generated is set when the LMS sent no id and one was made up locally.
	Generated bool `json:"-"`
}

// Numbers returns every visible question number covered by the question.
func (q NormalizedQuestion) Numbers() []int {
	end := q.NumberEnd
	if end < q.Number {
		end = q.Number
	}
	if end-q.Number >= MaxQuestionSpan {
		end = q.Number + MaxQuestionSpan - 1
	}
	nums := make([]int, 0, end-q.Number+1)
	for n := q.Number; n <= end; n++ {
		nums = append(nums, n)
	}
	return nums
}
