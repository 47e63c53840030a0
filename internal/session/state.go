// Package session holds a student's in-progress answers keyed by visible question
// number, drives part/question navigation, and builds the UUID-keyed payload the
// LMS expects when a draft is saved or the exam is submitted.
package session

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/resolver"
)

var (
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrNothingToSave    = errors.New("session has no answers to save")
)

// AnswersResult is the outgoing payload plus the question numbers that could not be mapped to an id.
type AnswersResult struct {
	Answers    models.AnswersObject `json:"answers"`
	Unresolved []int                `json:"unresolved"`
}

// State is not safe for concurrent use.
type State struct {
	Answers              map[int]string
	CurrentQuestionIndex int
	ActivePartIndex      int
	LastTouchedQuestion  int
	Status               models.SessionStatus

	total int
	parts []models.PartSummary
	// questionIDs maps every number covered by a normalized question to its LMS id.
	questionIDs map[int]string
}

// New builds the state for a normalized task.
func New(task *models.NormalizedTask) *State {
	s := &State{}
	s.load(task)
	s.Reset()
	return s
}

func (s *State) load(task *models.NormalizedTask) {
	s.parts = nil
	s.total = 0
	s.questionIDs = make(map[int]string)
	if task == nil {
		return
	}
	s.total = len(task.AllQuestions)

	for _, q := range task.AllQuestions {
		if q.Generated {
			continue
		}
		for _, n := range q.Numbers() {
			if _, taken := s.questionIDs[n]; !taken {
				s.questionIDs[n] = q.ID
			}
		}
	}

	start := 0
	for _, section := range task.Sections {
		summary := models.PartSummary{
			PartNumber:    section.PartNumber,
			SectionID:     section.ID,
			StartIndex:    start,
			QuestionCount: len(section.Questions),
		}
		if len(section.Questions) > 0 {
			summary.FirstQuestionNumber = section.Questions[0].Number
		}
		s.parts = append(s.parts, summary)
		start += len(section.Questions)
	}
}

// Reload swaps the underlying task (another mock of the same task) and resets the session.
func (s *State) Reload(task *models.NormalizedTask) {
	s.load(task)
	s.Reset()
}

// Reset clears answers, navigation and status.
func (s *State) Reset() {
	s.Answers = make(map[int]string)
	s.CurrentQuestionIndex = 0
	s.ActivePartIndex = 0
	s.LastTouchedQuestion = 0
	s.Status = models.SessionNotStarted
}

func (s *State) TotalQuestions() int { return s.total }

// PartSummaries returns a copy of the per-part navigation summaries.
func (s *State) PartSummaries() []models.PartSummary {
	out := make([]models.PartSummary, len(s.parts))
	copy(out, s.parts)
	return out
}

// Start moves a fresh session to IN_PROGRESS.
func (s *State) Start() error {
	switch s.Status {
	case models.SessionSubmitted:
		return ErrAlreadySubmitted
	case models.SessionNotStarted:
		s.Status = models.SessionInProgress
	}
	return nil
}

func (s *State) HandleAnswerChange(questionNumber int, value string) error {
	if s.Status == models.SessionSubmitted {
		return ErrAlreadySubmitted
	}
	s.Answers[questionNumber] = value
	s.LastTouchedQuestion = questionNumber
	s.Status = models.SessionInProgress
	return nil
}

func (s *State) HandleNextQuestion() bool {
	return s.HandleSelectQuestion(s.CurrentQuestionIndex + 1)
}

func (s *State) HandlePreviousQuestion() bool {
	return s.HandleSelectQuestion(s.CurrentQuestionIndex - 1)
}

// HandleSelectQuestion jumps to index; out-of-range indexes leave the state untouched.
func (s *State) HandleSelectQuestion(index int) bool {
	if index < 0 || index >= s.total {
		return false
	}
	s.CurrentQuestionIndex = index
	s.ActivePartIndex = s.partOf(index)
	return true
}

// HandleSelectPart jumps to the first question of a part.
func (s *State) HandleSelectPart(partIndex int) bool {
	if partIndex < 0 || partIndex >= len(s.parts) {
		return false
	}
	s.ActivePartIndex = partIndex
	if s.parts[partIndex].QuestionCount > 0 {
		s.CurrentQuestionIndex = s.parts[partIndex].StartIndex
	}
	return true
}

func (s *State) partOf(index int) int {
	for i := len(s.parts) - 1; i >= 0; i-- {
		p := s.parts[i]
		if p.QuestionCount > 0 && index >= p.StartIndex {
			return i
		}
	}
	return 0
}

// HasAnswers reports whether at least one answer is non-blank.
func (s *State) HasAnswers() bool {
	for _, v := range s.Answers {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func (s *State) MarkDraftSaved() error {
	switch s.Status {
	case models.SessionSubmitted:
		return ErrAlreadySubmitted
	case models.SessionNotStarted:
		if !s.HasAnswers() {
			return ErrNothingToSave
		}
	}
	s.Status = models.SessionDraftSaved
	return nil
}

// MarkSubmitted is one-way.
func (s *State) MarkSubmitted() error {
	if s.Status == models.SessionSubmitted {
		return ErrAlreadySubmitted
	}
	s.Status = models.SessionSubmitted
	return nil
}

// BuildAnswersObject translates local answers into the id-keyed payload.
// Writing mocks map task_number to task id directly; listening, reading and quiz
// content go through the resolver, and answers whose number cannot be resolved are reported.
func (s *State) BuildAnswersObject(mockType models.MockType, mock any) AnswersResult {
	result := AnswersResult{
		Answers:    make(models.AnswersObject),
		Unresolved: []int{},
	}

	lookup := s.Lookup(mockType, mock)
	for _, number := range s.answeredNumbers() {
		id, ok := lookup(number)
		if !ok {
			result.Unresolved = append(result.Unresolved, number)
			continue
		}
		result.Answers[id] = s.Answers[number]
	}
	return result
}

// KeyLookup returns the number-to-id mapping used for mockType.
func KeyLookup(mockType models.MockType, mock any) func(int) (string, bool) {
	if mockType == models.MockTypeWriting {
		return writingTaskIDs(mock)
	}
	return resolver.Resolve(mock).Lookup
}

// Lookup resolves a number through the mock first, then through the id of the
// normalized question covering it. Locally generated ids are never sent.
func (s *State) Lookup(mockType models.MockType, mock any) func(int) (string, bool) {
	primary := KeyLookup(mockType, mock)
	return func(n int) (string, bool) {
		if id, ok := primary(n); ok {
			return id, true
		}
		id, ok := s.questionIDs[n]
		return id, ok
	}
}

// answeredNumbers returns the numbers with non-blank answers, ascending.
func (s *State) answeredNumbers() []int {
	numbers := make([]int, 0, len(s.Answers))
	for n, v := range s.Answers {
		if strings.TrimSpace(v) == "" {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

func writingTaskIDs(mock any) func(int) (string, bool) {
	ids := make(map[int]string)
	obj, _ := mock.(map[string]any)
	tasks, _ := obj["tasks"].([]any)
	for _, t := range tasks {
		task, ok := t.(map[string]any)
		if !ok {
			continue
		}
		number, ok := intValue(task["task_number"])
		if !ok {
			continue
		}
		id := stringValue(task["id"])
		if id == "" {
			continue
		}
		if _, exists := ids[number]; !exists {
			ids[number] = id
		}
	}
	return func(n int) (string, bool) {
		id, ok := ids[n]
		return id, ok
	}
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatInt(int64(t), 10)
	}
	return ""
}
