package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/cache"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/events"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/metrics"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/normalizer"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/repositories"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/resolver"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/session"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/upstream"
)

// UpstreamAPI is the part of the LMS REST client the session service needs
type UpstreamAPI interface {
	GetTask(ctx context.Context, token, taskID string) (json.RawMessage, error)
	GetMock(ctx context.Context, token, mockID string) (json.RawMessage, error)
	CreateSubmission(ctx context.Context, token string, req upstream.SubmissionRequest) (*models.Submission, error)
	SubmitAnswers(ctx context.Context, token, submissionID string, answers models.AnswersObject) (*models.Submission, error)
	SaveDraft(ctx context.Context, token, submissionID string, answers models.AnswersObject) (*models.Submission, error)
}

type SessionService interface {
	Start(ctx context.Context, token, studentID string, req *models.StartSessionRequest) (*SessionView, error)
	Get(ctx context.Context, token, studentID, sessionID string) (*SessionView, error)
	Answer(ctx context.Context, token, studentID, sessionID string, answers []models.AnswerRequest) (*SessionView, error)
	Navigate(ctx context.Context, token, studentID, sessionID string, req *models.NavigateRequest) (*NavigateResult, error)
	SwitchMock(ctx context.Context, token, studentID, sessionID string, req *models.SwitchMockRequest) (*SessionView, error)
	SaveDraft(ctx context.Context, token, studentID, sessionID string) (*SaveResult, error)
	Submit(ctx context.Context, token, studentID, sessionID string, allowPartial bool) (*SaveResult, error)
	ListByStudent(ctx context.Context, studentID string, filters repositories.SessionFilters) ([]*models.ExamSession, int64, error)
	AnswerSheet(ctx context.Context, token, studentID, sessionID string) (*AnswerSheet, error)
}

// ===== RESPONSE TYPES =====

type SessionView struct {
	Session         *models.ExamSession        `json:"session"`
	Answers         map[int]string             `json:"answers"`
	AnsweredCount   int                        `json:"answered_count"`
	TotalQuestions  int                        `json:"total_questions"`
	Parts           []models.PartSummary       `json:"parts"`
	CurrentQuestion *models.NormalizedQuestion `json:"current_question,omitempty"`
	Task            *models.NormalizedTask     `json:"task,omitempty"`
}

type NavigateResult struct {
	Moved bool `json:"moved"`
	*SessionView
}

type SaveResult struct {
	SubmissionID string             `json:"submission_id"`
	Sent         int                `json:"sent"`
	Unresolved   []int              `json:"unresolved"`
	Submission   *models.Submission `json:"submission,omitempty"`
	View         *SessionView       `json:"view"`
}

type AnswerSheet struct {
	SessionID string           `json:"session_id"`
	TaskID    string           `json:"task_id"`
	MockID    string           `json:"mock_id"`
	MockType  models.MockType  `json:"mock_type"`
	StudentID string           `json:"student_id"`
	Status    string           `json:"status"`
	Rows      []AnswerSheetRow `json:"rows"`
}

type AnswerSheetRow struct {
	Number       int    `json:"number"`
	QuestionID   string `json:"question_id"`
	PartNumber   int    `json:"part_number"`
	QuestionType string `json:"question_type"`
	Answer       string `json:"answer"`
	Resolved     bool   `json:"resolved"`
}

// ===== IMPLEMENTATION =====

// liveSession pairs the persisted record with its in-memory state; mu serializes
// every operation on one session.
type liveSession struct {
	mu     sync.Mutex
	record *models.ExamSession
	state  *session.State
	task   *models.NormalizedTask
	// source is the decoded mock (or quiz task) the resolver walks
	source any

	lastUsed time.Time
	// evicted is set once the session has left the live map; holders of a
	// stale pointer must look it up again.
	evicted bool
}

// examContent is a task narrowed to the mock a session works on
type examContent struct {
	taskType   models.TaskType
	mockID     string
	mockType   models.MockType
	normalized *models.NormalizedTask
	source     any
}

type sessionService struct {
	api       UpstreamAPI
	repo      repositories.SessionRepository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *ServiceLogger
	cacheTTL  time.Duration
	now       func() time.Time

	idleTTL time.Duration

	mu        sync.Mutex
	sessions  map[string]*liveSession
	lastSweep time.Time
}

const (
	// sessionIdleTTL drops a live session nobody touched for this long; it is
	// rebuilt from the repository on the next request.
	sessionIdleTTL = 2 * time.Hour
	sweepInterval  = time.Minute
)

func NewSessionService(api UpstreamAPI, repo repositories.SessionRepository, cacheService cache.CacheService, publisher events.EventPublisher, logger *slog.Logger, cacheTTL time.Duration) SessionService {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	return &sessionService{
		api:       api,
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "exam-session-gateway", Component: "session"}),
		cacheTTL:  cacheTTL,
		now:       time.Now,
		idleTTL:   sessionIdleTTL,
		sessions:  make(map[string]*liveSession),
	}
}

func (s *sessionService) Start(ctx context.Context, token, studentID string, req *models.StartSessionRequest) (view *SessionView, err error) {
	op := s.logger.WithOperation(ctx, "start_session", studentID)
	defer func() { op.LogResult(req.TaskID, "task", err) }()

	content, err := s.loadContent(ctx, token, studentID, req.TaskID, req.MockID, req.MockType)
	if err != nil {
		return nil, err
	}

	sub, err := s.api.CreateSubmission(ctx, token, upstream.SubmissionRequest{Task: req.TaskID, Mock: content.mockID})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	record := &models.ExamSession{
		ID:           uuid.NewString(),
		TaskID:       req.TaskID,
		MockID:       content.mockID,
		SubmissionID: sub.ID.String(),
		StudentID:    studentID,
		TaskType:     content.taskType,
		MockType:     content.mockType,
		CreatedAt:    s.now(),
	}
	live := &liveSession{
		record: record,
		state:    session.New(content.normalized),
		task:     content.normalized,
		source:   content.source,
		lastUsed: s.now(),
	}
	if err := live.state.Snapshot(record); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.mu.Lock()
	s.sessions[record.ID] = live
	s.mu.Unlock()

	s.publish(ctx, events.EventSessionStarted, events.SessionStartedEvent{
		SessionID:    record.ID,
		TaskID:       record.TaskID,
		MockID:       record.MockID,
		SubmissionID: record.SubmissionID,
		StudentID:    studentID,
		TaskType:     string(record.TaskType),
		Questions:    live.state.TotalQuestions(),
	})

	return s.view(live), nil
}

func (s *sessionService) Get(ctx context.Context, token, studentID, sessionID string) (*SessionView, error) {
	live, err := s.acquire(ctx, token, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	defer live.mu.Unlock()
	return s.view(live), nil
}

func (s *sessionService) Answer(ctx context.Context, token, studentID, sessionID string, answers []models.AnswerRequest) (*SessionView, error) {
	live, err := s.acquire(ctx, token, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	defer live.mu.Unlock()

	for _, a := range answers {
		if err := live.state.HandleAnswerChange(a.QuestionNumber, a.Value); err != nil {
			return nil, translateStateError(err)
		}
	}
	if err := s.persist(ctx, live); err != nil {
		return nil, err
	}
	return s.view(live), nil
}

func (s *sessionService) Navigate(ctx context.Context, token, studentID, sessionID string, req *models.NavigateRequest) (*NavigateResult, error) {
	live, err := s.acquire(ctx, token, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	defer live.mu.Unlock()

	var moved bool
	switch req.Action {
	case models.NavigateNext:
		moved = live.state.HandleNextQuestion()
	case models.NavigatePrevious:
		moved = live.state.HandlePreviousQuestion()
	case models.NavigateSelect, models.NavigatePart:
		if req.Index == nil {
			return nil, NewValidationError("index", "is required for "+string(req.Action), nil)
		}
		if req.Action == models.NavigateSelect {
			moved = live.state.HandleSelectQuestion(*req.Index)
		} else {
			moved = live.state.HandleSelectPart(*req.Index)
		}
	default:
		return nil, NewValidationError("action", "is not a navigation action", req.Action)
	}

	if moved {
		if err := s.persist(ctx, live); err != nil {
			return nil, err
		}
	}
	return &NavigateResult{Moved: moved, SessionView: s.view(live)}, nil
}

// SwitchMock moves the session onto another mock of the same task with a fresh submission.
func (s *sessionService) SwitchMock(ctx context.Context, token, studentID, sessionID string, req *models.SwitchMockRequest) (view *SessionView, err error) {
	op := s.logger.WithOperation(ctx, "switch_mock", studentID)
	defer func() { op.LogResult(sessionID, "session", err) }()

	live, err := s.acquire(ctx, token, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	defer live.mu.Unlock()

	record := live.record
	if record.TaskType == models.TaskTypeQuiz {
		return nil, ErrMockNotInTask
	}
	if req.MockID == record.MockID {
		return s.view(live), nil
	}

	content, err := s.loadContent(ctx, token, record.StudentID, record.TaskID, req.MockID, req.MockType)
	if err != nil {
		return nil, err
	}
	sub, err := s.api.CreateSubmission(ctx, token, upstream.SubmissionRequest{Task: record.TaskID, Mock: content.mockID})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	from := record.MockID
	live.state.Reload(content.normalized)
	live.task = content.normalized
	live.source = content.source
	record.MockID = content.mockID
	record.MockType = content.mockType
	record.SubmissionID = sub.ID.String()
	record.DraftSavedAt = nil
	record.SubmittedAt = nil

	if err := s.persist(ctx, live); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventSessionMockSwitch, events.MockSwitchedEvent{
		SessionID:  record.ID,
		FromMockID: from,
		ToMockID:   record.MockID,
	})
	return s.view(live), nil
}

// SaveDraft sends whatever resolves; unresolved numbers are reported, not blocking.
func (s *sessionService) SaveDraft(ctx context.Context, token, studentID, sessionID string) (result *SaveResult, err error) {
	op := s.logger.WithOperation(ctx, "save_draft", studentID)
	defer func() { op.LogResult(sessionID, "session", err) }()

	live, err := s.acquire(ctx, token, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	defer live.mu.Unlock()

	previous := live.state.Status
	if err := live.state.MarkDraftSaved(); err != nil {
		return nil, translateStateError(err)
	}

	record := live.record
	answers := live.state.BuildAnswersObject(record.MockType, live.source)
	sub, err := s.api.SaveDraft(ctx, token, record.SubmissionID, answers.Answers)
	if err != nil {
		live.state.Status = previous
		metrics.Submissions.WithLabelValues("draft", "error").Inc()
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	now := s.now()
	record.DraftSavedAt = &now
	if err := s.persist(ctx, live); err != nil {
		return nil, err
	}
	metrics.Submissions.WithLabelValues("draft", "ok").Inc()
	s.reportUnresolved(ctx, record, answers.Unresolved, true)
	s.publish(ctx, events.EventDraftSaved, events.DraftSavedEvent{
		SessionID:    record.ID,
		SubmissionID: record.SubmissionID,
		StudentID:    studentID,
		Answered:     len(answers.Answers),
		SavedAt:      now,
	})

	return &SaveResult{
		SubmissionID: record.SubmissionID,
		Sent:         len(answers.Answers),
		Unresolved:   answers.Unresolved,
		Submission:   sub,
		View:         s.view(live),
	}, nil
}

// Submit fails with *UnresolvedAnswersError when some answers cannot be matched,
// unless allowPartial is set.
func (s *sessionService) Submit(ctx context.Context, token, studentID, sessionID string, allowPartial bool) (result *SaveResult, err error) {
	op := s.logger.WithOperation(ctx, "submit", studentID)
	defer func() { op.LogResult(sessionID, "session", err) }()

	live, err := s.acquire(ctx, token, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	defer live.mu.Unlock()

	if live.state.Status == models.SessionSubmitted {
		return nil, ErrSessionSubmitted
	}

	record := live.record
	answers := live.state.BuildAnswersObject(record.MockType, live.source)
	if len(answers.Unresolved) > 0 {
		s.reportUnresolved(ctx, record, answers.Unresolved, allowPartial)
		if !allowPartial {
			metrics.Submissions.WithLabelValues("submit", "unresolved").Inc()
			return nil, &UnresolvedAnswersError{SessionID: record.ID, Numbers: answers.Unresolved}
		}
	}

	sub, err := s.api.SubmitAnswers(ctx, token, record.SubmissionID, answers.Answers)
	if err != nil {
		metrics.Submissions.WithLabelValues("submit", "error").Inc()
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			s.publish(ctx, events.EventSubmissionRejected, events.SubmissionRejectedEvent{
				SessionID:    record.ID,
				SubmissionID: record.SubmissionID,
				StatusCode:   apiErr.StatusCode,
				Message:      apiErr.Message,
			})
		}
		return nil, fmt.Errorf("failed to submit answers: %w", err)
	}

	if err := live.state.MarkSubmitted(); err != nil {
		return nil, translateStateError(err)
	}
	now := s.now()
	record.SubmittedAt = &now
	if err := s.persist(ctx, live); err != nil {
		return nil, err
	}
	metrics.Submissions.WithLabelValues("submit", "ok").Inc()
	s.publish(ctx, events.EventSubmissionSent, events.SubmissionSentEvent{
		SessionID:    record.ID,
		SubmissionID: record.SubmissionID,
		StudentID:    studentID,
		Answered:     len(answers.Answers),
		Unresolved:   answers.Unresolved,
		SubmittedAt:  now,
	})

	view := s.view(live)
	live.evicted = true
	s.mu.Lock()
	delete(s.sessions, record.ID)
	s.mu.Unlock()

	return &SaveResult{
		SubmissionID: record.SubmissionID,
		Sent:         len(answers.Answers),
		Unresolved:   answers.Unresolved,
		Submission:   sub,
		View:         view,
	}, nil
}

func (s *sessionService) ListByStudent(ctx context.Context, studentID string, filters repositories.SessionFilters) ([]*models.ExamSession, int64, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	return s.repo.ListByStudent(ctx, studentID, filters)
}

// AnswerSheet lists every question number of the session with its answer and resolved id.
// Answers for numbers outside the task are appended at the end.
func (s *sessionService) AnswerSheet(ctx context.Context, token, studentID, sessionID string) (*AnswerSheet, error) {
	live, err := s.acquire(ctx, token, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	defer live.mu.Unlock()

	record := live.record
	lookup := live.state.Lookup(record.MockType, live.source)
	sheet := &AnswerSheet{
		SessionID: record.ID,
		TaskID:    record.TaskID,
		MockID:    record.MockID,
		MockType:  record.MockType,
		StudentID: record.StudentID,
		Status:    string(live.state.Status),
	}

	seen := make(map[int]bool)
	for _, q := range live.task.AllQuestions {
		for _, n := range q.Numbers() {
			if seen[n] {
				continue
			}
			seen[n] = true
			id, ok := lookup(n)
			sheet.Rows = append(sheet.Rows, AnswerSheetRow{
				Number:       n,
				QuestionID:   id,
				PartNumber:   q.PartNumber,
				QuestionType: q.QuestionType,
				Answer:       live.state.Answers[n],
				Resolved:     ok,
			})
		}
	}

	var extra []int
	for n, v := range live.state.Answers {
		if !seen[n] && strings.TrimSpace(v) != "" {
			extra = append(extra, n)
		}
	}
	sort.Ints(extra)
	for _, n := range extra {
		id, ok := lookup(n)
		sheet.Rows = append(sheet.Rows, AnswerSheetRow{
			Number:     n,
			QuestionID: id,
			Answer:     live.state.Answers[n],
			Resolved:   ok,
		})
	}
	return sheet, nil
}

// ===== HELPERS =====

// acquire returns the live session locked for the caller, who must unlock it.
func (s *sessionService) acquire(ctx context.Context, token, studentID, sessionID string) (*liveSession, error) {
	for {
		live, err := s.lookup(ctx, token, studentID, sessionID)
		if err != nil {
			return nil, err
		}
		live.mu.Lock()
		if live.evicted {
			live.mu.Unlock()
			continue
		}
		live.lastUsed = s.now()
		return live, nil
	}
}

// lookup finds the live session, rebuilding it from the repository when the
// process has not seen it yet or has evicted it.
func (s *sessionService) lookup(ctx context.Context, token, studentID, sessionID string) (*liveSession, error) {
	s.mu.Lock()
	s.evictIdleLocked()
	live, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if ok {
		if live.record.StudentID != studentID {
			return nil, ErrSessionAccessDenied
		}
		return live, nil
	}

	record, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if record.StudentID != studentID {
		return nil, ErrSessionAccessDenied
	}

	content, err := s.loadContent(ctx, token, record.StudentID, record.TaskID, record.MockID, record.MockType)
	if err != nil {
		return nil, err
	}
	state := session.New(content.normalized)
	if err := state.Restore(record); err != nil {
		return nil, err
	}
	live = &liveSession{
		record:   record,
		state:    state,
		task:     content.normalized,
		source:   content.source,
		lastUsed: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		return existing, nil
	}
	if record.Status != models.SessionSubmitted {
		s.sessions[sessionID] = live
	}
	return live, nil
}

// evictIdle drops live sessions that have been idle longer than idleTTL.
// Their answers are already persisted, so eviction loses nothing.
func (s *sessionService) evictIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSweep = time.Time{}
	s.evictIdleLocked()
}

// evictIdleLocked sweeps at most once per sweepInterval. s.mu must be held.
// Sessions busy with a request are skipped.
func (s *sessionService) evictIdleLocked() {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now

	for id, live := range s.sessions {
		if !live.mu.TryLock() {
			continue
		}
		if now.Sub(live.lastUsed) >= s.idleTTL {
			live.evicted = true
			delete(s.sessions, id)
		}
		live.mu.Unlock()
	}
	metrics.LiveSessions.Set(float64(len(s.sessions)))
}

func (s *sessionService) loadContent(ctx context.Context, token, studentID, taskID, mockID string, hint models.MockType) (*examContent, error) {
	taskRaw, err := s.fetchCached(ctx, cache.TaskKey(studentID, taskID), func() (json.RawMessage, error) {
		return s.api.GetTask(ctx, token, taskID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task %s: %w", taskID, err)
	}

	var task models.Task
	if err := json.Unmarshal(taskRaw, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", taskID, err)
	}

	if task.TaskType == models.TaskTypeQuiz {
		source, err := resolver.Decode(taskRaw)
		if err != nil {
			return nil, err
		}
		return &examContent{
			taskType:   task.TaskType,
			normalized: normalizer.Normalize(&task),
			source:     quizSource(source),
		}, nil
	}

	if mockID == "" {
		if len(task.Mocks) == 0 {
			return nil, ErrMockRequired
		}
		mockID = task.Mocks[0].ID.String()
	}
	if len(task.Mocks) > 0 && !containsMock(task.Mocks, mockID) {
		return nil, ErrMockNotInTask
	}

	mockRaw, err := s.fetchCached(ctx, cache.MockKey(studentID, mockID), func() (json.RawMessage, error) {
		return s.api.GetMock(ctx, token, mockID)
	})
	if err != nil {
		embedded, ok := embeddedMock(taskRaw, mockID)
		if !ok {
			return nil, fmt.Errorf("failed to fetch mock %s: %w", mockID, err)
		}
		s.logger.Logger().Warn("Falling back to mock embedded in task",
			"task_id", taskID,
			"mock_id", mockID,
			"error", err)
		mockRaw = embedded
	}

	var mock models.Mock
	if err := json.Unmarshal(mockRaw, &mock); err != nil {
		return nil, fmt.Errorf("failed to decode mock %s: %w", mockID, err)
	}
	mock.MockType = models.MockType(strings.ToUpper(string(mock.MockType)))
	if mock.MockType == "" {
		mock.MockType = hint
	}
	source, err := resolver.Decode(mockRaw)
	if err != nil {
		return nil, err
	}

	return &examContent{
		taskType: task.TaskType,
		mockID:   mockID,
		mockType: mock.MockType,
		normalized: normalizer.Normalize(&models.Task{
			ID:       task.ID,
			Title:    task.Title,
			TaskType: task.TaskType,
			Mocks:    models.MockList{mock},
			Duration: task.Duration,
		}),
		source: source,
	}, nil
}

func (s *sessionService) fetchCached(ctx context.Context, key string, fetch func() (json.RawMessage, error)) (json.RawMessage, error) {
	var raw json.RawMessage
	err := s.cache.Get(ctx, key, &raw)
	if err == nil && len(raw) > 0 {
		return raw, nil
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Logger().Debug("Cache read failed", "key", key, "error", err)
	}

	raw, err = fetch()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Logger().Debug("Cache write failed", "key", key, "error", err)
	}
	return raw, nil
}

func (s *sessionService) persist(ctx context.Context, live *liveSession) error {
	if err := live.state.Snapshot(live.record); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, live.record); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *sessionService) reportUnresolved(ctx context.Context, record *models.ExamSession, numbers []int, partial bool) {
	if len(numbers) == 0 {
		return
	}
	metrics.UnresolvedAnswers.Add(float64(len(numbers)))
	s.logger.Logger().WarnContext(ctx, "Answers could not be resolved to question ids",
		"session_id", record.ID,
		"mock_id", record.MockID,
		"numbers", numbers,
		"partial", partial)
	s.publish(ctx, events.EventAnswersUnresolved, events.AnswersUnresolvedEvent{
		SessionID:    record.ID,
		SubmissionID: record.SubmissionID,
		Numbers:      numbers,
		Partial:      partial,
	})
}

func (s *sessionService) publish(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewExamEvent(eventType, data)); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to publish event", "event_type", eventType, "error", err)
	}
}

func (s *sessionService) view(live *liveSession) *SessionView {
	record := *live.record
	answers := make(map[int]string, len(live.state.Answers))
	answered := 0
	for n, v := range live.state.Answers {
		answers[n] = v
		if strings.TrimSpace(v) != "" {
			answered++
		}
	}

	view := &SessionView{
		Session:        &record,
		Answers:        answers,
		AnsweredCount:  answered,
		TotalQuestions: live.state.TotalQuestions(),
		Parts:          live.state.PartSummaries(),
		Task:           live.task,
	}
	record.Status = live.state.Status
	if idx := live.state.CurrentQuestionIndex; live.task != nil && idx >= 0 && idx < len(live.task.AllQuestions) {
		q := live.task.AllQuestions[idx]
		view.CurrentQuestion = &q
	}
	return view
}

func containsMock(mocks models.MockList, id string) bool {
	for _, m := range mocks {
		if m.ID.String() == id {
			return true
		}
	}
	return false
}

// embeddedMock finds the mock object with the given id inside the raw task.
func embeddedMock(taskRaw json.RawMessage, mockID string) (json.RawMessage, bool) {
	var task struct {
		Mocks []json.RawMessage `json:"mocks"`
	}
	if err := json.Unmarshal(taskRaw, &task); err != nil {
		return nil, false
	}
	for _, raw := range task.Mocks {
		var head struct {
			ID       models.FlexID   `json:"id"`
			Sections json.RawMessage `json:"sections"`
			Tasks    json.RawMessage `json:"tasks"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			continue
		}
		if head.ID.String() == mockID && (len(head.Sections) > 0 || len(head.Tasks) > 0) {
			return raw, true
		}
	}
	return nil, false
}

// quizSource narrows a quiz task to its questions so ids elsewhere in the task
// (the task's own id, its author) cannot be picked up by the resolver.
func quizSource(task any) any {
	obj, ok := task.(map[string]any)
	if !ok {
		return task
	}
	if content, ok := obj["custom_content"]; ok {
		return content
	}
	return task
}
