package handlers

import (
	"net/http"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/repositories"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/services"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/validator"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	exportService  services.ExportService
	validator      *validator.Validator
}

func NewSessionHandler(
	sessionService services.SessionService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		exportService:  exportService,
		validator:      validator,
	}
}

// StartSession opens an exam session on a task and creates its LMS submission
// @Summary Start session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body models.StartSessionRequest true "Task and optional mock"
// @Success 201 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.StartSessionRequest
	if !h.bind(c, &req) {
		return
	}

	h.LogRequest(c, "Starting session", "task_id", req.TaskID, "mock_id", req.MockID)

	view, err := h.sessionService.Start(c.Request.Context(), token, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// ListSessions lists the caller's sessions
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Param status query string false "NOT_STARTED, IN_PROGRESS, DRAFT_SAVED or SUBMITTED"
// @Param task_id query string false "Task ID"
// @Success 200 {object} ListResponse
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	filters := repositories.SessionFilters{
		TaskID:    c.Query("task_id"),
		Limit:     parseIntQuery(c, "limit", 20),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "updated_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if status := c.Query("status"); status != "" {
		s := models.SessionStatus(status)
		switch s {
		case models.SessionNotStarted, models.SessionInProgress, models.SessionDraftSaved, models.SessionSubmitted:
			filters.Status = &s
		default:
			h.RespondWithError(c, http.StatusBadRequest, "Invalid status filter", nil, status)
			return
		}
	}

	sessions, total, err := h.sessionService.ListByStudent(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	c.JSON(http.StatusOK, ListResponse{
		Items:  sessions,
		Total:  total,
		Limit:  limit,
		Offset: filters.Offset,
	})
}

// GetSession returns the session with its answers and current question
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
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

	c.JSON(http.StatusOK, view)
}

// UpdateAnswers records one or more answer changes
// @Summary Update answers
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param answers body models.AnswersBatchRequest true "Answers keyed by question number"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answers [put]
func (h *SessionHandler) UpdateAnswers(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req models.AnswersBatchRequest
	if !h.bind(c, &req) {
		return
	}

	view, err := h.sessionService.Answer(c.Request.Context(), token, userID, id, req.Answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Navigate moves between questions and parts
// @Summary Navigate
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param navigation body models.NavigateRequest true "next, previous, select or part"
// @Success 200 {object} services.NavigateResult
// @Router /sessions/{id}/navigate [post]
func (h *SessionHandler) Navigate(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req models.NavigateRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.sessionService.Navigate(c.Request.Context(), token, userID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SwitchMock resets the session onto another mock of the same task
// @Summary Switch mock
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param mock body models.SwitchMockRequest true "Target mock"
// @Success 200 {object} services.SessionView
// @Router /sessions/{id}/switch-mock [post]
func (h *SessionHandler) SwitchMock(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req models.SwitchMockRequest
	if !h.bind(c, &req) {
		return
	}

	h.LogRequest(c, "Switching mock", "session_id", id, "mock_id", req.MockID)

	view, err := h.sessionService.SwitchMock(c.Request.Context(), token, userID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SaveDraft sends the resolvable answers as a draft
// @Summary Save draft
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SaveResult
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/draft [post]
func (h *SessionHandler) SaveDraft(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	result, err := h.sessionService.SaveDraft(c.Request.Context(), token, userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Submit finalizes the session
// @Summary Submit
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param submit body models.SubmitRequest false "allow_partial sends resolvable answers only"
// @Success 200 {object} services.SaveResult
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req models.SubmitRequest
	if c.Request.ContentLength != 0 {
		if !h.bind(c, &req) {
			return
		}
	}
	allowPartial := req.AllowPartial || parseBoolQuery(c, "allow_partial")

	h.LogRequest(c, "Submitting session", "session_id", id, "allow_partial", allowPartial)

	result, err := h.sessionService.Submit(c.Request.Context(), token, userID, id, allowPartial)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportAnswers downloads the answer sheet
// @Summary Export answer sheet
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Param format query string false "xlsx (default) or csv"
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) ExportAnswers(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	file, err := h.exportService.ExportAnswerSheet(c.Request.Context(), token, userID, id, c.Query("format"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// bind decodes the JSON body and runs struct and business validation.
func (h *SessionHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return false
	}
	if err := h.validator.Validate(req); err != nil {
		h.handleServiceError(c, err)
		return false
	}
	return true
}
