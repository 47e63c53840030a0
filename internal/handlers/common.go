package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/services"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/upstream"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps a page of results
type ListResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return BaseHandler{
		logger: logger,
	}
}

// requestLogger prefers the request-scoped logger set by utils.ContextLogger
func (h *BaseHandler) requestLogger(c *gin.Context) utils.Logger {
	if l, ok := c.Get("logger"); ok {
		if typed, ok := l.(utils.Logger); ok {
			return typed
		}
	}
	return h.logger.With(
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader(utils.RequestIDHeader),
	)
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"remote_addr", c.ClientIP(),
		"user_id", userIDFrom(c),
		"timestamp", time.Now().Format(time.RFC3339),
	}
	fields = append(fields, additionalFields...)
	h.requestLogger(c).Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{"user_id", userIDFrom(c)}, additionalFields...)
	h.requestLogger(c).LogError(err, message, fields...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{"user_id", userIDFrom(c)}, additionalFields...)
	h.requestLogger(c).Warn(message, fields...)
}

func (h *BaseHandler) LogDebug(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{"user_id", userIDFrom(c)}, additionalFields...)
	h.requestLogger(c).Debug(message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
	}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil && statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else if err != nil {
		h.LogWarn(c, message, "status_code", statusCode, "error", err)
	} else {
		h.LogWarn(c, message, "status_code", statusCode)
	}

	c.JSON(statusCode, errorResp)
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// handleServiceError maps service and upstream errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrors)
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, services.ValidationErrors{*validationError})
		return
	}

	var unresolved *services.UnresolvedAnswersError
	if errors.As(err, &unresolved) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Some answers cannot be matched to questions",
			Code:    "UNRESOLVED_ANSWERS",
			Details: gin.H{"unresolved": unresolved.Numbers},
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, businessRuleError.Message, err, gin.H{
			"rule":    businessRuleError.Rule,
			"context": businessRuleError.Context,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Session not found", err)
		return
	case errors.Is(err, services.ErrSessionAccessDenied):
		h.RespondWithError(c, http.StatusForbidden, "Access denied to session", err)
		return
	case errors.Is(err, services.ErrSessionSubmitted):
		h.RespondWithError(c, http.StatusConflict, "Session already submitted", err)
		return
	case errors.Is(err, services.ErrNothingToSave):
		h.RespondWithError(c, http.StatusConflict, "Nothing to save yet", err)
		return
	case errors.Is(err, services.ErrMockNotInTask), errors.Is(err, services.ErrMockRequired), errors.Is(err, services.ErrUnknownUpload):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.RespondWithError(c, http.StatusGatewayTimeout, "Upstream timed out", err)
		return
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
			h.RespondWithError(c, apiErr.StatusCode, apiErr.Message, err)
		default:
			h.RespondWithError(c, http.StatusBadGateway, "Upstream service error", err, apiErr.Message)
		}
		return
	}

	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Resource not found", err)
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusForbidden, "Forbidden - insufficient permissions", err)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "Resource conflict", err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
