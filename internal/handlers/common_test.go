package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/services"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/upstream"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validationErr := validator.New().Validate(&models.StartSessionRequest{})
	require.Error(t, validationErr)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation errors", validationErr, http.StatusBadRequest},
		{"single validation error", services.NewValidationError("task_id", "is required", nil), http.StatusBadRequest},
		{"business rule", services.NewBusinessRuleError("mock_type", "wrong mock", nil), http.StatusUnprocessableEntity},
		{"session not found", fmt.Errorf("load: %w", services.ErrSessionNotFound), http.StatusNotFound},
		{"access denied", services.ErrSessionAccessDenied, http.StatusForbidden},
		{"submitted", services.ErrSessionSubmitted, http.StatusConflict},
		{"nothing to save", services.ErrNothingToSave, http.StatusConflict},
		{"mock not in task", services.ErrMockNotInTask, http.StatusBadRequest},
		{"unknown upload", services.ErrUnknownUpload, http.StatusBadRequest},
		{"relay missing", services.ErrRelayNotFound, http.StatusNotFound},
		{"deadline", fmt.Errorf("get task: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"upstream 404", &upstream.APIError{StatusCode: http.StatusNotFound, Message: "Not found."}, http.StatusNotFound},
		{"upstream 401", &upstream.APIError{StatusCode: http.StatusUnauthorized, Message: "Token expired"}, http.StatusUnauthorized},
		{"upstream 500", &upstream.APIError{StatusCode: http.StatusInternalServerError, Message: "oops"}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	h := NewBaseHandler(utils.NewLogger("test", io.Discard))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandleServiceErrorUnresolved(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	h := NewBaseHandler(utils.NewLogger("test", io.Discard))
	h.handleServiceError(c, fmt.Errorf("submit: %w", &services.UnresolvedAnswersError{SessionID: "s1", Numbers: []int{4, 7}}))

	require.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Code    string `json:"code"`
		Details struct {
			Unresolved []int `json:"unresolved"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNRESOLVED_ANSWERS", resp.Code)
	assert.Equal(t, []int{4, 7}, resp.Details.Unresolved)
}
