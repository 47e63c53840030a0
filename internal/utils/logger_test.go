package utils

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("production", &buf).Info("started", "port", "8080")
	assert.Contains(t, buf.String(), `"msg":"started"`)
	assert.Contains(t, buf.String(), `"port":"8080"`)

	buf.Reset()
	dev := NewLogger("development", &buf)
	dev.Debug("dialing", "channel", "chat")
	assert.Contains(t, buf.String(), "msg=dialing")
	assert.Contains(t, buf.String(), "channel=chat")
}

func TestLogRequestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("production", &buf)

	logger.LogRequest("GET", "/health", 200, "1ms")
	assert.Contains(t, buf.String(), `"level":"INFO"`)

	buf.Reset()
	logger.LogRequest("POST", "/api/v1/sessions", 409, "3ms")
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	logger.LogRequest("POST", "/api/v1/sessions", 502, "3ms")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestContextLoggerAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	router := gin.New()
	router.Use(ContextLogger(NewLogger("production", &buf)))
	router.GET("/ping", func(c *gin.Context) {
		GetLoggerFromContext(c).Info("handled")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Contains(t, buf.String(), id)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
