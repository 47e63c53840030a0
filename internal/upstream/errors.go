package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is a non-2xx response from the LMS backend.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Body       []byte `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    ExtractMessage(body, status),
		Body:       body,
	}
}

// ExtractMessage pulls a human readable message out of the backend's varying
// error shapes: {"detail"}, {"message"}, {"error": "..."|[...]}, {"non_field_errors": [...]}
// or a field -> []string map. It falls back to the HTTP status text.
func ExtractMessage(body []byte, status int) string {
	fallback := http.StatusText(status)
	if fallback == "" {
		fallback = "request failed"
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
			return text
		}
		return fallback
	}

	switch v := payload.(type) {
	case string:
		if v != "" {
			return v
		}
	case []any:
		if msg := firstText(v); msg != "" {
			return msg
		}
	case map[string]any:
		for _, field := range []string{"detail", "message", "error", "errors", "non_field_errors"} {
			if msg := firstText(v[field]); msg != "" {
				return msg
			}
		}
		fields := make([]string, 0, len(v))
		for k := range v {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if msg := firstText(v[field]); msg != "" {
				return field + ": " + msg
			}
		}
	}
	return fallback
}

func firstText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if msg := firstText(item); msg != "" {
				return msg
			}
		}
	case map[string]any:
		if msg := firstText(t["message"]); msg != "" {
			return msg
		}
		return firstText(t["detail"])
	}
	return ""
}
