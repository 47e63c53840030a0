// Package upstream is the REST client for the LMS backend.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/metrics"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
)

const maxResponseSize = 16 << 20

type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// SubmissionRequest creates a submission for one mock of a task.
type SubmissionRequest struct {
	Task string `json:"task"`
	Mock string `json:"mock,omitempty"`
}

type answersPayload struct {
	Answers models.AnswersObject `json:"answers"`
}

func (c *Client) GetTask(ctx context.Context, token, taskID string) (json.RawMessage, error) {
	return c.getRaw(ctx, token, "tasks", "/tasks/"+url.PathEscape(taskID)+"/", nil)
}

func (c *Client) GetMock(ctx context.Context, token, mockID string) (json.RawMessage, error) {
	return c.getRaw(ctx, token, "mocks", "/mocks/"+url.PathEscape(mockID)+"/", nil)
}

func (c *Client) GetLeaderboard(ctx context.Context, token, groupID string) (json.RawMessage, error) {
	return c.getRaw(ctx, token, "leaderboard", "/groups/"+url.PathEscape(groupID)+"/leaderboard/", nil)
}

// GetCurrentUser resolves the account the LMS attaches to token.
func (c *Client) GetCurrentUser(ctx context.Context, token string) (*models.UserProfile, error) {
	req, err := c.newRequest(ctx, token, http.MethodGet, "/users/me/", nil, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req, "users_me")
	if err != nil {
		return nil, err
	}
	var user models.UserProfile
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("unmarshal users_me response: %w", err)
	}
	return &user, nil
}

func (c *Client) ListReviews(ctx context.Context, token string, query url.Values) (json.RawMessage, error) {
	return c.getRaw(ctx, token, "reviews", "/reviews/", query)
}

func (c *Client) CreateSubmission(ctx context.Context, token string, req SubmissionRequest) (*models.Submission, error) {
	var sub models.Submission
	if err := c.doJSON(ctx, token, http.MethodPost, "submissions", "/submissions/", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) SubmitAnswers(ctx context.Context, token, submissionID string, answers models.AnswersObject) (*models.Submission, error) {
	var sub models.Submission
	path := "/submissions/" + url.PathEscape(submissionID) + "/submit/"
	if err := c.doJSON(ctx, token, http.MethodPost, "submit", path, answersPayload{Answers: answers}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) SaveDraft(ctx context.Context, token, submissionID string, answers models.AnswersObject) (*models.Submission, error) {
	var sub models.Submission
	path := "/submissions/" + url.PathEscape(submissionID) + "/save_draft/"
	if err := c.doJSON(ctx, token, http.MethodPost, "save_draft", path, answersPayload{Answers: answers}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UploadFile is one file of a multipart upload.
type UploadFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Upload posts multipart form-data to path (documents, audio, images).
func (c *Client) Upload(ctx context.Context, token, path string, fields map[string]string, file UploadFile) (json.RawMessage, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile(file.Field, file.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, token, http.MethodPost, path, nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := c.do(req, "upload")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) getRaw(ctx context.Context, token, endpoint, path string, query url.Values) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, token, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req, endpoint)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) doJSON(ctx context.Context, token, method, endpoint, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	req, err := c.newRequest(ctx, token, method, path, nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, endpoint)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, token, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, metrics.StatusClass(0)).Inc()
		c.logger.Error("Upstream request failed",
			"endpoint", endpoint,
			"method", req.Method,
			"error", err)
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues(endpoint, metrics.StatusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, body)
		c.logger.Warn("Upstream returned error",
			"endpoint", endpoint,
			"method", req.Method,
			"status_code", resp.StatusCode,
			"message", apiErr.Message)
		return nil, apiErr
	}

	c.logger.Debug("Upstream request completed",
		"endpoint", endpoint,
		"method", req.Method,
		"status_code", resp.StatusCode,
		"duration", time.Since(start).String())
	return body, nil
}
