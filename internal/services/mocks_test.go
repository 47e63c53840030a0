package services

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/cache"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/upstream"
	"github.com/stretchr/testify/mock"
)

// MockUpstream is a mock implementation of LMSClient
type MockUpstream struct {
	mock.Mock
}

func (m *MockUpstream) GetTask(ctx context.Context, token, taskID string) (json.RawMessage, error) {
	args := m.Called(ctx, token, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockUpstream) GetMock(ctx context.Context, token, mockID string) (json.RawMessage, error) {
	args := m.Called(ctx, token, mockID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockUpstream) CreateSubmission(ctx context.Context, token string, req upstream.SubmissionRequest) (*models.Submission, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockUpstream) SubmitAnswers(ctx context.Context, token, submissionID string, answers models.AnswersObject) (*models.Submission, error) {
	args := m.Called(ctx, token, submissionID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockUpstream) SaveDraft(ctx context.Context, token, submissionID string, answers models.AnswersObject) (*models.Submission, error) {
	args := m.Called(ctx, token, submissionID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockUpstream) GetLeaderboard(ctx context.Context, token, groupID string) (json.RawMessage, error) {
	args := m.Called(ctx, token, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockUpstream) ListReviews(ctx context.Context, token string, query url.Values) (json.RawMessage, error) {
	args := m.Called(ctx, token, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockUpstream) Upload(ctx context.Context, token, path string, fields map[string]string, file upstream.UploadFile) (json.RawMessage, error) {
	body, _ := io.ReadAll(file.Content)
	args := m.Called(ctx, token, path, fields, file.Field, file.Filename, string(body))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockUpstream) GetCurrentUser(ctx context.Context, token string) (*models.UserProfile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

// memoryCache is a map-backed CacheService for tests
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case json.RawMessage:
		c.items[key] = append([]byte(nil), v...)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		c.items[key] = b
	}
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	if raw, ok := dest.(*json.RawMessage); ok {
		*raw = append(json.RawMessage(nil), b...)
		return nil
	}
	return json.Unmarshal(b, dest)
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) DeletePattern(context.Context, string) error { return nil }
