package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"testing"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/repositories"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/services"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type MockSessionService struct{ mock.Mock }

func (m *MockSessionService) Start(ctx context.Context, token, studentID string, req *models.StartSessionRequest) (*services.SessionView, error) {
	args := m.Called(ctx, token, studentID, req)
	return viewArg(args, 0), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, token, studentID, sessionID string) (*services.SessionView, error) {
	args := m.Called(ctx, token, studentID, sessionID)
	return viewArg(args, 0), args.Error(1)
}

func (m *MockSessionService) Answer(ctx context.Context, token, studentID, sessionID string, answers []models.AnswerRequest) (*services.SessionView, error) {
	args := m.Called(ctx, token, studentID, sessionID, answers)
	return viewArg(args, 0), args.Error(1)
}

func (m *MockSessionService) Navigate(ctx context.Context, token, studentID, sessionID string, req *models.NavigateRequest) (*services.NavigateResult, error) {
	args := m.Called(ctx, token, studentID, sessionID, req)
	if r, ok := args.Get(0).(*services.NavigateResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionService) SwitchMock(ctx context.Context, token, studentID, sessionID string, req *models.SwitchMockRequest) (*services.SessionView, error) {
	args := m.Called(ctx, token, studentID, sessionID, req)
	return viewArg(args, 0), args.Error(1)
}

func (m *MockSessionService) SaveDraft(ctx context.Context, token, studentID, sessionID string) (*services.SaveResult, error) {
	args := m.Called(ctx, token, studentID, sessionID)
	return saveArg(args, 0), args.Error(1)
}

func (m *MockSessionService) Submit(ctx context.Context, token, studentID, sessionID string, allowPartial bool) (*services.SaveResult, error) {
	args := m.Called(ctx, token, studentID, sessionID, allowPartial)
	return saveArg(args, 0), args.Error(1)
}

func (m *MockSessionService) ListByStudent(ctx context.Context, studentID string, filters repositories.SessionFilters) ([]*models.ExamSession, int64, error) {
	args := m.Called(ctx, studentID, filters)
	sessions, _ := args.Get(0).([]*models.ExamSession)
	return sessions, args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionService) AnswerSheet(ctx context.Context, token, studentID, sessionID string) (*services.AnswerSheet, error) {
	args := m.Called(ctx, token, studentID, sessionID)
	sheet, _ := args.Get(0).(*services.AnswerSheet)
	return sheet, args.Error(1)
}

func viewArg(args mock.Arguments, i int) *services.SessionView {
	v, _ := args.Get(i).(*services.SessionView)
	return v
}

func saveArg(args mock.Arguments, i int) *services.SaveResult {
	r, _ := args.Get(i).(*services.SaveResult)
	return r
}

type MockExportService struct{ mock.Mock }

func (m *MockExportService) ExportAnswerSheet(ctx context.Context, token, studentID, sessionID, format string) (*services.ExportFile, error) {
	args := m.Called(ctx, token, studentID, sessionID, format)
	f, _ := args.Get(0).(*services.ExportFile)
	return f, args.Error(1)
}

type MockProxyService struct{ mock.Mock }

func (m *MockProxyService) Leaderboard(ctx context.Context, token, userID, groupID string) (json.RawMessage, error) {
	args := m.Called(ctx, token, userID, groupID)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *MockProxyService) Reviews(ctx context.Context, token string, query url.Values) (json.RawMessage, error) {
	args := m.Called(ctx, token, query)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

// Upload records the file body as a string so expectations can match on it.
func (m *MockProxyService) Upload(ctx context.Context, token, kind string, fields map[string]string, filename string, content io.Reader) (json.RawMessage, error) {
	body, _ := io.ReadAll(content)
	args := m.Called(ctx, token, kind, fields, filename, string(body))
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

type MockTokenVerifier struct{ mock.Mock }

func (m *MockTokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// fakeManager serves the mocks through the ServiceManager used by SetupRoutes.
type fakeManager struct {
	session *MockSessionService
	export  *MockExportService
	proxy   *MockProxyService
}

func (f *fakeManager) Session() services.SessionService   { return f.session }
func (f *fakeManager) Export() services.ExportService     { return f.export }
func (f *fakeManager) Proxy() services.ProxyService       { return f.proxy }
func (f *fakeManager) Relay() services.RelayService       { return nil }
func (f *fakeManager) Identity() services.IdentityService { return nil }
func (f *fakeManager) Close()                             {}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fm := &fakeManager{
		session: &MockSessionService{},
		export:  &MockExportService{},
		proxy:   &MockProxyService{},
	}
	t.Cleanup(func() {
		fm.session.AssertExpectations(t)
		fm.export.AssertExpectations(t)
		fm.proxy.AssertExpectations(t)
	})

	router := gin.New()
	logger := utils.NewLogger("test", io.Discard)
	NewHandlerManager(fm, validator.New(), RouterConfig{JWTSecret: testSecret, AllowedOrigins: []string{"*"}}, logger).SetupRoutes(router)
	return router, fm
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}
