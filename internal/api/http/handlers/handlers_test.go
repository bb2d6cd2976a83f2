package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/service"
	apperrors "github.com/spec-kit/cbt-dashboard/pkg/util"
)

// testEnv issues real session tokens so handlers see sessions the way production middleware resolves them.
type testEnv struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens := auth.NewTokenManager("handler-test-secret", time.Hour)
	resolver := auth.NewSessionResolver(tokens, auth.NewMemoryRevocationStore())
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			body := fiber.Map{"code": de.Code, "message": de.Message}
			if len(de.Details) > 0 {
				body["details"] = de.Details
			}
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": body})
		},
	})
	app.Use(auth.NewSessionMiddleware(resolver, "cbt_session", zap.NewNop()).Handle)
	return &testEnv{app: app, tokens: tokens}
}

func (e *testEnv) token(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	token, _, err := e.tokens.Issue(userID, role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, name, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthenticator) LoginExternal(ctx context.Context, profile auth.ExternalProfile) (*service.AuthResult, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthenticator) Logout(ctx context.Context, session *auth.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

type MockPasswordResetter struct {
	mock.Mock
}

func (m *MockPasswordResetter) RequestReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockPasswordResetter) CompleteReset(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

type MockOAuthProviders struct {
	mock.Mock
}

func (m *MockOAuthProviders) Enabled(name string) bool {
	return m.Called(name).Bool(0)
}

func (m *MockOAuthProviders) StateToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockOAuthProviders) AuthURL(name, state string) (string, error) {
	args := m.Called(name, state)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthProviders) Exchange(ctx context.Context, name, code string) (auth.ExternalProfile, error) {
	args := m.Called(ctx, name, code)
	return args.Get(0).(auth.ExternalProfile), args.Error(1)
}

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) Get(ctx context.Context, userID string) (*service.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Profile), args.Error(1)
}

func (m *MockProfiles) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*service.Profile, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Profile), args.Error(1)
}

type MockAvatarUploads struct {
	mock.Mock
}

func (m *MockAvatarUploads) UploadURL(ctx context.Context, userID string) (*service.AvatarUpload, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AvatarUpload), args.Error(1)
}

type MockAcademicCatalog struct {
	mock.Mock
}

func (m *MockAcademicCatalog) Catalog(ctx context.Context) (*service.AcademicCatalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AcademicCatalog), args.Error(1)
}

type MockPracticeTests struct {
	mock.Mock
}

func (m *MockPracticeTests) List(ctx context.Context, filter domain.PracticeTestFilter, includeDrafts bool) ([]domain.PracticeTest, error) {
	args := m.Called(ctx, filter, includeDrafts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PracticeTest), args.Error(1)
}

func (m *MockPracticeTests) Get(ctx context.Context, id string, includeDrafts bool) (*domain.PracticeTest, error) {
	args := m.Called(ctx, id, includeDrafts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PracticeTest), args.Error(1)
}

func (m *MockPracticeTests) Create(ctx context.Context, createdBy string, input service.PracticeTestInput) (*domain.PracticeTest, error) {
	args := m.Called(ctx, createdBy, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PracticeTest), args.Error(1)
}

func (m *MockPracticeTests) Update(ctx context.Context, id string, input service.PracticeTestInput) (*domain.PracticeTest, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PracticeTest), args.Error(1)
}

func (m *MockPracticeTests) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type staticRoles map[string]domain.Role

func (s staticRoles) CurrentRole(_ context.Context, userID string) (domain.Role, error) {
	role, ok := s[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return role, nil
}
