package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "washpulse/internal/errors"
	"washpulse/internal/gate"
	custommw "washpulse/internal/middleware"
)

// MockKeeper is a mock implementation of GateAuthenticator
type MockKeeper struct {
	mock.Mock
}

func (m *MockKeeper) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockKeeper) SessionTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *MockKeeper) Login(ctx context.Context, password, clientAddr string) (gate.Session, error) {
	args := m.Called(password, clientAddr)
	return args.Get(0).(gate.Session), args.Error(1)
}

func (m *MockKeeper) VerifySession(ctx context.Context, token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockKeeper) Logout(ctx context.Context, token string) bool {
	args := m.Called(token)
	return args.Bool(0)
}

func newTestAuthHandler(keeper GateAuthenticator) *AuthHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewAuthHandler(keeper, logger, apierrors.NewErrorHandler(logger, false))
}

func testSession() gate.Session {
	return gate.Session{
		Token:     "tok-123",
		IssuedAt:  time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC),
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockKeeper)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "successful login",
			body: `{"password":"open sesame"}`,
			setupMock: func(m *MockKeeper) {
				m.On("Login", "open sesame", mock.Anything).Return(testSession(), nil)
				m.On("SessionTTL").Return(12 * time.Hour)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"tok-123"`,
		},
		{
			name: "wrong password",
			body: `{"password":"nope"}`,
			setupMock: func(m *MockKeeper) {
				m.On("Login", "nope", mock.Anything).Return(gate.Session{}, apierrors.ErrPasswordMismatch)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `bad-credentials`,
		},
		{
			name: "rate limited",
			body: `{"password":"nope"}`,
			setupMock: func(m *MockKeeper) {
				m.On("Login", "nope", mock.Anything).Return(gate.Session{}, apierrors.ErrTooManyAttempts)
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `"retry_after":30`,
		},
		{
			name: "gate not configured",
			body: `{"password":"anything"}`,
			setupMock: func(m *MockKeeper) {
				m.On("Login", "anything", mock.Anything).Return(gate.Session{}, apierrors.ErrGateNotConfigured)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `operator_hint`,
		},
		{
			name: "oversized password",
			body: `{"password":"` + strings.Repeat("x", 64) + `"}`,
			setupMock: func(m *MockKeeper) {
				m.On("Login", mock.Anything, mock.Anything).Return(gate.Session{}, apierrors.ErrPasswordTooLong)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `password-too-long`,
		},
		{
			name:           "malformed body",
			body:           `{"password":`,
			setupMock:      func(m *MockKeeper) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `INVALID_REQUEST`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockKeeper := new(MockKeeper)
			tt.setupMock(mockKeeper)

			handler := newTestAuthHandler(mockKeeper)

			req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockKeeper.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_LoginSetsSessionCookie(t *testing.T) {
	mockKeeper := new(MockKeeper)
	mockKeeper.On("Login", "open sesame", mock.Anything).Return(testSession(), nil)
	mockKeeper.On("SessionTTL").Return(12 * time.Hour)

	handler := newTestAuthHandler(mockKeeper)

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"password":"open sesame"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	cookie := cookies[0]
	assert.Equal(t, custommw.SessionCookieName, cookie.Name)
	assert.Equal(t, "tok-123", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int((12 * time.Hour).Seconds()), cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
}

func TestAuthHandler_Logout(t *testing.T) {
	tests := []struct {
		name         string
		setupRequest func(*http.Request)
		setupMock    func(*MockKeeper)
		expectedBody string
	}{
		{
			name: "revokes cookie session",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: custommw.SessionCookieName, Value: "tok-123"})
			},
			setupMock: func(m *MockKeeper) {
				m.On("Logout", "tok-123").Return(true)
			},
			expectedBody: `"revoked":true`,
		},
		{
			name: "revokes bearer session",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer tok-456")
			},
			setupMock: func(m *MockKeeper) {
				m.On("Logout", "tok-456").Return(true)
			},
			expectedBody: `"revoked":true`,
		},
		{
			name: "unknown token still succeeds",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: custommw.SessionCookieName, Value: "stale"})
			},
			setupMock: func(m *MockKeeper) {
				m.On("Logout", "stale").Return(false)
			},
			expectedBody: `"revoked":false`,
		},
		{
			name:         "no session still succeeds",
			setupRequest: func(r *http.Request) {},
			setupMock:    func(m *MockKeeper) {},
			expectedBody: `"revoked":false`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockKeeper := new(MockKeeper)
			tt.setupMock(mockKeeper)

			handler := newTestAuthHandler(mockKeeper)

			req := httptest.NewRequest("POST", "/api/auth/logout", nil)
			tt.setupRequest(req)
			rec := httptest.NewRecorder()

			handler.Logout(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)

			// The browser cookie is cleared on every logout.
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, custommw.SessionCookieName, cookies[0].Name)
			assert.Empty(t, cookies[0].Value)
			assert.Negative(t, cookies[0].MaxAge)

			mockKeeper.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Status(t *testing.T) {
	tests := []struct {
		name         string
		setupRequest func(*http.Request)
		setupMock    func(*MockKeeper)
		expectedBody []string
	}{
		{
			name:         "not configured",
			setupRequest: func(r *http.Request) {},
			setupMock: func(m *MockKeeper) {
				m.On("Configured").Return(false)
			},
			expectedBody: []string{`"configured":false`, `"authenticated":false`},
		},
		{
			name:         "configured without session",
			setupRequest: func(r *http.Request) {},
			setupMock: func(m *MockKeeper) {
				m.On("Configured").Return(true)
			},
			expectedBody: []string{`"configured":true`, `"authenticated":false`},
		},
		{
			name: "configured with valid session",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: custommw.SessionCookieName, Value: "tok-123"})
			},
			setupMock: func(m *MockKeeper) {
				m.On("Configured").Return(true)
				m.On("VerifySession", "tok-123").Return(nil)
			},
			expectedBody: []string{`"configured":true`, `"authenticated":true`},
		},
		{
			name: "configured with expired session",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: custommw.SessionCookieName, Value: "tok-old"})
			},
			setupMock: func(m *MockKeeper) {
				m.On("Configured").Return(true)
				m.On("VerifySession", "tok-old").Return(apierrors.ErrSessionTimedOut)
			},
			expectedBody: []string{`"configured":true`, `"authenticated":false`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockKeeper := new(MockKeeper)
			tt.setupMock(mockKeeper)

			handler := newTestAuthHandler(mockKeeper)

			req := httptest.NewRequest("GET", "/api/auth/status", nil)
			tt.setupRequest(req)
			rec := httptest.NewRecorder()

			handler.Status(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			for _, want := range tt.expectedBody {
				assert.Contains(t, rec.Body.String(), want)
			}
			mockKeeper.AssertExpectations(t)
		})
	}
}
