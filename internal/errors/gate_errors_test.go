package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(
		http.StatusUnauthorized,
		"/errors/bad-credentials",
		"Invalid Password",
		"The password you entered is not correct.",
		"/api/auth/login",
	).WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "/errors/bad-credentials", decoded["type"])
	assert.Equal(t, "Invalid Password", decoded["title"])
	assert.Equal(t, float64(http.StatusUnauthorized), decoded["status"])
	assert.Equal(t, "The password you entered is not correct.", decoded["detail"])
	assert.Equal(t, "/api/auth/login", decoded["instance"])
	assert.Equal(t, "abc-123", decoded["trace_id"])
}

func TestProblemDetails_MarshalJSONOmitsEmpty(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, "/errors/not-found", "Not Found", "", "")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	_, hasDetail := decoded["detail"]
	_, hasInstance := decoded["instance"]
	assert.False(t, hasDetail)
	assert.False(t, hasInstance)
}

func TestProblemDetails_WithExtensionChaining(t *testing.T) {
	pd := NewProblemDetails(http.StatusTooManyRequests, "/errors/too-many-attempts", "Too Many Login Attempts", "", "").
		WithExtension("retry_after", 30).
		WithExtension("error_type", "too_many_attempts")

	assert.Equal(t, 30, pd.Extensions["retry_after"])
	assert.Equal(t, "too_many_attempts", pd.Extensions["error_type"])
}

func TestNewGateNotConfiguredError(t *testing.T) {
	pd := NewGateNotConfiguredError("trace-42")

	assert.Equal(t, http.StatusServiceUnavailable, pd.Status)
	assert.Equal(t, "/errors/gate-not-configured", pd.Type)
	assert.Equal(t, "trace-42", pd.Extensions["trace_id"])
	assert.Contains(t, pd.Extensions["operator_hint"], "WASH_GATE_PASSWORD")
}

func TestNewTooManyAttemptsError(t *testing.T) {
	details := &GateSessionDetails{RetryAfterSeconds: 30, ClientAddr: "10.0.0.7"}
	pd := NewTooManyAttemptsError(details, "trace-9")

	assert.Equal(t, http.StatusTooManyRequests, pd.Status)
	assert.Equal(t, 30, pd.Extensions["retry_after"])
	assert.Equal(t, "10.0.0.7", pd.Extensions["client_addr"])
}

func TestNewSessionTimedOutError(t *testing.T) {
	issued := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	expired := issued.Add(12 * time.Hour)
	pd := NewSessionTimedOutError(&GateSessionDetails{IssuedAt: &issued, ExpiresAt: &expired}, "trace-7")

	assert.Equal(t, http.StatusUnauthorized, pd.Status)
	assert.Equal(t, issued.Format(time.RFC3339), pd.Extensions["issued_at"])
	assert.Equal(t, expired.Format(time.RFC3339), pd.Extensions["expired_at"])
}

func TestMapGateError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "gate not configured",
			err:        ErrGateNotConfigured,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   "/errors/gate-not-configured",
		},
		{
			name:       "wrapped gate not configured",
			err:        fmt.Errorf("login: %w", ErrGateNotConfigured),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   "/errors/gate-not-configured",
		},
		{
			name:       "password mismatch",
			err:        ErrPasswordMismatch,
			wantStatus: http.StatusUnauthorized,
			wantType:   "/errors/bad-credentials",
		},
		{
			name:       "password too long",
			err:        ErrPasswordTooLong,
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/password-too-long",
		},
		{
			name:       "session not found",
			err:        ErrSessionNotFound,
			wantStatus: http.StatusUnauthorized,
			wantType:   "/errors/session-not-found",
		},
		{
			name:       "session timed out",
			err:        ErrSessionTimedOut,
			wantStatus: http.StatusUnauthorized,
			wantType:   "/errors/session-timed-out",
		},
		{
			name:       "too many attempts",
			err:        ErrTooManyAttempts,
			wantStatus: http.StatusTooManyRequests,
			wantType:   "/errors/too-many-attempts",
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "/errors/internal-error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := MapGateError(tt.err, "trace-1")
			pd, ok := renderer.(*ProblemDetails)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, pd.Status)
			assert.Equal(t, tt.wantType, pd.Type)
			assert.Equal(t, "trace-1", pd.Extensions["trace_id"])
		})
	}
}

func TestMapGateError_APIError(t *testing.T) {
	renderer := MapGateError(ErrBadCredentials, "trace-2")
	pd, ok := renderer.(*ProblemDetails)
	require.True(t, ok)

	assert.Equal(t, http.StatusUnauthorized, pd.Status)
	assert.Equal(t, "BAD_CREDENTIALS", pd.Extensions["error_code"])
}
