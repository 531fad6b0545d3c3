package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Gate-specific errors (using errors package for sentinel errors)
var (
	ErrGateNotConfigured = errors.New("gate not configured")
	ErrPasswordMismatch  = errors.New("password mismatch")
	ErrPasswordTooLong   = errors.New("password too long")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionTimedOut   = errors.New("session timed out")
	ErrTooManyAttempts   = errors.New("too many login attempts")
)

// GateSessionDetails provides additional context for gate errors
type GateSessionDetails struct {
	IssuedAt          *time.Time `json:"issued_at,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	RemainingSeconds  int        `json:"remaining_seconds,omitempty"`
	RetryAfterSeconds int        `json:"retry_after_seconds,omitempty"`
	ClientAddr        string     `json:"client_addr,omitempty"`
}

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// NewGateNotConfiguredError creates an error for an unconfigured password gate.
// The gate stays closed until an operator sets a password, so this is a 503
// rather than a 401: there is no credential the client could supply.
func NewGateNotConfiguredError(traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusServiceUnavailable,
		"/errors/gate-not-configured",
		"Dashboard Access Not Configured",
		"No dashboard password has been configured. Access stays closed until an operator sets one.",
		fmt.Sprintf("/api/auth/login#%s", traceID),
	)

	problem.WithExtension("error_type", "gate_not_configured").
		WithExtension("trace_id", traceID).
		WithExtension("operator_hint", "Set WASH_GATE_PASSWORD or WASH_GATE_PASSWORD_HASH and restart the service.")

	return problem
}

// NewTooManyAttemptsError creates an error for rate-limited login attempts
func NewTooManyAttemptsError(details *GateSessionDetails, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusTooManyRequests,
		"/errors/too-many-attempts",
		"Too Many Login Attempts",
		"Login attempts from this address are temporarily limited. Please wait before retrying.",
		fmt.Sprintf("/api/auth/login#%s", traceID),
	)

	problem.WithExtension("error_type", "too_many_attempts").
		WithExtension("trace_id", traceID)

	if details != nil {
		if details.RetryAfterSeconds > 0 {
			problem.WithExtension("retry_after", details.RetryAfterSeconds)
		}
		if details.ClientAddr != "" {
			problem.WithExtension("client_addr", details.ClientAddr)
		}
	}

	return problem
}

// NewSessionTimedOutError creates an error for an expired dashboard session
func NewSessionTimedOutError(details *GateSessionDetails, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusUnauthorized,
		"/errors/session-timed-out",
		"Session Timed Out",
		"Your dashboard session has expired. Please log in again.",
		fmt.Sprintf("/api/auth/login#%s", traceID),
	)

	problem.WithExtension("error_type", "session_timed_out").
		WithExtension("trace_id", traceID)

	if details != nil {
		if details.IssuedAt != nil {
			problem.WithExtension("issued_at", details.IssuedAt.Format(time.RFC3339))
		}
		if details.ExpiresAt != nil {
			problem.WithExtension("expired_at", details.ExpiresAt.Format(time.RFC3339))
		}
	}

	return problem
}

// MapGateError maps gate domain errors to HTTP problem details
func MapGateError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/auth#trace-%s", traceID)

	// Check if it's an APIError from errors.go
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorProblem(apiErr, instance, traceID)
	}

	switch {
	case errors.Is(err, ErrGateNotConfigured):
		return NewGateNotConfiguredError(traceID)

	case errors.Is(err, ErrTooManyAttempts):
		return NewTooManyAttemptsError(&GateSessionDetails{RetryAfterSeconds: 30}, traceID)

	case errors.Is(err, ErrSessionTimedOut):
		return NewSessionTimedOutError(nil, traceID)

	case errors.Is(err, ErrSessionNotFound):
		return NewProblemDetails(
			http.StatusUnauthorized,
			"/errors/session-not-found",
			"Not Logged In",
			"No active session was found for this request. Please log in.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "SESSION_NOT_FOUND")

	case errors.Is(err, ErrPasswordMismatch):
		return NewProblemDetails(
			http.StatusUnauthorized,
			"/errors/bad-credentials",
			"Invalid Password",
			"The password you entered is not correct.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "BAD_CREDENTIALS")

	case errors.Is(err, ErrPasswordTooLong):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/password-too-long",
			"Password Too Long",
			"The submitted password exceeds the maximum accepted length.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "PASSWORD_TOO_LONG")

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/internal-error",
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}

// apiErrorProblem renders an APIError through the RFC 7807 surface
func apiErrorProblem(apiErr *APIError, instance, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		apiErr.StatusCode,
		fmt.Sprintf("/errors/%s", apiErr.ErrorCode),
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		instance,
	).WithExtension("trace_id", traceID).
		WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}
