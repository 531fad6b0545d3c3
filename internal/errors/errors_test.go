package errors

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		want     string
	}{
		{
			name: "simple message",
			apiError: &APIError{
				StatusCode: http.StatusBadRequest,
				ErrorCode:  "INVALID_REQUEST",
				Message:    "Invalid request format",
			},
			want: "Invalid request format",
		},
		{
			name: "empty message",
			apiError: &APIError{
				StatusCode: http.StatusInternalServerError,
				ErrorCode:  "INTERNAL_ERROR",
				Message:    "",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.apiError.Error()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPIError_Render(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	err := ErrBadCredentials.Render(w, r)
	assert.NoError(t, err)
}

func TestNew(t *testing.T) {
	got := New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	want := &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  "INVALID_REQUEST",
		Message:    "Invalid request format",
	}
	assert.Equal(t, want, got)
}

func TestNewWithDetails(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		message    string
		details    interface{}
	}{
		{
			name:       "string details",
			statusCode: http.StatusBadRequest,
			errorCode:  "VALIDATION_FAILED",
			message:    "Validation failed",
			details:    "field 'window' is required",
		},
		{
			name:       "validation error details",
			statusCode: http.StatusBadRequest,
			errorCode:  "VALIDATION_FAILED",
			message:    "Validation failed",
			details:    ValidationError{Field: "window", Message: "must be between 1 and 60"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewWithDetails(tt.statusCode, tt.errorCode, tt.message, tt.details)
			assert.Equal(t, tt.statusCode, got.StatusCode)
			assert.Equal(t, tt.errorCode, got.ErrorCode)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.details, got.Details)
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{
			name:       "ErrInvalidRequest",
			err:        ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "ErrInvalidDateRange",
			err:        ErrInvalidDateRange,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DATE_RANGE",
		},
		{
			name:       "ErrUnauthorized",
			err:        ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "ErrBadCredentials",
			err:        ErrBadCredentials,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "BAD_CREDENTIALS",
		},
		{
			name:       "ErrSessionExpired",
			err:        ErrSessionExpired,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "SESSION_EXPIRED",
		},
		{
			name:       "ErrDatasetUnknown",
			err:        ErrDatasetUnknown,
			wantStatus: http.StatusNotFound,
			wantCode:   "DATASET_UNKNOWN",
		},
		{
			name:       "ErrRateLimitExceeded",
			err:        ErrRateLimitExceeded,
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMIT_EXCEEDED",
		},
		{
			name:       "ErrStoreUnavailable",
			err:        ErrStoreUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "STORE_UNAVAILABLE",
		},
		{
			name:       "ErrGateNotReady",
			err:        ErrGateNotReady,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "GATE_NOT_CONFIGURED",
		},
		{
			name:       "ErrExportFailed",
			err:        ErrExportFailed,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "EXPORT_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("from", "must be a calendar date")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "from", detail.Field)
	assert.Equal(t, "must be a calendar date", detail.Message)
}

func TestDatasetUnknownError(t *testing.T) {
	err := DatasetUnknownError("refunds")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "DATASET_UNKNOWN", err.ErrorCode)
	assert.Contains(t, err.Message, "refunds")
	assert.Equal(t, "refunds", err.Details)
}

func TestStoreUnavailableError(t *testing.T) {
	cause := stderrors.New("connect failed")
	err := StoreUnavailableError(cause)

	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.Equal(t, "STORE_UNAVAILABLE", err.ErrorCode)
	assert.Contains(t, err.Details.(string), "connect failed")
}

func TestNewValidationErrors(t *testing.T) {
	fields := []ValidationError{
		{Field: "from", Message: "required"},
		{Field: "sites", Message: "too many values"},
	}
	err := NewValidationErrors(fields)

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	detail, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, detail.Errors, 2)
}

