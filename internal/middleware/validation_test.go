package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "washpulse/internal/errors"
)

func newTestValidation() *ValidationMiddleware {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
}

func TestValidateRequest_SkipsGET(t *testing.T) {
	m := newTestValidation()

	handler := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/dashboard/washes", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidateRequest_RejectsInvalidJSON(t *testing.T) {
	m := newTestValidation()

	handler := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader("{not json"))
	r.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_JSON")
}

func TestValidateRequest_AcceptsValidBody(t *testing.T) {
	m := newTestValidation()

	var seen string
	handler := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	payload := `{"password":"letmein"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, seen)
}

func TestValidateStruct(t *testing.T) {
	m := newTestValidation()

	type loginRequest struct {
		Password string `json:"password" validate:"required,max=1024"`
	}

	err := m.ValidateStruct(loginRequest{})
	require.Error(t, err)

	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

	assert.NoError(t, m.ValidateStruct(loginRequest{Password: "pw"}))
}

func TestContentTypeValidator(t *testing.T) {
	handler := ContentTypeValidator("application/json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("accepts json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader("{}"))
		r.Header.Set("Content-Type", "application/json")
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects xml", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader("<xml/>"))
		r.Header.Set("Content-Type", "application/xml")
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("rejects missing content type", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader("{}"))
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("skips GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/meta", nil)
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCustomValidators(t *testing.T) {
	m := newTestValidation()

	type params struct {
		Date string `json:"date" validate:"omitempty,iso8601"`
		Site string `json:"site" validate:"omitempty,siteid"`
		File string `json:"file" validate:"omitempty,filename"`
	}

	tests := []struct {
		name    string
		in      params
		wantErr bool
	}{
		{name: "all valid", in: params{Date: "2024-03-15", Site: "site_7", File: "washes.csv"}},
		{name: "bad date", in: params{Date: "03/15/2024"}, wantErr: true},
		{name: "bad site", in: params{Site: "site 7!"}, wantErr: true},
		{name: "traversal filename", in: params{File: "../etc/passwd"}, wantErr: true},
		{name: "empty ok", in: params{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateStruct(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
