package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"washpulse/internal/errors"
	"washpulse/internal/infrastructure"
)

// SessionCookieName is the cookie carrying the dashboard session token.
const SessionCookieName = "washpulse_session"

// GateValidator enforces the dashboard password gate on protected routes.
// An unconfigured gate keeps every protected route closed: there is no
// open-access fallback.
type GateValidator struct {
	keeper          GateKeeper
	logger          *slog.Logger
	excludePaths    []string
	excludePrefixes []string
	enabled         bool
	redirectOnFail  bool
	loginPageURL    string
	// OpenTelemetry metrics
	metrics *GateMetrics
}

// GateMetrics holds OpenTelemetry metrics for the gate middleware
type GateMetrics struct {
	RequestsTotal  metric.Int64Counter
	VerifyAttempts metric.Int64Counter
	VerifySuccess  metric.Int64Counter
	VerifyFailures metric.Int64Counter
	PathExclusions metric.Int64Counter
	RedirectsTotal metric.Int64Counter
}

// NewGateValidator creates a new gate validation middleware
func NewGateValidator(keeper GateKeeper, logger *slog.Logger) *GateValidator {
	return &GateValidator{
		keeper:         keeper,
		logger:         logger.With(slog.String("component", "gate_middleware")),
		enabled:        true,
		redirectOnFail: true,
		loginPageURL:   "/login",
		excludePaths: []string{
			"/",
			"/login",
			"/login/",
			"/api/auth/login",
			"/api/auth/logout",
			"/api/auth/status",
			"/api/health",
			"/api/health/ready",
			"/api/health/live",
			"/api/version",
			"/metrics",
			"/favicon.ico",
			"/robots.txt",
			"/manifest.json",
			"/404",
			"/500",
		},
		excludePrefixes: []string{
			"/static/",
			"/assets/",
		},
	}
}

// Handler returns the middleware handler function
func (gv *GateValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := otel.Tracer("washpulse.gate")

		ctx, span := tracer.Start(ctx, "gate_middleware.verify",
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.url", r.URL.Path),
				attribute.String("component", "gate_middleware"),
			),
		)
		defer span.End()

		reqID := middleware.GetReqID(ctx)
		traceID := infrastructure.TraceIDFromContext(ctx)
		if traceID == "" {
			traceID = reqID
		}

		if gv.metrics != nil {
			gv.metrics.RequestsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("path", r.URL.Path),
				attribute.String("method", r.Method),
			))
		}

		// The gate can be disabled for tests and local development only.
		if !gv.enabled {
			gv.logger.DebugContext(ctx, "gate validation disabled",
				slog.String("path", r.URL.Path),
				slog.String("trace_id", traceID))
			next.ServeHTTP(w, r)
			return
		}

		if gv.shouldExcludePath(r.URL.Path) {
			span.SetAttributes(
				attribute.String("gate.verification", "excluded"),
				attribute.String("exclusion_reason", "path_excluded"),
			)

			if gv.metrics != nil {
				gv.metrics.PathExclusions.Add(ctx, 1, metric.WithAttributes(
					attribute.String("path", r.URL.Path),
					attribute.String("reason", "excluded_path"),
				))
			}

			gv.logger.DebugContext(ctx, "skipping gate validation for excluded path",
				slog.String("path", r.URL.Path),
				slog.String("trace_id", traceID))
			next.ServeHTTP(w, r)
			return
		}

		// Unconfigured gate: everything protected stays closed.
		if !gv.keeper.Configured() {
			span.SetAttributes(attribute.String("gate.verification", "not_configured"))

			gv.logger.WarnContext(ctx, "gate not configured, refusing protected request",
				slog.String("path", r.URL.Path),
				slog.String("trace_id", traceID))

			if gv.metrics != nil {
				gv.metrics.VerifyFailures.Add(ctx, 1, metric.WithAttributes(
					attribute.String("reason", "not_configured"),
				))
			}

			gv.handleGateNotConfigured(w, r, traceID)
			return
		}

		token := ExtractSessionToken(r)
		if token == "" {
			span.SetAttributes(attribute.String("gate.verification", "no_token"))

			if gv.metrics != nil {
				gv.metrics.VerifyFailures.Add(ctx, 1, metric.WithAttributes(
					attribute.String("reason", "no_token"),
				))
			}

			gv.logger.InfoContext(ctx, "request without session token",
				slog.String("path", r.URL.Path),
				slog.String("trace_id", traceID))

			gv.handleMissingSession(w, r, errors.ErrSessionNotFound, traceID)
			return
		}

		start := time.Now()
		err := gv.keeper.VerifySession(ctx, token)
		verifyDuration := time.Since(start)

		if gv.metrics != nil {
			gv.metrics.VerifyAttempts.Add(ctx, 1, metric.WithAttributes(
				attribute.String("component", "gate_middleware"),
			))

			if err == nil {
				gv.metrics.VerifySuccess.Add(ctx, 1)
			} else {
				gv.metrics.VerifyFailures.Add(ctx, 1, metric.WithAttributes(
					attribute.String("reason", "verify_failed"),
				))
			}
		}

		span.SetAttributes(
			attribute.String("gate.verification", "performed"),
			attribute.Bool("gate.valid", err == nil),
			attribute.Float64("gate.duration_ms", float64(verifyDuration.Milliseconds())),
		)

		if err != nil {
			span.RecordError(err)

			gv.logger.InfoContext(ctx, "gate session verification failed",
				slog.String("error", err.Error()),
				slog.String("path", r.URL.Path),
				slog.String("trace_id", traceID),
				slog.Duration("verify_duration", verifyDuration))

			gv.handleMissingSession(w, r, err, traceID)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// shouldExcludePath checks if a path should be excluded from validation
func (gv *GateValidator) shouldExcludePath(path string) bool {
	// Check exact matches
	for _, excluded := range gv.excludePaths {
		if path == excluded {
			return true
		}
	}

	// Check prefix matches
	for _, prefix := range gv.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// handleGateNotConfigured responds to requests hitting a gate without a password
func (gv *GateValidator) handleGateNotConfigured(w http.ResponseWriter, r *http.Request, traceID string) {
	if isAPIRequest(r) {
		problem := errors.NewGateNotConfiguredError(traceID)
		render.Render(w, r, problem)
		return
	}

	http.Error(w, "Dashboard access is not configured. Ask an operator to set a password.", http.StatusServiceUnavailable)
}

// handleMissingSession responds to requests without a usable session
func (gv *GateValidator) handleMissingSession(w http.ResponseWriter, r *http.Request, err error, traceID string) {
	if isAPIRequest(r) {
		problem := errors.MapGateError(err, traceID)
		render.Render(w, r, problem)
		return
	}

	if gv.redirectOnFail {
		if gv.metrics != nil {
			gv.metrics.RedirectsTotal.Add(r.Context(), 1, metric.WithAttributes(
				attribute.String("reason", "no_session"),
			))
		}
		gv.redirectToLoginPage(w, r, "session")
		return
	}

	http.Error(w, "Please log in to view the dashboard.", http.StatusUnauthorized)
}

// redirectToLoginPage redirects the user to the login page
func (gv *GateValidator) redirectToLoginPage(w http.ResponseWriter, r *http.Request, reason string) {
	// Build redirect URL with context
	redirectURL := gv.loginPageURL
	if reason != "" {
		if strings.Contains(redirectURL, "?") {
			redirectURL += fmt.Sprintf("&reason=%s", reason)
		} else {
			redirectURL += fmt.Sprintf("?reason=%s", reason)
		}
	}

	// Add return URL for better UX
	if r.URL.Path != "/" && r.URL.Path != gv.loginPageURL {
		returnURL := r.URL.Path
		if r.URL.RawQuery != "" {
			returnURL += "?" + r.URL.RawQuery
		}
		if strings.Contains(redirectURL, "?") {
			redirectURL += fmt.Sprintf("&return=%s", returnURL)
		} else {
			redirectURL += fmt.Sprintf("?return=%s", returnURL)
		}
	}

	// Perform redirect
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// ExtractSessionToken pulls the session token from the cookie or, as a
// fallback for non-browser clients, the Authorization header.
func ExtractSessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// isAPIRequest checks if the request expects a JSON response
func isAPIRequest(r *http.Request) bool {
	// Check Accept header
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}

	// Check Content-Type header
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		return true
	}

	// Check path prefix
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// Configuration methods

// SetEnabled enables or disables gate validation
func (gv *GateValidator) SetEnabled(enabled bool) {
	gv.enabled = enabled
}

// SetRedirectOnFail sets whether to redirect to the login page on failure
func (gv *GateValidator) SetRedirectOnFail(redirect bool) {
	gv.redirectOnFail = redirect
}

// AddExcludePath adds a path to be excluded from gate validation
func (gv *GateValidator) AddExcludePath(path string) {
	gv.excludePaths = append(gv.excludePaths, path)
}

// AddExcludePrefix adds a path prefix to be excluded from gate validation
func (gv *GateValidator) AddExcludePrefix(prefix string) {
	gv.excludePrefixes = append(gv.excludePrefixes, prefix)
}

// SetMetrics sets the OpenTelemetry metrics for the middleware
func (gv *GateValidator) SetMetrics(metrics *GateMetrics) {
	gv.metrics = metrics
}

// NewGateMetrics registers the gate middleware instruments on a meter
func NewGateMetrics(meter metric.Meter) (*GateMetrics, error) {
	m := &GateMetrics{}
	var err error

	if m.RequestsTotal, err = meter.Int64Counter(
		"gate_requests_total",
		metric.WithDescription("Requests seen by the gate middleware"),
	); err != nil {
		return nil, err
	}

	if m.VerifyAttempts, err = meter.Int64Counter(
		"gate_verify_attempts_total",
		metric.WithDescription("Session verifications attempted"),
	); err != nil {
		return nil, err
	}

	if m.VerifySuccess, err = meter.Int64Counter(
		"gate_verify_success_total",
		metric.WithDescription("Session verifications that passed"),
	); err != nil {
		return nil, err
	}

	if m.VerifyFailures, err = meter.Int64Counter(
		"gate_verify_failures_total",
		metric.WithDescription("Session verifications that failed"),
	); err != nil {
		return nil, err
	}

	if m.PathExclusions, err = meter.Int64Counter(
		"gate_path_exclusions_total",
		metric.WithDescription("Requests skipped by the gate exclusion list"),
	); err != nil {
		return nil, err
	}

	if m.RedirectsTotal, err = meter.Int64Counter(
		"gate_redirects_total",
		metric.WithDescription("Browser requests redirected to the login page"),
	); err != nil {
		return nil, err
	}

	return m, nil
}
