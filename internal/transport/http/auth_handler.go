package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "washpulse/internal/errors"
	"washpulse/internal/gate"
	"washpulse/internal/infrastructure"
	custommw "washpulse/internal/middleware"
)

// AuthHandler serves the session gate endpoints: login, logout and a
// status probe the frontend polls before deciding what to render.
type AuthHandler struct {
	keeper       GateAuthenticator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(keeper GateAuthenticator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		keeper:       keeper,
		logger:       logger.With(slog.String("component", "auth_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the auth routes. All three stay outside the gate
// middleware so a logged-out browser can reach them.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/status", h.Status)

	return r
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/auth/login. On success it sets the session
// cookie and echoes the session so non-browser clients can send the
// token as a bearer credential instead.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	traceID := infrastructure.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = reqID
	}

	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Request body must be JSON with a password field",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}

	clientAddr := custommw.GetRealIP(r)
	session, err := h.keeper.Login(ctx, req.Password, clientAddr)
	if err != nil {
		// The password itself is never logged.
		h.logger.WarnContext(ctx, "login rejected",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("remote_addr", clientAddr),
		)
		render.Render(w, r, apierrors.MapGateError(err, traceID))
		return
	}

	http.SetCookie(w, h.sessionCookie(session))

	h.logger.InfoContext(ctx, "login accepted",
		slog.String("request_id", reqID),
		slog.String("remote_addr", clientAddr),
		slog.Time("expires_at", session.ExpiresAt),
	)

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"session": session,
	})
}

// Logout handles POST /api/auth/logout. Revoking a missing or unknown
// token still succeeds: the cookie is cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	revoked := false
	if token := custommw.ExtractSessionToken(r); token != "" {
		revoked = h.keeper.Logout(ctx, token)
	}

	http.SetCookie(w, expiredSessionCookie())

	h.logger.InfoContext(ctx, "logout",
		slog.String("request_id", reqID),
		slog.Bool("revoked", revoked),
	)

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"revoked": revoked,
	})
}

// Status handles GET /api/auth/status. It never errors; the frontend
// uses it to pick between the password form, the dashboard, and the
// not-configured notice.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if token := custommw.ExtractSessionToken(r); token != "" {
		authenticated = h.keeper.VerifySession(r.Context(), token) == nil
	}

	render.JSON(w, r, map[string]interface{}{
		"configured":    h.keeper.Configured(),
		"authenticated": authenticated,
	})
}

// sessionCookie builds the HttpOnly cookie carrying the session token.
func (h *AuthHandler) sessionCookie(s gate.Session) *http.Cookie {
	return &http.Cookie{
		Name:     custommw.SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(h.keeper.SessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// expiredSessionCookie clears the session cookie in the browser.
func expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     custommw.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
