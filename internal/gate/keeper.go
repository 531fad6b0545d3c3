package gate

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"washpulse/internal/config"
	"washpulse/internal/errors"
	"washpulse/internal/infrastructure"
)

// Keeper verifies the shared dashboard password and manages the
// sessions it issues. It satisfies middleware.GateKeeper.
type Keeper struct {
	password     string
	passwordHash string
	ttl          time.Duration

	sessions *sessionStore
	limiters *loginLimiters
	logger   *slog.Logger
	metrics  *infrastructure.PipelineMetrics

	closeOnce sync.Once
	done      chan struct{}
}

// NewKeeper builds a keeper from the gate configuration and starts its
// background sweep of expired sessions. Call Close on shutdown.
func NewKeeper(cfg config.GateConfig, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}

	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = config.DefaultSessionTTL
	}

	k := &Keeper{
		password:     cfg.Password,
		passwordHash: cfg.PasswordHash,
		ttl:          ttl,
		sessions:     newSessionStore(),
		limiters:     newLoginLimiters(cfg.LoginRPS, cfg.LoginBurst),
		logger:       logger.With(slog.String("component", "gate")),
		metrics:      metrics,
		done:         make(chan struct{}),
	}

	go k.sweepLoop(config.SessionSweepInterval)

	return k
}

// Configured reports whether a credential is set. An unconfigured
// keeper refuses every login and every session check.
func (k *Keeper) Configured() bool {
	return k.password != "" || k.passwordHash != ""
}

// SessionTTL returns the lifetime applied to newly issued sessions.
func (k *Keeper) SessionTTL() time.Duration {
	return k.ttl
}

// Login checks the submitted password and issues a session on success.
// clientAddr scopes the login rate limit, so callers should pass the
// remote address of the request.
func (k *Keeper) Login(ctx context.Context, password, clientAddr string) (Session, error) {
	if !k.Configured() {
		k.recordLogin(ctx, "unconfigured")
		return Session{}, errors.ErrGateNotConfigured
	}

	if !k.limiters.allow(clientAddr) {
		k.logger.WarnContext(ctx, "login throttled",
			slog.String("client_addr", clientAddr),
		)
		k.recordLogin(ctx, "throttled")
		return Session{}, errors.ErrTooManyAttempts
	}

	if len(password) > config.MaxPasswordLength {
		k.recordLogin(ctx, "rejected")
		return Session{}, errors.ErrPasswordTooLong
	}

	if err := k.verifyPassword(password); err != nil {
		k.logger.WarnContext(ctx, "login failed",
			slog.String("client_addr", clientAddr),
		)
		k.recordLogin(ctx, "bad_password")
		return Session{}, err
	}

	sess := k.sessions.issue(k.ttl)
	k.logger.InfoContext(ctx, "dashboard session issued",
		slog.String("client_addr", clientAddr),
		slog.Time("expires_at", sess.ExpiresAt),
	)
	k.recordLogin(ctx, "success")

	return sess, nil
}

// VerifySession checks that token names a live session. Expired
// sessions are revoked on sight.
func (k *Keeper) VerifySession(ctx context.Context, token string) error {
	if !k.Configured() {
		return errors.ErrGateNotConfigured
	}

	sess, ok := k.sessions.get(token)
	if !ok {
		return errors.ErrSessionNotFound
	}

	if sess.Expired(time.Now()) {
		k.sessions.revoke(token)
		k.logger.InfoContext(ctx, "session expired",
			slog.Time("issued_at", sess.IssuedAt),
			slog.Time("expired_at", sess.ExpiresAt),
		)
		return errors.ErrSessionTimedOut
	}

	return nil
}

// Logout revokes the session for token and reports whether one existed.
func (k *Keeper) Logout(ctx context.Context, token string) bool {
	revoked := k.sessions.revoke(token)
	if revoked {
		k.logger.InfoContext(ctx, "dashboard session revoked")
	}
	return revoked
}

// ActiveSessions returns how many sessions are currently stored.
func (k *Keeper) ActiveSessions() int {
	return k.sessions.count()
}

// Close stops the background sweep. Safe to call more than once.
func (k *Keeper) Close() {
	k.closeOnce.Do(func() {
		close(k.done)
	})
}

// verifyPassword compares the submitted password against the configured
// credential. The bcrypt hash takes precedence when both are set.
func (k *Keeper) verifyPassword(password string) error {
	if k.passwordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(k.passwordHash), []byte(password)); err != nil {
			return errors.ErrPasswordMismatch
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(k.password), []byte(password)) != 1 {
		return errors.ErrPasswordMismatch
	}
	return nil
}

// sweepLoop periodically drops expired sessions and idle limiters.
func (k *Keeper) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-k.done:
			return
		case <-ticker.C:
			now := time.Now()
			if removed := k.sessions.sweep(now); removed > 0 {
				k.logger.Debug("expired sessions swept",
					slog.Int("removed", removed),
				)
			}
			k.limiters.prune(now)
		}
	}
}

// recordLogin emits the login attempt metric with its outcome.
func (k *Keeper) recordLogin(ctx context.Context, outcome string) {
	infrastructure.RecordGateLogin(ctx, k.metrics, outcome)
}
