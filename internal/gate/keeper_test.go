package gate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"washpulse/internal/config"
	"washpulse/internal/errors"
)

func testKeeper(t *testing.T, cfg config.GateConfig) *Keeper {
	t.Helper()

	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.LoginRPS == 0 {
		cfg.LoginRPS = 100
	}
	if cfg.LoginBurst == 0 {
		cfg.LoginBurst = 100
	}

	k := NewKeeper(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	t.Cleanup(k.Close)
	return k
}

func TestKeeperConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.GateConfig
		want bool
	}{
		{
			name: "plain password only",
			cfg:  config.GateConfig{Password: "open sesame"},
			want: true,
		},
		{
			name: "bcrypt hash only",
			cfg:  config.GateConfig{PasswordHash: "$2a$10$abcdefghijklmnopqrstuv"},
			want: true,
		},
		{
			name: "both credentials",
			cfg:  config.GateConfig{Password: "open sesame", PasswordHash: "$2a$10$abcdefghijklmnopqrstuv"},
			want: true,
		},
		{
			name: "no credential",
			cfg:  config.GateConfig{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := testKeeper(t, tt.cfg)
			assert.Equal(t, tt.want, k.Configured())
		})
	}
}

func TestLoginIssuesSession(t *testing.T) {
	k := testKeeper(t, config.GateConfig{
		Password:   "open sesame",
		SessionTTL: 2 * time.Hour,
	})

	sess, err := k.Login(context.Background(), "open sesame", "10.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, sess.Token)
	assert.False(t, sess.IssuedAt.IsZero())
	assert.Equal(t, 2*time.Hour, sess.ExpiresAt.Sub(sess.IssuedAt))
	assert.Equal(t, 1, k.ActiveSessions())
}

func TestLoginWrongPassword(t *testing.T) {
	k := testKeeper(t, config.GateConfig{Password: "open sesame"})

	_, err := k.Login(context.Background(), "open says me", "10.0.0.1")
	assert.ErrorIs(t, err, errors.ErrPasswordMismatch)
	assert.Equal(t, 0, k.ActiveSessions())
}

func TestLoginHashTakesPrecedence(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed secret"), bcrypt.MinCost)
	require.NoError(t, err)

	k := testKeeper(t, config.GateConfig{
		Password:     "plain decoy",
		PasswordHash: string(hash),
	})

	// The plain password is ignored once a hash is configured.
	_, err = k.Login(context.Background(), "plain decoy", "10.0.0.1")
	assert.ErrorIs(t, err, errors.ErrPasswordMismatch)

	sess, err := k.Login(context.Background(), "hashed secret", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
}

func TestLoginUnconfiguredGate(t *testing.T) {
	k := testKeeper(t, config.GateConfig{})

	_, err := k.Login(context.Background(), "anything", "10.0.0.1")
	assert.ErrorIs(t, err, errors.ErrGateNotConfigured)
}

func TestLoginPasswordTooLong(t *testing.T) {
	k := testKeeper(t, config.GateConfig{Password: "open sesame"})

	oversized := strings.Repeat("a", config.MaxPasswordLength+1)
	_, err := k.Login(context.Background(), oversized, "10.0.0.1")
	assert.ErrorIs(t, err, errors.ErrPasswordTooLong)
}

func TestLoginThrottledPerClient(t *testing.T) {
	k := testKeeper(t, config.GateConfig{
		Password:   "open sesame",
		LoginRPS:   0.01,
		LoginBurst: 2,
	})
	ctx := context.Background()

	// Failed attempts consume the same budget as successful ones.
	_, err := k.Login(ctx, "wrong", "10.0.0.1")
	assert.ErrorIs(t, err, errors.ErrPasswordMismatch)
	_, err = k.Login(ctx, "wrong", "10.0.0.1")
	assert.ErrorIs(t, err, errors.ErrPasswordMismatch)

	_, err = k.Login(ctx, "open sesame", "10.0.0.1")
	assert.ErrorIs(t, err, errors.ErrTooManyAttempts)

	// A different client address has its own budget.
	sess, err := k.Login(ctx, "open sesame", "10.0.0.2")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
}

func TestVerifySessionLifecycle(t *testing.T) {
	k := testKeeper(t, config.GateConfig{Password: "open sesame"})
	ctx := context.Background()

	sess, err := k.Login(ctx, "open sesame", "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, k.VerifySession(ctx, sess.Token))

	assert.ErrorIs(t, k.VerifySession(ctx, "no-such-token"), errors.ErrSessionNotFound)

	assert.True(t, k.Logout(ctx, sess.Token))
	assert.ErrorIs(t, k.VerifySession(ctx, sess.Token), errors.ErrSessionNotFound)
}

func TestVerifySessionExpiredIsRevoked(t *testing.T) {
	k := testKeeper(t, config.GateConfig{
		Password:   "open sesame",
		SessionTTL: -time.Second,
	})
	ctx := context.Background()

	sess, err := k.Login(ctx, "open sesame", "10.0.0.1")
	require.NoError(t, err)

	assert.ErrorIs(t, k.VerifySession(ctx, sess.Token), errors.ErrSessionTimedOut)

	// The expired session is gone, so a retry reads as unknown.
	assert.ErrorIs(t, k.VerifySession(ctx, sess.Token), errors.ErrSessionNotFound)
	assert.Equal(t, 0, k.ActiveSessions())
}

func TestVerifySessionUnconfiguredGate(t *testing.T) {
	k := testKeeper(t, config.GateConfig{})

	err := k.VerifySession(context.Background(), "any-token")
	assert.ErrorIs(t, err, errors.ErrGateNotConfigured)
}

func TestLogoutUnknownToken(t *testing.T) {
	k := testKeeper(t, config.GateConfig{Password: "open sesame"})

	assert.False(t, k.Logout(context.Background(), "no-such-token"))
}

func TestKeeperCloseIsIdempotent(t *testing.T) {
	k := NewKeeper(config.GateConfig{Password: "open sesame"}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	k.Close()
	k.Close()
}

func TestKeeperDefaultsSessionTTL(t *testing.T) {
	k := NewKeeper(config.GateConfig{Password: "open sesame"}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	t.Cleanup(k.Close)

	assert.Equal(t, config.DefaultSessionTTL, k.SessionTTL())
}
