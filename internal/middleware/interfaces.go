package middleware

import "context"

// GateKeeper defines the interface for password-gate session checks.
// This allows for easier testing and decoupling from the concrete implementation
type GateKeeper interface {
	// Configured reports whether an access password has been set.
	Configured() bool
	// VerifySession checks a session token and returns nil when it is valid.
	VerifySession(ctx context.Context, token string) error
}
