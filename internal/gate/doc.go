// Package gate implements the dashboard password gate: credential
// verification, session issuance, and per-client login throttling.
//
// The keeper holds exactly one shared credential. When a bcrypt hash is
// configured it wins over the plain password, so operators can migrate
// to hashed storage without a breaking config change. Sessions are
// opaque random tokens kept in memory; restarting the process logs
// everyone out, which is acceptable for a single-instance dashboard.
package gate
