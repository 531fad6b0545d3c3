package services

import "errors"

// Service-level errors. The transport layer maps these onto RFC 7807
// responses.
var (
	// ErrTooManySites guards the site filter against unbounded fan-out.
	ErrTooManySites = errors.New("too many sites requested")

	// ErrUnknownTable is returned for an export table key that does not
	// exist.
	ErrUnknownTable = errors.New("unknown export table")
)
