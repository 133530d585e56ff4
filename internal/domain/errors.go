package domain

import "errors"

var (
	// ErrNotReady is returned by a source whose backing engine has not
	// finished initializing. Expected during the startup window; the
	// broadcast loop skips the cycle and never surfaces it to clients.
	ErrNotReady = errors.New("engine not ready")

	// ErrDuplicateSession is returned when a session id is already
	// registered. The registry keeps the original entry.
	ErrDuplicateSession = errors.New("duplicate session id")

	// ErrSessionClosed is returned when delivering to a session whose
	// transport has closed. Treated as an implicit disconnect.
	ErrSessionClosed = errors.New("session closed")
)
