package mirror

import "errors"

// Common errors returned by remote mirror operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, mirror.ErrConflict) {
//	    // another session pushed since our last fetch
//	}
var (
	// ErrNotFound is returned when the remote object does not exist.
	// On fetch this is not a failure: the local file is initialized
	// locally instead.
	ErrNotFound = errors.New("remote object not found")

	// ErrConflict is returned when a push carried a stale revision
	// marker and the remote rejected the update. The local write has
	// already happened; the caller decides whether to re-fetch or
	// report and stop.
	ErrConflict = errors.New("remote revision conflict")

	// ErrUnauthorized is returned when the remote rejects the access
	// token. Reads against a public store may still work without one.
	ErrUnauthorized = errors.New("remote rejected access token")

	// ErrRemoteUnavailable is returned for network failures and 5xx
	// responses. Fetch falls back to local content on this error.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// IsRetryable reports whether a push is worth retrying as-is.
// Conflicts need a fetch first and auth errors need a new token,
// so only transient remote failures qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}
