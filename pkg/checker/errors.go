package checker

import "errors"

var (
	// ErrProbeUnreachable means no HTTP response was obtained at all (DNS
	// failure, refused connection, timeout). It is distinct from a response
	// with an unexpected status, which is classified as down.
	ErrProbeUnreachable = errors.New("probe unreachable")
)
