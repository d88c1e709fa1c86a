package ikpose

import "errors"

// Sentinel errors. Operations wrap them with context, so callers should
// match with errors.Is.
var (
	// ErrConfiguration reports a malformed skeleton or chain at setup.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound reports a lookup by an unknown bone, joint or chain.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument reports an argument outside the accepted domain.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState reports an interaction call made in the wrong state.
	ErrInvalidState = errors.New("invalid state")
)
