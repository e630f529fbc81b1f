package sandbox

import (
	"errors"
	"fmt"
)

// ErrCacheNotReady indicates RunOperation was called before any successful
// cache setup for the slot.
var ErrCacheNotReady = errors.New("sandbox cache not ready")

// SetupError is a fatal cache setup failure. The sandbox was not prepared;
// the caller decides whether to retry or abandon the slot.
type SetupError struct {
	BoxID string
	Err   error
}

// Error returns the error message.
func (e *SetupError) Error() string {
	return fmt.Sprintf("setting up cache for box %s: %v", e.BoxID, e.Err)
}

// Unwrap returns the underlying error.
func (e *SetupError) Unwrap() error {
	return e.Err
}
