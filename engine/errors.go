package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for spawn and protocol conditions.
var (
	// ErrSpawnFailed indicates the worker process could not be started.
	ErrSpawnFailed = errors.New("worker spawn failed")

	// ErrProtocol indicates the worker emitted a message the engine could
	// not decode.
	ErrProtocol = errors.New("worker protocol violation")
)

// SpawnError carries the detail of a failed worker spawn.
type SpawnError struct {
	Runtime string
	Entry   string
	Err     error
}

// Error returns the error message.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning worker %s %s: %v", e.Runtime, e.Entry, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawnFailed || errors.Is(e.Err, target)
}
