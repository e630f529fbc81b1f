// Package validation provides input sanitization for sandbox identifiers
// and filesystem paths.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for invalid inputs.
var (
	// ErrInvalidBoxID indicates a malformed sandbox slot identifier.
	ErrInvalidBoxID = errors.New("invalid box id")

	// ErrInvalidPath indicates an invalid path.
	ErrInvalidPath = errors.New("invalid path")

	// ErrPathTraversal indicates a path traversal attempt was detected.
	ErrPathTraversal = errors.New("path traversal detected")
)

// BoxID validates a sandbox slot identifier. The identifier becomes a
// directory name under the cache root, so it must not carry path separators
// or traversal sequences.
func BoxID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBoxID)
	}
	if strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: contains path separator", ErrInvalidBoxID)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidBoxID, id)
	}
	if strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: contains null byte", ErrInvalidBoxID)
	}
	return nil
}

// SanitizePath cleans a path and validates it for safety.
// Returns the cleaned path or an error if invalid.
func SanitizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	cleaned := filepath.Clean(path)

	if strings.Contains(cleaned, "..") {
		return "", ErrPathTraversal
	}

	if strings.ContainsRune(cleaned, 0) {
		return "", fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}

	return cleaned, nil
}

// IsPathSafe checks if a path is safe (no traversal, no null bytes).
func IsPathSafe(path string) bool {
	_, err := SanitizePath(path)
	return err == nil
}
