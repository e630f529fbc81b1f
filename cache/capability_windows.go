//go:build windows

package cache

// Windows cannot be relied on to create symlinks without elevated
// privileges, and POSIX permission bits do not round-trip. The copy degrades
// to flattened file contents with default modes.
const (
	preservesSymlinks = false
	preservesMode     = false
)
