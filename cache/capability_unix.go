//go:build unix

package cache

// Copy capabilities on Unix systems: symlinks and permission bits survive
// the snapshot copy unchanged.
const (
	preservesSymlinks = true
	preservesMode     = true
)
