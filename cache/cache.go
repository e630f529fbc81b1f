// Package cache materializes versioned dependency snapshots into sandbox
// working directories.
package cache

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Synchronizer copies an immutable snapshot tree into a sandbox working
// directory. It is safe to call when no operation is running against the
// same directory; callers serialize access per sandbox slot.
type Synchronizer struct {
	dir    string
	source string
	logger *zap.Logger
}

// NewSynchronizer creates a synchronizer for the given sandbox directory and
// snapshot source path. The source may be empty, in which case Sync only
// recreates the directory.
func NewSynchronizer(dir, source string, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{dir: dir, source: source, logger: logger}
}

// Sync materializes the snapshot. When changed is false the existing
// directory contents are trusted as-is and nothing is touched. When changed
// is true the directory is removed recursively, recreated empty, and the
// snapshot tree is copied in. Any I/O error aborts sandbox preparation.
func (s *Synchronizer) Sync(ctx context.Context, changed bool) error {
	if !changed {
		return nil
	}

	if _, err := os.Stat(s.dir); err == nil {
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("removing sandbox dir: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("inspecting sandbox dir: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating sandbox dir: %w", err)
	}

	if s.source == "" {
		return nil
	}

	s.logger.Debug("materializing cache snapshot",
		zap.String("source", s.source),
		zap.String("dir", s.dir))

	if err := copyTree(ctx, s.source, s.dir); err != nil {
		return fmt.Errorf("copying cache snapshot: %w", err)
	}
	return nil
}

// copyTree recursively copies the snapshot tree, preserving structure and
// file contents. Symlinks and permission bits are preserved where the
// platform capability constants allow; otherwise a degraded copy that
// flattens that metadata is performed.
func copyTree(ctx context.Context, source, dest string) error {
	return filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, dirMode(info))

		case d.Type()&fs.ModeSymlink != 0:
			if preservesSymlinks {
				link, err := os.Readlink(path)
				if err != nil {
					return err
				}
				return os.Symlink(link, target)
			}
			// Degraded fallback: flatten the link by copying its target
			// contents when it resolves to a regular file.
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
			return copyFile(path, target, info)

		default:
			info, err := d.Info()
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				// Sockets, devices and the like have no place in a
				// dependency snapshot.
				return nil
			}
			return copyFile(path, target, info)
		}
	})
}

func copyFile(path, target string, info fs.FileInfo) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode(info))
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func dirMode(info fs.FileInfo) fs.FileMode {
	if preservesMode {
		return info.Mode().Perm()
	}
	return 0o755
}

func fileMode(info fs.FileInfo) fs.FileMode {
	if preservesMode {
		return info.Mode().Perm()
	}
	return 0o644
}
