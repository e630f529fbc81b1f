package sandbox

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Engine file names inside a sandbox working directory. They are produced
// by cache setup and reused by every subsequent operation, so cleanup must
// leave them in place.
const (
	// EntryModule is the worker entry module, resolved by RunOperation.
	EntryModule = "index.js"

	// BundleFile and BundleSourceMap are the compiled bundle artifacts.
	BundleFile      = "bundle.js"
	BundleSourceMap = "bundle.js.map"

	// DependencyDir is the dependency directory of the snapshot.
	DependencyDir = "node_modules"

	// ManifestFile is the dependency manifest.
	ManifestFile = "package.json"
)

// DefaultEngineFiles is the default cleanup allow-list.
func DefaultEngineFiles() []string {
	return []string{EntryModule, BundleFile, BundleSourceMap, DependencyDir, ManifestFile}
}

// Filter deletes everything in a sandbox directory except an allow-list of
// entries needed to execute the next operation. The allow-list is injected
// configuration, not baked-in control flow.
type Filter struct {
	dir    string
	keep   map[string]struct{}
	logger *zap.Logger
}

// NewFilter creates a retention filter over dir keeping the named entries.
func NewFilter(dir string, keep []string, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	kept := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		kept[name] = struct{}{}
	}
	return &Filter{dir: dir, keep: kept, logger: logger}
}

// Clean removes every immediate child of the directory whose name is not in
// the allow-list. Regular files are deleted directly, everything else
// recursively. Errors are logged and never abort the pass: the slot stays
// available, and a later cache setup with a changed key recreates the
// directory wholesale. A missing directory is a no-op.
func (f *Filter) Clean(ctx context.Context) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("listing sandbox dir for cleanup",
				zap.String("dir", f.dir),
				zap.Error(err))
		}
		return
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			f.logger.Warn("cleanup interrupted", zap.Error(err))
			return
		}
		if _, ok := f.keep[entry.Name()]; ok {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		var rmErr error
		if entry.Type().IsRegular() {
			rmErr = os.Remove(path)
		} else {
			rmErr = os.RemoveAll(path)
		}
		if rmErr != nil {
			// Deletion debris stays behind; availability of the slot wins
			// over strict cleanliness.
			f.logger.Warn("removing sandbox entry",
				zap.String("path", path),
				zap.Error(rmErr))
		}
	}
}
