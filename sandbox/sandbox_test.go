package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/victoralfred/runbox/config"
	"github.com/victoralfred/runbox/validation"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CacheRoot = t.TempDir()
	return cfg
}

func TestNew_InvalidBoxID(t *testing.T) {
	for _, id := range []string{"", "a/b", "..", "a\x00b"} {
		if _, err := New(id, testConfig(t)); !errors.Is(err, validation.ErrInvalidBoxID) {
			t.Errorf("New(%q) error = %v, want ErrInvalidBoxID", id, err)
		}
	}
}

func TestNew_DirDerivation(t *testing.T) {
	cfg := testConfig(t)

	box, err := New("slot-1", cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got, want := box.Dir(), filepath.Join(cfg.CacheRoot, "sandbox", "slot-1"); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
	if box.BoxID() != "slot-1" {
		t.Errorf("BoxID() = %q, want %q", box.BoxID(), "slot-1")
	}
}

func TestRunOperation_BeforeSetup(t *testing.T) {
	box, err := New("slot-1", testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = box.RunOperation(context.Background(), "scoring", json.RawMessage(`{}`))
	if !errors.Is(err, ErrCacheNotReady) {
		t.Errorf("RunOperation() before SetupCache error = %v, want ErrCacheNotReady", err)
	}
}

func TestSetupCache_CopiesSnapshot(t *testing.T) {
	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, EntryModule), []byte("entry"), 0o644); err != nil {
		t.Fatal(err)
	}

	box, err := New("slot-1", testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := box.SetupCache(context.Background(), "deps-v1", source); err != nil {
		t.Fatalf("SetupCache() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(box.Dir(), EntryModule)); err != nil {
		t.Errorf("snapshot not materialized: %v", err)
	}
	if box.CacheKey() != "deps-v1" {
		t.Errorf("CacheKey() = %q, want %q", box.CacheKey(), "deps-v1")
	}
}

func TestSetupCache_UnchangedKeySkipsRecopy(t *testing.T) {
	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, EntryModule), []byte("entry"), 0o644); err != nil {
		t.Fatal(err)
	}

	box, err := New("slot-1", testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()
	if err := box.SetupCache(ctx, "deps-v1", source); err != nil {
		t.Fatalf("SetupCache() error = %v", err)
	}

	// A run artifact left in the slot must survive an unchanged setup.
	marker := filepath.Join(box.Dir(), "marker.txt")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := box.SetupCache(ctx, "deps-v1", source); err != nil {
		t.Fatalf("second SetupCache() error = %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("unchanged setup recopied the snapshot: %v", err)
	}

	// A changed key wipes the slot before copying.
	if err := box.SetupCache(ctx, "deps-v2", source); err != nil {
		t.Fatalf("changed-key SetupCache() error = %v", err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("changed-key setup kept stale contents: %v", err)
	}
}

func TestSetupCache_RejectsTraversalSource(t *testing.T) {
	box, err := New("slot-1", testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = box.SetupCache(context.Background(), "deps-v1", "../snapshots")
	if !errors.Is(err, validation.ErrPathTraversal) {
		t.Errorf("SetupCache() error = %v, want ErrPathTraversal", err)
	}
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Errorf("SetupCache() error = %T, want *SetupError", err)
	}
}

func TestSetupCache_MissingSource(t *testing.T) {
	box, err := New("slot-1", testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = box.SetupCache(context.Background(), "deps-v1", filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("SetupCache() with missing source succeeded, want error")
	}
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Errorf("SetupCache() error = %T, want *SetupError", err)
	}
	if box.CacheKey() != "" {
		t.Errorf("failed setup recorded cache key %q", box.CacheKey())
	}
}

func TestCleanUp_PreservesEngineFiles(t *testing.T) {
	source := t.TempDir()
	for _, name := range []string{EntryModule, ManifestFile} {
		if err := os.WriteFile(filepath.Join(source, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	box, err := New("slot-1", testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()
	if err := box.SetupCache(ctx, "deps-v1", source); err != nil {
		t.Fatalf("SetupCache() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(box.Dir(), "scratch.txt"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	box.CleanUp(ctx)

	if _, err := os.Stat(filepath.Join(box.Dir(), "scratch.txt")); !os.IsNotExist(err) {
		t.Error("CleanUp left a run artifact behind")
	}
	for _, name := range []string{EntryModule, ManifestFile} {
		if _, err := os.Stat(filepath.Join(box.Dir(), name)); err != nil {
			t.Errorf("CleanUp removed engine file %s: %v", name, err)
		}
	}
}
