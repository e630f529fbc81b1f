package validation

import (
	"errors"
	"testing"
)

func TestBoxID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "abc", false},
		{"with dash and digits", "slot-42", false},
		{"empty", "", true},
		{"forward slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BoxID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("BoxID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBoxID) {
				t.Errorf("BoxID(%q) error = %v, want ErrInvalidBoxID", tt.id, err)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
	}{
		{"clean absolute", "/var/cache/sandbox", "/var/cache/sandbox", nil},
		{"redundant separators", "/var//cache/", "/var/cache", nil},
		{"empty", "", "", ErrInvalidPath},
		{"traversal", "/var/../../etc", "", ErrPathTraversal},
		{"relative traversal", "../secrets", "", ErrPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SanitizePath(%q) error = %v, want %v", tt.path, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizePath(%q) error = %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsPathSafe(t *testing.T) {
	if !IsPathSafe("/var/cache") {
		t.Error("IsPathSafe(/var/cache) = false, want true")
	}
	if IsPathSafe("../escape") {
		t.Error("IsPathSafe(../escape) = true, want false")
	}
}
