package utils

import (
	"path/filepath"
	"testing"
)

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"app.plain", "app.js"},
		{"dir/app.pl", "dir/app.js"},
		{"app", "app.js"},
		{"app.js", "app.js.out.js"},
		{"a.b/c", "a.b/c.js"},
	}
	for _, tt := range tests {
		if got := DefaultOutputPath(tt.in); got != tt.want {
			t.Errorf("DefaultOutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetPathInfo(t *testing.T) {
	full, dir, err := GetPathInfo("testdata/../app.plain")
	if err != nil {
		t.Fatalf("GetPathInfo failed: %v", err)
	}
	if !filepath.IsAbs(full) {
		t.Errorf("expected an absolute path, got %q", full)
	}
	if filepath.Base(full) != "app.plain" {
		t.Errorf("unexpected file name in %q", full)
	}
	if dir != filepath.Dir(full) {
		t.Errorf("parent dir %q does not contain %q", dir, full)
	}
}
