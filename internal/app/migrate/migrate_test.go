package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestSourceDefaultsToEmbedded(t *testing.T) {
	source, origin, err := Source("")
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if origin != "embedded" {
		t.Fatalf("unexpected origin %q", origin)
	}
	matches, err := fs.Glob(source, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) < 5 {
		t.Fatalf("expected embedded migrations, got %v", matches)
	}
}

func TestSourceUsesDirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "00001_init.sql"), []byte("-- +goose Up\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	source, origin, err := Source(dir)
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if origin != dir {
		t.Fatalf("unexpected origin %q", origin)
	}
	if _, err := fs.Stat(source, "00001_init.sql"); err != nil {
		t.Fatalf("expected override file: %v", err)
	}
}

func TestSourceRejectsMissingDirectory(t *testing.T) {
	if _, _, err := Source(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNewRequiresPool(t *testing.T) {
	if _, err := New(nil, "", nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}
