package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"videolens/internal/logging"
)

func makeDir(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(filepath.Join(path, "temp_video_clip.mp4"), make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldRequestDirectories(t *testing.T) {
	root := t.TempDir()
	oldDir := filepath.Join(root, "request-old")
	recentDir := filepath.Join(root, "request-recent")
	foreignDir := filepath.Join(root, "keep-me")
	makeDir(t, oldDir, 2*time.Hour)
	makeDir(t, recentDir, 0)
	makeDir(t, foreignDir, 5*time.Hour)

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected only %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
	if _, err := os.Stat(foreignDir); err != nil {
		t.Error("directories without the request prefix must be left alone")
	}
}

func TestCleanStaleZeroAgeRemovesAll(t *testing.T) {
	root := t.TempDir()
	makeDir(t, filepath.Join(root, "request-a"), 0)
	makeDir(t, filepath.Join(root, "request-b"), time.Minute)

	result := CleanStale(context.Background(), root, 0, logging.NewNop())
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", result.Removed)
	}
}

func TestListDirectories(t *testing.T) {
	root := t.TempDir()
	makeDir(t, filepath.Join(root, "request-a"), 0)
	if err := os.WriteFile(filepath.Join(root, "request-file"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	dirs, err := ListDirectories(root)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 dir, got %d", len(dirs))
	}
	if dirs[0].Name != "request-a" || dirs[0].Size != 100 {
		t.Fatalf("unexpected entry %+v", dirs[0])
	}
}
