package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestPutObjectWritesUnderRoot(t *testing.T) {
	root := t.TempDir()
	storage, err := NewExportStorage(root)
	if err != nil {
		t.Fatalf("NewExportStorage() error = %v", err)
	}

	path, err := storage.PutObject(context.Background(), "gallery/img1.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}

	if path != filepath.Join(root, "gallery", "img1.png") {
		t.Fatalf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png" {
		t.Fatalf("unexpected file contents: %q, %v", data, err)
	}

	// Overwrite replaces content.
	if _, err := storage.PutObject(context.Background(), "gallery/img1.png", "image/png", []byte("new")); err != nil {
		t.Fatalf("PutObject() overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "new" {
		t.Fatalf("overwrite failed: %q", data)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "gallery"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestPutObjectRejectsEscapingKeys(t *testing.T) {
	storage, err := NewExportStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewExportStorage() error = %v", err)
	}

	for _, key := range []string{"", "../outside.png", "/etc/passwd", "gallery/../../x.png"} {
		if _, err := storage.PutObject(context.Background(), key, "image/png", []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestPutObjectHonorsCanceledContext(t *testing.T) {
	storage, err := NewExportStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewExportStorage() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := storage.PutObject(ctx, "img1.png", "image/png", []byte("x")); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestNewExportStorageRequiresRoot(t *testing.T) {
	if _, err := NewExportStorage(" "); err == nil {
		t.Fatalf("expected error")
	}
}
