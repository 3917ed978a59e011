package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExportStorage пишет экспортированные изображения в локальный каталог.
type ExportStorage struct {
	root string
}

func NewExportStorage(root string) (*ExportStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("export directory is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve export directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	return &ExportStorage{root: abs}, nil
}

// PutObject записывает объект атомарно (временный файл + rename) и возвращает путь к нему.
func (s *ExportStorage) PutObject(ctx context.Context, key, _ string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}

	return target, nil
}

func (s *ExportStorage) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("object key %q escapes export directory", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
