package port

import "context"

// ExportStorage определяет интерфейс для хранения экспортированных изображений.
type ExportStorage interface {
	// PutObject сохраняет объект и возвращает URL (или путь) для чтения.
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)
}
