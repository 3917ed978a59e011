package port

import (
	"context"
	"time"
)

// ExportRecord описывает одно экспортированное изображение.
type ExportRecord struct {
	ExportID    string
	ImageID     string
	ObjectKey   string
	URL         string
	ContentType string
	SizeBytes   int64
	ExportedAt  time.Time
}

// ExportManifestRepository определяет интерфейс хранения манифеста экспорта.
type ExportManifestRepository interface {
	PutBatch(ctx context.Context, records []ExportRecord) error
}
