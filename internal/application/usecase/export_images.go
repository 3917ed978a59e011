package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dreschagin/image-gallery/internal/application/port"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

const defaultExportConcurrency = 4

type ExportImagesCommand struct {
	Concurrency int
}

type ExportImagesResult struct {
	ExportID   string
	ExportedAt time.Time
	Items      []port.ExportRecord
}

type ExportImagesConfig struct {
	KeyPrefix   string
	Concurrency int
}

// ExportImagesUseCase копирует все изображения галереи во внешнее хранилище
// и, если настроено, записывает манифест экспорта.
type ExportImagesUseCase struct {
	gateway  port.ImageGateway
	storage  port.ExportStorage
	manifest port.ExportManifestRepository
	config   ExportImagesConfig
	logger   *logger.Logger
}

// NewExportImagesUseCase создает use case. manifest может быть nil.
func NewExportImagesUseCase(
	gateway port.ImageGateway,
	storage port.ExportStorage,
	manifest port.ExportManifestRepository,
	config ExportImagesConfig,
	log *logger.Logger,
) *ExportImagesUseCase {
	return &ExportImagesUseCase{
		gateway:  gateway,
		storage:  storage,
		manifest: manifest,
		config:   config,
		logger:   log,
	}
}

func (uc *ExportImagesUseCase) Execute(ctx context.Context, cmd ExportImagesCommand) (*ExportImagesResult, error) {
	if uc.storage == nil {
		return nil, fmt.Errorf("export storage is not configured")
	}

	it, err := uc.gateway.ListImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	images, err := it.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	concurrency := cmd.Concurrency
	if concurrency <= 0 {
		concurrency = uc.config.Concurrency
	}
	if concurrency <= 0 {
		concurrency = defaultExportConcurrency
	}

	exportID := uuid.NewString()
	exportedAt := time.Now().UTC()
	records := make([]port.ExportRecord, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, image := range images {
		g.Go(func() error {
			record, err := uc.exportOne(gctx, image.ImageID)
			if err != nil {
				uc.logger.Error("Failed to export image", err, "image_id", image.ImageID, "export_id", exportID)
				return fmt.Errorf("failed to export %s: %w", image.ImageID, err)
			}

			record.ExportID = exportID
			record.ExportedAt = exportedAt
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if uc.manifest != nil && len(records) > 0 {
		if err := uc.manifest.PutBatch(ctx, records); err != nil {
			return nil, fmt.Errorf("failed to write export manifest: %w", err)
		}
	}

	uc.logger.Info("Images exported", "export_id", exportID, "count", len(records))

	return &ExportImagesResult{
		ExportID:   exportID,
		ExportedAt: exportedAt,
		Items:      records,
	}, nil
}

func (uc *ExportImagesUseCase) exportOne(ctx context.Context, imageID string) (port.ExportRecord, error) {
	payload, err := uc.gateway.ViewImage(ctx, imageID)
	if err != nil {
		return port.ExportRecord{}, err
	}

	data, err := payload.Decode()
	if err != nil {
		return port.ExportRecord{}, err
	}

	key := uc.buildObjectKey(imageID, payload.ContentType, data)
	location, err := uc.storage.PutObject(ctx, key, payload.ContentType, data)
	if err != nil {
		return port.ExportRecord{}, err
	}

	return port.ExportRecord{
		ImageID:     imageID,
		ObjectKey:   key,
		URL:         location,
		ContentType: payload.ContentType,
		SizeBytes:   int64(len(data)),
	}, nil
}

func (uc *ExportImagesUseCase) buildObjectKey(imageID, contentType string, data []byte) string {
	prefix := strings.Trim(uc.config.KeyPrefix, "/")
	name := url.PathEscape(imageID) + ExtensionFor(contentType, data)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// ExtensionFor подбирает расширение по заявленному типу, затем по содержимому.
func ExtensionFor(contentType string, data []byte) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	if known := mimetype.Lookup(strings.TrimSpace(mediaType)); known != nil && known.Extension() != "" {
		return known.Extension()
	}
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	return ".bin"
}
