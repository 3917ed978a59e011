package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dreschagin/image-gallery/internal/application/port"
	"github.com/dreschagin/image-gallery/pkg/imageclient"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

// UploadImageCommand описывает загружаемый файл. Если Data пустой, файл читается по Path.
type UploadImageCommand struct {
	Path        string
	Name        string
	ContentType string
	Data        []byte
}

type UploadImageResult struct {
	Filename    string
	ContentType string
	SizeBytes   int
}

type UploadImageUseCase struct {
	gateway port.ImageGateway
	logger  *logger.Logger
}

func NewUploadImageUseCase(gateway port.ImageGateway, log *logger.Logger) *UploadImageUseCase {
	return &UploadImageUseCase{
		gateway: gateway,
		logger:  log,
	}
}

func (uc *UploadImageUseCase) Execute(ctx context.Context, cmd UploadImageCommand) (*UploadImageResult, error) {
	data := cmd.Data
	if data == nil {
		if strings.TrimSpace(cmd.Path) == "" {
			return nil, fmt.Errorf("file path is required")
		}

		raw, err := os.ReadFile(cmd.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", cmd.Path, err)
		}
		data = raw
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" && cmd.Path != "" {
		name = filepath.Base(cmd.Path)
	}

	contentType := strings.TrimSpace(cmd.ContentType)
	if contentType == "" {
		contentType = DetectContentType(data)
	}

	file := &imageclient.File{Name: name, Type: contentType, Data: data}
	if err := uc.gateway.RequestUpload(ctx, file); err != nil {
		uc.logger.Error("Failed to upload image", err, "filename", name, "content_type", contentType)
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}

	return &UploadImageResult{
		Filename:    name,
		ContentType: contentType,
		SizeBytes:   len(data),
	}, nil
}

// DetectContentType определяет MIME-тип по содержимому, без параметров.
func DetectContentType(data []byte) string {
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mediaType)
}
