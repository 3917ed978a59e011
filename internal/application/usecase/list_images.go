package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/dreschagin/image-gallery/internal/application/port"
	"github.com/dreschagin/image-gallery/pkg/imageclient"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

type ListImagesUseCase struct {
	gateway  port.ImageGateway
	renderer port.Renderer
	logger   *logger.Logger
}

func NewListImagesUseCase(gateway port.ImageGateway, renderer port.Renderer, log *logger.Logger) *ListImagesUseCase {
	return &ListImagesUseCase{
		gateway:  gateway,
		renderer: renderer,
		logger:   log,
	}
}

// Execute возвращает все изображения в порядке сервера.
func (uc *ListImagesUseCase) Execute(ctx context.Context) ([]imageclient.ImageDescriptor, error) {
	it, err := uc.gateway.ListImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	images, err := it.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	uc.logger.Debug("Images listed", "count", len(images))
	return images, nil
}

func (uc *ListImagesUseCase) Render(ctx context.Context, w io.Writer) error {
	images, err := uc.Execute(ctx)
	if err != nil {
		return err
	}
	return uc.renderer.RenderList(w, images)
}
