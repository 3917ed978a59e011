package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/dreschagin/image-gallery/internal/application/port"
	"github.com/dreschagin/image-gallery/pkg/imageclient"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

type ViewImageUseCase struct {
	gateway  port.ImageGateway
	renderer port.Renderer
	logger   *logger.Logger
}

func NewViewImageUseCase(gateway port.ImageGateway, renderer port.Renderer, log *logger.Logger) *ViewImageUseCase {
	return &ViewImageUseCase{
		gateway:  gateway,
		renderer: renderer,
		logger:   log,
	}
}

func (uc *ViewImageUseCase) Execute(ctx context.Context, imageID string) (*imageclient.ImagePayload, error) {
	payload, err := uc.gateway.ViewImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to view image %s: %w", imageID, err)
	}
	return payload, nil
}

func (uc *ViewImageUseCase) Render(ctx context.Context, w io.Writer, imageID string) error {
	payload, err := uc.Execute(ctx, imageID)
	if err != nil {
		return err
	}
	return uc.renderer.RenderImage(w, imageID, payload)
}
