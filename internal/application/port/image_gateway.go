package port

import (
	"context"

	"github.com/dreschagin/image-gallery/pkg/imageclient"
)

// ImageGateway определяет операции удаленного хранилища изображений.
type ImageGateway interface {
	RequestUpload(ctx context.Context, file *imageclient.File) error
	ListImages(ctx context.Context) (*imageclient.ImageIterator, error)
	ViewImage(ctx context.Context, imageID string) (*imageclient.ImagePayload, error)
}
