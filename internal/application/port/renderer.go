package port

import (
	"io"

	"github.com/dreschagin/image-gallery/pkg/imageclient"
)

// Renderer отображает результаты клиента. Сам клиент ничего не знает о представлении.
type Renderer interface {
	RenderList(w io.Writer, images []imageclient.ImageDescriptor) error
	RenderImage(w io.Writer, imageID string, payload *imageclient.ImagePayload) error
}
