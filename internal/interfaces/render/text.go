package render

import (
	"fmt"
	"io"

	"github.com/dreschagin/image-gallery/pkg/imageclient"
)

// TextRenderer writes plain text for terminals and pipes.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// RenderList writes one image id per line.
func (r *TextRenderer) RenderList(w io.Writer, images []imageclient.ImageDescriptor) error {
	for _, image := range images {
		if _, err := fmt.Fprintln(w, image.ImageID); err != nil {
			return err
		}
	}
	return nil
}

// RenderImage writes "<id>\t<content type>\t<n> bytes".
func (r *TextRenderer) RenderImage(w io.Writer, imageID string, payload *imageclient.ImagePayload) error {
	data, err := payload.Decode()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s\t%d bytes\n", imageID, payload.ContentType, len(data))
	return err
}
