package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dreschagin/image-gallery/pkg/imageclient"
)

const minimalPngBase64 = "iVBORw0KGgo="

func TestTextRendererList(t *testing.T) {
	var buf bytes.Buffer
	images := []imageclient.ImageDescriptor{{ImageID: "img1"}, {ImageID: "img2"}}

	if err := NewTextRenderer().RenderList(&buf, images); err != nil {
		t.Fatalf("RenderList() error = %v", err)
	}
	if buf.String() != "img1\nimg2\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestTextRendererEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextRenderer().RenderList(&buf, nil); err != nil {
		t.Fatalf("RenderList() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestTextRendererImage(t *testing.T) {
	var buf bytes.Buffer
	payload := &imageclient.ImagePayload{ContentType: "image/png", Base64Data: minimalPngBase64}

	if err := NewTextRenderer().RenderImage(&buf, "img1", payload); err != nil {
		t.Fatalf("RenderImage() error = %v", err)
	}
	if buf.String() != "img1\timage/png\t8 bytes\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestHTMLRendererEscapesImageIDs(t *testing.T) {
	var buf bytes.Buffer
	images := []imageclient.ImageDescriptor{{ImageID: "img1"}, {ImageID: `<script>alert(1)</script>`}}

	if err := NewHTMLRenderer().RenderList(&buf, images); err != nil {
		t.Fatalf("RenderList() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Fatalf("image id was not escaped: %s", out)
	}
	if !strings.Contains(out, `href="/images/img1"`) {
		t.Fatalf("missing link for img1: %s", out)
	}
	if !strings.Contains(out, `name="file"`) {
		t.Fatalf("missing upload form: %s", out)
	}
}

func TestHTMLRendererEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := NewHTMLRenderer().RenderList(&buf, nil); err != nil {
		t.Fatalf("RenderList() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No images yet.") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestHTMLRendererImage(t *testing.T) {
	var buf bytes.Buffer
	payload := &imageclient.ImagePayload{ContentType: "image/png", Base64Data: minimalPngBase64}

	if err := NewHTMLRenderer().RenderImage(&buf, "img1", payload); err != nil {
		t.Fatalf("RenderImage() error = %v", err)
	}
	if !strings.Contains(buf.String(), `src="data:image/png;base64,iVBORw0KGgo="`) {
		t.Fatalf("missing data url: %s", buf.String())
	}
}

func TestRenderersRejectUndecodablePayload(t *testing.T) {
	payload := &imageclient.ImagePayload{ContentType: "image/png", Base64Data: "***"}

	if err := NewTextRenderer().RenderImage(&bytes.Buffer{}, "img1", payload); err == nil {
		t.Fatalf("text renderer: expected error")
	}
	if err := NewHTMLRenderer().RenderImage(&bytes.Buffer{}, "img1", payload); err == nil {
		t.Fatalf("html renderer: expected error")
	}
}
