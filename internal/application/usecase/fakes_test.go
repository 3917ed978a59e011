package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dreschagin/image-gallery/internal/application/port"
	"github.com/dreschagin/image-gallery/pkg/imageclient"
)

const minimalPngBase64 = "iVBORw0KGgo="

type mockImageGateway struct {
	mu       sync.Mutex
	images   map[string]*imageclient.ImagePayload
	order    []string
	listErr  error
	viewErr  map[string]error
	uploaded []*imageclient.File
	uploadFn func(file *imageclient.File) error
}

func newMockImageGateway() *mockImageGateway {
	return &mockImageGateway{
		images:  make(map[string]*imageclient.ImagePayload),
		viewErr: make(map[string]error),
	}
}

func (m *mockImageGateway) add(imageID, contentType, base64Data string) {
	m.images[imageID] = &imageclient.ImagePayload{ContentType: contentType, Base64Data: base64Data}
	m.order = append(m.order, imageID)
}

func (m *mockImageGateway) RequestUpload(_ context.Context, file *imageclient.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded = append(m.uploaded, file)
	if m.uploadFn != nil {
		return m.uploadFn(file)
	}
	return nil
}

func (m *mockImageGateway) ListImages(_ context.Context) (*imageclient.ImageIterator, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	descriptors := make([]imageclient.ImageDescriptor, 0, len(m.order))
	for _, id := range m.order {
		descriptors = append(descriptors, imageclient.ImageDescriptor{ImageID: id})
	}
	body, _ := json.Marshal(descriptors)
	return imageclient.NewImageIterator(io.NopCloser(strings.NewReader(string(body)))), nil
}

func (m *mockImageGateway) ViewImage(_ context.Context, imageID string) (*imageclient.ImagePayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.viewErr[imageID]; ok {
		return nil, err
	}
	payload, ok := m.images[imageID]
	if !ok {
		return nil, &imageclient.NotFoundError{ImageID: imageID}
	}
	copied := *payload
	return &copied, nil
}

type putCall struct {
	key         string
	contentType string
	body        []byte
}

type mockExportStorage struct {
	mu    sync.Mutex
	calls []putCall
	errAt map[string]error
}

func (m *mockExportStorage) PutObject(_ context.Context, key, contentType string, body []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, putCall{key: key, contentType: contentType, body: body})
	if err, ok := m.errAt[key]; ok {
		return "", err
	}
	return "https://example.com/" + key, nil
}

type mockManifestRepository struct {
	batches [][]port.ExportRecord
	err     error
}

func (m *mockManifestRepository) PutBatch(_ context.Context, records []port.ExportRecord) error {
	m.batches = append(m.batches, records)
	return m.err
}

type recordingRenderer struct {
	lists  [][]imageclient.ImageDescriptor
	images []string
}

func (r *recordingRenderer) RenderList(w io.Writer, images []imageclient.ImageDescriptor) error {
	r.lists = append(r.lists, images)
	_, err := fmt.Fprintf(w, "%d images", len(images))
	return err
}

func (r *recordingRenderer) RenderImage(w io.Writer, imageID string, payload *imageclient.ImagePayload) error {
	r.images = append(r.images, imageID)
	_, err := fmt.Fprintf(w, "%s %s", imageID, payload.ContentType)
	return err
}
