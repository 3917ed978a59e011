package imageclient

import (
	"encoding/base64"
	"strings"
)

const defaultContentType = "application/octet-stream"

// File is a locally selected file about to be uploaded.
type File struct {
	Name string
	Type string
	Data []byte
}

// ImageDescriptor identifies one stored image.
type ImageDescriptor struct {
	ImageID string `json:"imageId"`
}

type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// UploadGrant is a single-use destination for one upload. Key and ExpiresIn are informational.
type UploadGrant struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// ImagePayload is an image as returned by the view endpoint.
type ImagePayload struct {
	ContentType string `json:"content_type"`
	Base64Data  string `json:"base64_data"`
}

// Decode returns the raw image bytes. Invalid or empty data yields a *DecodeError.
func (p *ImagePayload) Decode() ([]byte, error) {
	data := strings.TrimSpace(p.Base64Data)
	if data == "" {
		return nil, &DecodeError{Err: errEmptyPayload}
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(decoded) == 0 {
		return nil, &DecodeError{Err: errEmptyPayload}
	}

	return decoded, nil
}

func (p *ImagePayload) DataURL() string {
	return "data:" + p.ContentType + ";base64," + p.Base64Data
}

// newUploadRequest sends the type in the normalized form it was validated in.
func newUploadRequest(file *File) UploadRequest {
	contentType := normalizeType(file.Type)
	if contentType == "" {
		contentType = defaultContentType
	}
	return UploadRequest{Filename: file.Name, ContentType: contentType}
}

func normalizeType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(contentType))
}
