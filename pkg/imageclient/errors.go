package imageclient

import (
	"errors"
	"fmt"
)

var (
	ErrNoFile          = errors.New("no file selected")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrMissingName     = errors.New("file name is required")
	ErrMissingImageID  = errors.New("image id is required")

	errEmptyPayload = errors.New("image payload is empty")
)

// ValidationError reports bad local input. It is returned before any network call.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

type UploadStage string

const (
	StageGrant    UploadStage = "grant"
	StageTransfer UploadStage = "transfer"
)

// UploadError reports a failed grant request or byte transfer.
type UploadError struct {
	Stage UploadStage
	Err   error
}

func (e *UploadError) Error() string {
	switch e.Stage {
	case StageGrant:
		return "upload failed: requesting upload url: " + e.Err.Error()
	case StageTransfer:
		return "upload failed: transferring file: " + e.Err.Error()
	default:
		return "upload failed: " + e.Err.Error()
	}
}

func (e *UploadError) Unwrap() error { return e.Err }

type ListError struct {
	Err error
}

func (e *ListError) Error() string { return "listing images failed: " + e.Err.Error() }
func (e *ListError) Unwrap() error { return e.Err }

type FetchError struct {
	ImageID string
	Err     error
}

func (e *FetchError) Error() string {
	if e.ImageID == "" {
		return "request failed: " + e.Err.Error()
	}
	return fmt.Sprintf("fetching image %q failed: %v", e.ImageID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type NotFoundError struct {
	ImageID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("image %q not found", e.ImageID) }

// DecodeError reports base64 data that does not decode to image bytes.
type DecodeError struct {
	ImageID string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.ImageID == "" {
		return "decoding image failed: " + e.Err.Error()
	}
	return fmt.Sprintf("decoding image %q failed: %v", e.ImageID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusError is the cause attached when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
