package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dreschagin/image-gallery/internal/application/usecase"
	"github.com/dreschagin/image-gallery/pkg/imageclient"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

const defaultMaxUploadBytes = 10 * 1024 * 1024

// GalleryHandler обслуживает страницы локального просмотрщика галереи.
type GalleryHandler struct {
	listImagesUC   *usecase.ListImagesUseCase
	viewImageUC    *usecase.ViewImageUseCase
	uploadImageUC  *usecase.UploadImageUseCase
	maxUploadBytes int64
	logger         *logger.Logger
}

func NewGalleryHandler(
	listImagesUC *usecase.ListImagesUseCase,
	viewImageUC *usecase.ViewImageUseCase,
	uploadImageUC *usecase.UploadImageUseCase,
	maxUploadBytes int64,
	log *logger.Logger,
) *GalleryHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	return &GalleryHandler{
		listImagesUC:   listImagesUC,
		viewImageUC:    viewImageUC,
		uploadImageUC:  uploadImageUC,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// ShowGallery отображает список изображений и форму загрузки.
func (h *GalleryHandler) ShowGallery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// Рендерим в буфер, чтобы ошибка не оставила полуотправленную страницу.
	var buf bytes.Buffer
	if err := h.listImagesUC.Render(r.Context(), &buf); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeHTML(w, &buf)
}

func (h *GalleryHandler) ShowImage(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("id")

	var buf bytes.Buffer
	if err := h.viewImageUC.Render(r.Context(), &buf, imageID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeHTML(w, &buf)
}

// RawImage отдает декодированные байты изображения.
func (h *GalleryHandler) RawImage(w http.ResponseWriter, r *http.Request) {
	payload, err := h.viewImageUC.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data, err := payload.Decode()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", payload.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Upload принимает multipart форму с полем file, как браузерная форма.
func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	defer r.Body.Close()

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			http.Error(w, "No file selected", http.StatusBadRequest)
		default:
			http.Error(w, "Invalid upload form", http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	// Тип берется из заголовка части, как file.type в браузере; без него определяется по содержимому.
	_, err = h.uploadImageUC.Execute(r.Context(), usecase.UploadImageCommand{
		Name:        header.Filename,
		ContentType: strings.TrimSpace(header.Header.Get("Content-Type")),
		Data:        data,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *GalleryHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Gallery request failed", err, "path", r.URL.Path, "status", status)
	} else {
		h.logger.Warn("Gallery request rejected", "path", r.URL.Path, "status", status, "error", err.Error())
	}
	http.Error(w, err.Error(), status)
}

// StatusForError сопоставляет ошибки клиента с HTTP статусами.
func StatusForError(err error) int {
	var (
		validationErr *imageclient.ValidationError
		notFoundErr   *imageclient.NotFoundError
		decodeErr     *imageclient.DecodeError
		uploadErr     *imageclient.UploadError
		listErr       *imageclient.ListError
		fetchErr      *imageclient.FetchError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &decodeErr),
		errors.As(err, &uploadErr),
		errors.As(err, &listErr),
		errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeHTML(w http.ResponseWriter, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
