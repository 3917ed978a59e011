package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreschagin/image-gallery/internal/httpx"
	"github.com/dreschagin/image-gallery/internal/interfaces/http/handler"
	"github.com/dreschagin/image-gallery/internal/interfaces/http/middleware"
	"github.com/dreschagin/image-gallery/internal/metrics"
	"github.com/dreschagin/image-gallery/pkg/logger"
)

// Router настраивает маршруты просмотрщика
type Router struct {
	mux            *http.ServeMux
	galleryHandler *handler.GalleryHandler
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	logger         *logger.Logger
}

// NewRouter создает новый router. metrics и gatherer могут быть nil.
func NewRouter(
	galleryHandler *handler.GalleryHandler,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		galleryHandler: galleryHandler,
		metrics:        m,
		gatherer:       gatherer,
		logger:         logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	rt.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if rt.gatherer != nil {
		rt.mux.Handle("GET /metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}

	rt.mux.HandleFunc("GET /{$}", rt.galleryHandler.ShowGallery)
	rt.mux.HandleFunc("GET /images/{id}", rt.galleryHandler.ShowImage)
	rt.mux.HandleFunc("GET /images/{id}/raw", rt.galleryHandler.RawImage)
	rt.mux.HandleFunc("POST /upload", rt.galleryHandler.Upload)

	// Применяем middleware
	var h http.Handler = rt.mux
	h = middleware.Compression(h)
	if rt.metrics != nil {
		h = rt.metrics.Middleware(h)
	}
	h = middleware.Logger(rt.logger)(h)
	h = httpx.WithServerRequestID(h)
	h = middleware.Recovery(rt.logger)(h)

	return h
}
