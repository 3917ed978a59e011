package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// gzipResponseWriter decides on the first write whether the body is worth compressing.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	writer      io.Writer
	wroteHeader bool
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if shouldCompress(w.Header().Get("Content-Type")) && status != http.StatusNoContent {
		w.gz.Reset(w.ResponseWriter)
		w.writer = w.gz
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		w.Header().Del("Content-Length") // Will be different after compression
	} else {
		w.writer = w.ResponseWriter
	}

	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	return w.writer.Write(b)
}

func (w *gzipResponseWriter) close() {
	if w.writer == w.gz {
		_ = w.gz.Close()
	}
}

// gzipWriterPool reuses gzip writers to reduce allocations
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, 5)
		return w
	},
}

// Compression middleware adds gzip compression to text responses.
// Image bodies are already compressed and pass through untouched.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzipWriterPool.Get().(*gzip.Writer)
		gzw := &gzipResponseWriter{ResponseWriter: w, gz: gz}
		defer func() {
			gzw.close()
			gz.Reset(nil)
			gzipWriterPool.Put(gz)
		}()

		next.ServeHTTP(gzw, r)
	})
}

func shouldCompress(contentType string) bool {
	switch {
	case contentType == "":
		return false
	case strings.Contains(contentType, "image/"),
		strings.Contains(contentType, "video/"),
		strings.Contains(contentType, "application/zip"),
		strings.Contains(contentType, "application/gzip"):
		return false
	default:
		return true
	}
}
