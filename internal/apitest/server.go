// Package apitest runs an in-memory image API for tests: presigned uploads,
// listing, base64 views and raw downloads.
package apitest

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const grantTTLSeconds = 300

type object struct {
	contentType string
	data        []byte
}

type grant struct {
	imageID     string
	filename    string
	contentType string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	objects  map[string]object
	order    []string
	grants   map[string]grant
	requests map[string]int
}

func NewServer() *Server {
	s := &Server{
		objects:  make(map[string]object),
		grants:   make(map[string]grant),
		requests: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /api/upload-url", s.uploadURL)
	mux.HandleFunc("PUT /objects/{token}", s.putObject)
	mux.HandleFunc("GET /api/list-images", s.listImages)
	mux.HandleFunc("GET /api/view-image/{id}", s.viewImage)
	mux.HandleFunc("GET /api/images/{id}", s.rawImage)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return s
}

// Put stores an image directly, bypassing the upload flow.
func (s *Server) Put(imageID, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[imageID]; !exists {
		s.order = append(s.order, imageID)
	}
	s.objects[imageID] = object{contentType: contentType, data: data}
}

// ImageIDs returns stored ids in insertion order.
func (s *Server) ImageIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Requests returns how many times "METHOD /path" was hit.
func (s *Server) Requests(methodAndPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[methodAndPath]
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) uploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filename is required"})
		return
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	token := uuid.NewString()
	imageID := uuid.NewString()

	s.mu.Lock()
	s.grants[token] = grant{imageID: imageID, filename: req.Filename, contentType: req.ContentType}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"uploadUrl": s.URL + "/objects/" + token + "?X-Amz-Signature=test",
		"key":       "uploads/" + imageID + "_" + req.Filename,
		"expiresIn": grantTTLSeconds,
	})
}

func (s *Server) putObject(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	s.mu.Lock()
	g, ok := s.grants[token]
	if ok {
		delete(s.grants, token)
	}
	s.mu.Unlock()

	if !ok || r.URL.Query().Get("X-Amz-Signature") == "" {
		http.Error(w, "AccessDenied", http.StatusForbidden)
		return
	}
	if r.Header.Get("Content-Type") != g.contentType {
		http.Error(w, "SignatureDoesNotMatch", http.StatusForbidden)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}

	s.Put(g.imageID, g.contentType, data)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listImages(w http.ResponseWriter, _ *http.Request) {
	ids := s.ImageIDs()
	items := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]string{"imageId": id})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) viewImage(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookup(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"content_type": obj.contentType,
		"base64_data":  base64.StdEncoding.EncodeToString(obj.data),
	})
}

func (s *Server) rawImage(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookup(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found"})
		return
	}

	w.Header().Set("Content-Type", obj.contentType)
	_, _ = w.Write(obj.data)
}

func (s *Server) lookup(imageID string) (object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[strings.TrimSpace(imageID)]
	return obj, ok
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
