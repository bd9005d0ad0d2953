package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

func (s *Server) setupRoutes() {
	s.router.Get("/health", healthCheck)
	s.router.Get("/"+constants.PostersRoute+"/{name}", s.servePoster)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data) //nolint:errcheck // client went away
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// posterName validates a requested file name. Only plain generated poster
// names are accepted.
func (s *Server) posterName(raw string) (string, bool) {
	name, err := url.PathUnescape(raw)
	if err != nil || name == "" {
		return "", false
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", false
	}
	if !strings.HasPrefix(name, s.prefix) {
		return "", false
	}
	return name, true
}

func (s *Server) servePoster(w http.ResponseWriter, r *http.Request) {
	name, ok := s.posterName(chi.URLParam(r, "name"))
	if !ok {
		respondError(w, http.StatusNotFound, "poster not found")
		return
	}

	path := filepath.Join(s.posterDir, name)
	info, err := s.fs.Stat(path)
	if err != nil || info.IsDir() {
		respondError(w, http.StatusNotFound, "poster not found")
		return
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		s.log.Warn("could not read poster", "path", path, "error", err)
		respondError(w, http.StatusInternalServerError, "could not read poster")
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(data))
}
