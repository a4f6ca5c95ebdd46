package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pipeline"
)

// multipart parts beyond this stay on disk instead of in memory.
const formMemory = 32 << 20

var errTooLarge = errors.New("file too large")

// parseUploadForm caps the body at the configured upload size plus form
// overhead and parses it.
func (s *Server) parseUploadForm(w http.ResponseWriter, r *http.Request, files int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*files+1024*1024) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", mbe.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// saveUpload copies one uploaded file into dir under its sanitized base
// name and returns the new path.
func (s *Server) saveUpload(dir string, fh *multipart.FileHeader) (string, error) {
	name := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(name) {
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(name))
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	defer src.Close()

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	n, err := io.Copy(dst, io.LimitReader(src, s.cfg.MaxUploadBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	if n > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%s: %w (max %d bytes)", name, errTooLarge, s.cfg.MaxUploadBytes)
	}
	return path, nil
}

func uploadStatus(err error) int {
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// publishRun stores run for GET /api/runs/{id}, with temp paths reduced to
// the uploaded names.
func (s *Server) publishRun(w http.ResponseWriter, run *pipeline.Run) {
	for i := range run.Documents {
		run.Documents[i].Path = filepath.Base(run.Documents[i].Path)
	}
	s.runs.Put(run)
	w.Header().Set("X-Run-ID", run.ID)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = pipeline.EncodeJSON(w, v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Browsers may send Windows paths.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
