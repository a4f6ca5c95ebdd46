package api

import (
	"net/http"
	"os"
	"strings"
)

// maxAnalyzeFiles bounds one analysis request.
const maxAnalyzeFiles = 20

// handleAnalyze ranks the sections of the uploaded documents (form field
// "files", repeated) for the "persona" and "job" form values.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.parseUploadForm(w, r, maxAnalyzeFiles) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	persona := strings.TrimSpace(r.FormValue("persona"))
	job := strings.TrimSpace(r.FormValue("job"))
	if persona == "" || job == "" {
		jsonError(w, "persona and job are required", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > maxAnalyzeFiles {
		jsonError(w, "too many files", http.StatusBadRequest)
		return
	}

	dir, err := os.MkdirTemp("", "docoutline-analyze-*")
	if err != nil {
		jsonError(w, "failed to stage uploads", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	paths := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, fh := range files {
		name := sanitizeFilename(fh.Filename)
		if seen[name] {
			jsonError(w, "duplicate file name: "+name, http.StatusBadRequest)
			return
		}
		seen[name] = true

		path, err := s.saveUpload(dir, fh)
		if err != nil {
			jsonError(w, err.Error(), uploadStatus(err))
			return
		}
		paths = append(paths, path)
	}

	res, run := s.proc.Analyze(r.Context(), paths, persona, job)
	s.publishRun(w, run)
	writeJSON(w, http.StatusOK, res)
}
