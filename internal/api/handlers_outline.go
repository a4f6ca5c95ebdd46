package api

import (
	"net/http"
	"os"
)

// handleOutline extracts the title and heading outline of one uploaded
// document (form field "file").
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	if !s.parseUploadForm(w, r, 1) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}

	dir, err := os.MkdirTemp("", "docoutline-outline-*")
	if err != nil {
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	path, err := s.saveUpload(dir, files[0])
	if err != nil {
		jsonError(w, err.Error(), uploadStatus(err))
		return
	}

	res, run, err := s.proc.Outline(r.Context(), path)
	s.publishRun(w, run)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  err.Error(),
			"run_id": run.ID,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}
