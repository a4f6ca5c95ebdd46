package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/relevance"
)

const guideMarkdown = `# Field Research Methods Guide

This guide explains the methodology used to collect the dataset and evaluate performance across sites.

## Data Collection

Teams recorded observations daily. Each record was reviewed twice. Results were archived weekly.
`

type upload struct {
	field, name, content string
}

func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.InputDir = t.TempDir()
	cfg.OutputDir = t.TempDir()
	cfg.OCREnabled = false
	cfg.PDFFallbackPdftotext = false
	cfg.APIKey = apiKey
	cfg.MaxUploadBytes = 4096

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	stats := pipeline.NewLatencyStats(time.Hour)
	proc := pipeline.NewProcessor(cfg, log, stats)
	return NewServer(proc, pipeline.NewRunStore(time.Hour), stats, log, cfg)
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, f.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "secret")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, "secret")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func TestOutline(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, multipartRequest(t, "/api/outline", nil, upload{"file", "guide.md", guideMarkdown}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res outline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Title != "Field Research Methods Guide" {
		t.Errorf("unexpected title %q", res.Title)
	}

	runID := rec.Header().Get("X-Run-ID")
	if runID == "" {
		t.Fatal("expected X-Run-ID header")
	}
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+runID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected run lookup 200, got %d", rec.Code)
	}
	var run pipeline.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if len(run.Documents) != 1 || run.Documents[0].Path != "guide.md" || run.Documents[0].Status != pipeline.DocOK {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestOutline_Errors(t *testing.T) {
	s := newTestServer(t, "")
	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"no file", multipartRequest(t, "/api/outline", map[string]string{"x": "y"}), http.StatusBadRequest},
		{"unsupported", multipartRequest(t, "/api/outline", nil, upload{"file", "image.png", "png"}), http.StatusBadRequest},
		{"too large", multipartRequest(t, "/api/outline", nil, upload{"file", "big.txt", string(bytes.Repeat([]byte("a"), 5000))}), http.StatusRequestEntityTooLarge},
		{"unparseable", multipartRequest(t, "/api/outline", nil, upload{"file", "broken.pdf", "not a pdf"}), http.StatusUnprocessableEntity},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/api/outline", bytes.NewBufferString("{}")), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, tt.req)
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, "")
	req := multipartRequest(t, "/api/analyze",
		map[string]string{"persona": "Field Scientist", "job": "Review the methodology"},
		upload{"files", "guide.md", guideMarkdown},
		upload{"files", "notes.txt", "Short."},
	)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res relevance.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	docs := res.Metadata.InputDocuments
	if len(docs) != 2 || docs[0] != "guide.md" || docs[1] != "notes.txt" {
		t.Errorf("unexpected input documents %v", docs)
	}
	if len(res.ExtractedSections) == 0 {
		t.Error("expected ranked sections")
	}
	if res.Metadata.Persona != "Field Scientist" {
		t.Errorf("unexpected persona %q", res.Metadata.Persona)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	s := newTestServer(t, "")
	tests := []struct {
		name string
		req  *http.Request
	}{
		{"missing persona", multipartRequest(t, "/api/analyze", map[string]string{"job": "j"}, upload{"files", "a.md", "# A"})},
		{"no files", multipartRequest(t, "/api/analyze", map[string]string{"persona": "p", "job": "j"})},
		{"duplicate names", multipartRequest(t, "/api/analyze", map[string]string{"persona": "p", "job": "j"},
			upload{"files", "a.md", "# A"}, upload{"files", "dir/a.md", "# B"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRun_NotFound(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, multipartRequest(t, "/api/outline", nil, upload{"file", "guide.md", guideMarkdown}))

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var body struct {
		Stats pipeline.StatsSnapshot `json:"stats"`
		Runs  int                    `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stats.Documents != 1 || body.Runs != 1 {
		t.Errorf("unexpected stats %+v", body)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		"../../etc/passwd.txt": "passwd.txt",
		`C:\Users\me\notes.md`: "notes.md",
		"":                     "unnamed",
		"a..b.md":              "a_b.md",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
