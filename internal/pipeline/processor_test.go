package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/relevance"
)

const guideMarkdown = `# Field Research Methods Guide

This guide explains the methodology used to collect the dataset and evaluate performance across sites.

## Data Collection

Teams recorded observations daily. Each record was reviewed twice. Results were archived weekly. Analysis began after the season closed.
`

type testEnv struct {
	cfg config.Config
	in  string
	out string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.OCREnabled = false
	cfg.PDFFallbackPdftotext = false
	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return testEnv{cfg: cfg, in: cfg.InputDir, out: cfg.OutputDir}
}

func (e testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.in, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type countingFallbacks struct{ calls int }

func (c *countingFallbacks) Fallback(context.Context, string) func() (string, bool) {
	c.calls++
	return func() (string, bool) { return "Recovered Title", true }
}

func TestProcessor_OutlineSingle(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "guide.md", guideMarkdown)

	stats := NewLatencyStats(time.Hour)
	p := NewProcessor(env.cfg, discardLogger(), stats)
	res, run, err := p.Outline(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Field Research Methods Guide" {
		t.Errorf("unexpected title %q", res.Title)
	}
	// Sizes 24, 20 and 11 map to title, H1 and H2, so body paragraphs are H2.
	want := outline.Entry{Level: outline.LevelH1, Text: "Data Collection", Page: 1}
	if !slices.Contains(res.Outline, want) {
		t.Errorf("expected %+v in outline %+v", want, res.Outline)
	}
	if run.Count(DocOK) != 1 || stats.Snapshot().ByFormat[".md"] != 1 {
		t.Errorf("expected one recorded document, run=%+v", run)
	}
}

func TestProcessor_TitleFallbackOnlyForPDF(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "memo.md", "# Memo\n\nShort body.\n")

	p := NewProcessor(env.cfg, discardLogger(), nil)
	fb := &countingFallbacks{}
	p.SetTitleFallbacks(fb)

	res, _, err := p.Outline(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Memo" {
		t.Errorf("expected short title kept for markdown, got %q", res.Title)
	}
	if fb.calls != 0 {
		t.Errorf("expected no OCR fallback for markdown, got %d calls", fb.calls)
	}
}

func TestProcessor_OutlineFilesIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	paths := []string{
		env.write(t, "guide.md", guideMarkdown),
		env.write(t, "broken.pdf", "this is not a pdf"),
		env.write(t, "notes.txt", "Plain notes.\n\nSecond paragraph."),
	}

	p := NewProcessor(env.cfg, discardLogger(), nil)
	run, err := p.OutlineFiles(context.Background(), paths, env.out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Count(DocOK) != 2 || run.Count(DocFailed) != 1 {
		t.Fatalf("expected 2 ok and 1 failed, got %+v", run.Documents)
	}
	if run.Documents[1].Status != DocFailed || run.Documents[1].Error == "" {
		t.Errorf("expected broken.pdf to fail with an error, got %+v", run.Documents[1])
	}

	data, err := os.ReadFile(filepath.Join(env.out, "guide.json"))
	if err != nil {
		t.Fatalf("expected guide.json: %v", err)
	}
	var res outline.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Title != "Field Research Methods Guide" {
		t.Errorf("unexpected title %q", res.Title)
	}
	if _, err := os.Stat(filepath.Join(env.out, "notes.json")); err != nil {
		t.Errorf("expected notes.json: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.out, "broken.json")); !os.IsNotExist(err) {
		t.Errorf("expected no output for broken.pdf, got %v", err)
	}
}

func TestProcessor_OutlineDirPDFsInNameOrder(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "b.pdf", "garbage")
	env.write(t, "a.PDF", "garbage")
	env.write(t, "c.md", guideMarkdown)

	p := NewProcessor(env.cfg, discardLogger(), nil)
	run, err := p.OutlineDir(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(run.Documents) != 2 {
		t.Fatalf("expected only the 2 PDFs, got %+v", run.Documents)
	}
	if filepath.Base(run.Documents[0].Path) != "a.PDF" || filepath.Base(run.Documents[1].Path) != "b.pdf" {
		t.Errorf("expected name order, got %s, %s", run.Documents[0].Path, run.Documents[1].Path)
	}
}

func TestProcessor_OutlineDirMissingInput(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.InputDir = filepath.Join(env.in, "nope")
	if _, err := NewProcessor(env.cfg, discardLogger(), nil).OutlineDir(context.Background()); err == nil {
		t.Error("expected error for missing input dir")
	}
}

func TestProcessor_AnalyzeDescriptor(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "guide.md", guideMarkdown)
	env.write(t, "broken.pdf", "garbage")
	env.write(t, "input.json", `{
  "documents": [{"filename": "guide.md"}, "missing.pdf", "broken.pdf"],
  "persona": {"role": "Field Scientist"},
  "job_to_be_done": {"task": "Review the methodology"}
}`)

	p := NewProcessor(env.cfg, discardLogger(), nil)
	p.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC) }

	run, err := p.AnalyzeDescriptor(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Count(DocOK) != 1 || run.Count(DocFailed) != 1 || run.Count(DocMissing) != 1 {
		t.Errorf("unexpected run documents %+v", run.Documents)
	}
	if run.Output != env.cfg.AnalysisOutputPath() {
		t.Errorf("unexpected output %q", run.Output)
	}

	data, err := os.ReadFile(run.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var res relevance.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	docs := res.Metadata.InputDocuments
	if len(docs) != 2 || docs[0] != "guide.md" || docs[1] != "broken.pdf" {
		t.Errorf("unexpected input documents %v", docs)
	}
	if res.Metadata.Persona != "Field Scientist" || res.Metadata.JobToBeDone != "Review the methodology" {
		t.Errorf("unexpected metadata %+v", res.Metadata)
	}
	if res.Metadata.ProcessingTimestamp != "2025-01-02T03:04:05.000006" {
		t.Errorf("unexpected timestamp %q", res.Metadata.ProcessingTimestamp)
	}
	if len(res.ExtractedSections) != 2 {
		t.Fatalf("expected 2 sections, got %+v", res.ExtractedSections)
	}
	titles := make([]string, 0, len(res.ExtractedSections))
	for _, s := range res.ExtractedSections {
		if s.Document != "guide.md" {
			t.Errorf("unexpected section document %q", s.Document)
		}
		titles = append(titles, s.SectionTitle)
	}
	wantTitle := "This guide explains the methodology used to collect the dataset and evaluate ..."
	if !slices.Contains(titles, wantTitle) {
		t.Errorf("expected %q among %q", wantTitle, titles)
	}
}

func TestProcessor_AnalyzeRefsDropsMissing(t *testing.T) {
	env := newTestEnv(t)
	guide := env.write(t, "guide.md", guideMarkdown)
	p := NewProcessor(env.cfg, discardLogger(), nil)

	res, run := p.AnalyzeRefs(context.Background(), "", []string{guide, filepath.Join(env.in, "gone.pdf")}, "Scientist", "Review methods")
	if res == nil {
		t.Fatal("expected a result")
	}
	if docs := res.Metadata.InputDocuments; len(docs) != 1 || docs[0] != "guide.md" {
		t.Errorf("unexpected input documents %v", docs)
	}
	if run.Count(DocOK) != 1 || run.Count(DocMissing) != 1 {
		t.Errorf("unexpected run documents %+v", run.Documents)
	}

	res, run = p.AnalyzeRefs(context.Background(), env.in, []string{"gone.pdf"}, "Scientist", "Review methods")
	if res != nil || run.Count(DocMissing) != 1 {
		t.Errorf("expected no result and one missing document, got %v %+v", res, run.Documents)
	}
}

func TestProcessor_AnalyzeDescriptorMissing(t *testing.T) {
	env := newTestEnv(t)
	_, err := NewProcessor(env.cfg, discardLogger(), nil).AnalyzeDescriptor(context.Background())
	if !errors.Is(err, ErrNoDescriptor) {
		t.Errorf("expected ErrNoDescriptor, got %v", err)
	}
}

func TestProcessor_AnalyzeDescriptorNothingResolves(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "input.json", `{"documents": ["gone.pdf"], "persona": "p", "job": "j"}`)

	run, err := NewProcessor(env.cfg, discardLogger(), nil).AnalyzeDescriptor(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Output != "" || run.Count(DocMissing) != 1 {
		t.Errorf("unexpected run %+v", run)
	}
	if _, err := os.Stat(env.cfg.AnalysisOutputPath()); !os.IsNotExist(err) {
		t.Errorf("expected no output file, got %v", err)
	}
}

func TestProcessor_AnalyzeDescriptorMalformed(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "input.json", `{"documents": ["a.pdf"]}`)
	_, err := NewProcessor(env.cfg, discardLogger(), nil).AnalyzeDescriptor(context.Background())
	if err == nil || errors.Is(err, ErrNoDescriptor) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestWriteJSON_Unescaped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := WriteJSON(path, map[string]string{"title": "Café <R&D>"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"title\": \"Café <R&D>\"\n}\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, data)
	}
}

func TestOutlineFileName(t *testing.T) {
	tests := map[string]string{
		"/in/report.pdf": "report.json",
		"file.v2.PDF":    "file.v2.json",
		"/in/noext":      "noext.json",
	}
	for in, want := range tests {
		if got := OutlineFileName(in); got != want {
			t.Errorf("OutlineFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
