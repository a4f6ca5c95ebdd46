package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/ocr"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/relevance"
)

// TitleFallbacks supplies a title fallback for a PDF on disk.
type TitleFallbacks interface {
	Fallback(ctx context.Context, path string) func() (string, bool)
}

// Processor runs the outline and persona-analysis batches. Documents are
// handled one at a time; a document that cannot be parsed is logged and
// skipped without aborting the batch.
type Processor struct {
	cfg    config.Config
	log    *slog.Logger
	stats  *LatencyStats
	titles TitleFallbacks
	now    func() time.Time
}

// NewProcessor creates a processor. stats may be nil. When OCR is enabled,
// PDF titles fall back to Tesseract on the first page.
func NewProcessor(cfg config.Config, log *slog.Logger, stats *LatencyStats) *Processor {
	p := &Processor{
		cfg:   cfg,
		log:   log,
		stats: stats,
		now:   time.Now,
	}
	if cfg.OCREnabled {
		p.titles = ocr.NewTitleFinder(cfg.OCRLanguage, cfg.OCRDPI, log)
	}
	return p
}

// SetTitleFallbacks replaces the title fallback source; nil disables it.
func (p *Processor) SetTitleFallbacks(t TitleFallbacks) {
	p.titles = t
}

// Outline extracts the outline of a single document.
func (p *Processor) Outline(ctx context.Context, path string) (outline.Result, *Run, error) {
	run := newRun("outline")
	defer run.finish()
	log := p.log.With("run_id", run.ID)

	res, report := p.outlineOne(ctx, log, path)
	run.add(report)
	if report.Status != DocOK {
		return outline.Result{}, run, fmt.Errorf("outline %s: %s", filepath.Base(path), report.Error)
	}
	return res, run, nil
}

// OutlineFiles writes <outDir>/<name>.json for each document.
func (p *Processor) OutlineFiles(ctx context.Context, paths []string, outDir string) (*Run, error) {
	run := newRun("outline")
	defer run.finish()
	run.Output = outDir
	log := p.log.With("run_id", run.ID)
	log.Info("outline batch started", "documents", len(paths), "output_dir", outDir)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return run, fmt.Errorf("outline batch: %w", err)
		}
		res, report := p.outlineOne(ctx, log, path)
		if report.Status == DocOK {
			out := filepath.Join(outDir, OutlineFileName(path))
			if err := WriteJSON(out, res); err != nil {
				log.Error("write outline failed", "path", path, "error", err)
				report.Status = DocFailed
				report.Error = err.Error()
			} else {
				report.Output = out
			}
		}
		run.add(report)
	}

	log.Info("outline batch complete",
		"ok", run.Count(DocOK),
		"failed", run.Count(DocFailed),
	)
	return run, nil
}

// OutlineDir outlines every PDF in the configured input directory, in name
// order, into the configured output directory.
func (p *Processor) OutlineDir(ctx context.Context) (*Run, error) {
	paths, err := ListPDFs(p.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	return p.OutlineFiles(ctx, paths, p.cfg.OutputDir)
}

// OutlineFileName maps a document path to its outline artifact name.
func OutlineFileName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

// ListPDFs returns the PDF files directly inside dir, sorted by name.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

func (p *Processor) outlineOne(ctx context.Context, log *slog.Logger, path string) (outline.Result, DocReport) {
	log = log.With("path", path)
	start := time.Now()
	report := DocReport{Path: path}

	// pdftotext output has no font sizes, so it cannot drive heading levels.
	doc, err := parser.ParseFile(path, parser.Options{})
	if err != nil {
		report.Status = DocFailed
		report.Error = err.Error()
		report.DurationMs = time.Since(start).Milliseconds()
		p.stats.Record(formatOf(path), time.Since(start), true)
		log.Error("parse failed", "error", err)
		return outline.Result{}, report
	}

	var fallback outline.TitleFallback
	if p.titles != nil && isPDF(path) {
		fallback = p.titles.Fallback(ctx, path)
	}
	res := outline.Extract(doc, fallback)

	elapsed := time.Since(start)
	p.stats.Record(formatOf(path), elapsed, false)
	report.Status = DocOK
	report.Pages = len(doc.Pages)
	report.DurationMs = elapsed.Milliseconds()
	log.Info("outlined document", "title", res.Title, "headings", len(res.Outline), "duration_ms", report.DurationMs)
	return res, report
}

// Analyze ranks the sections of the documents at paths. Documents that fail
// to parse contribute no sections but stay listed as inputs.
func (p *Processor) Analyze(ctx context.Context, paths []string, persona, job string) (relevance.Result, *Run) {
	run := newRun("analyze")
	defer run.finish()
	log := p.log.With("run_id", run.ID)
	log.Info("analysis started", "documents", len(paths), "persona", persona, "job", job)

	sources := p.loadSources(ctx, log, paths, run)
	res := relevance.Analyzer{Now: p.now}.Analyze(sources, persona, job)

	log.Info("analysis complete",
		"sections", len(res.ExtractedSections),
		"subsections", len(res.SubsectionAnalysis),
		"failed", run.Count(DocFailed),
	)
	return res, run
}

// AnalyzeRefs resolves refs against baseDir and ranks the documents that
// exist. Missing references are reported as DocMissing and left out of the
// result's input documents. The result is nil when nothing resolves.
func (p *Processor) AnalyzeRefs(ctx context.Context, baseDir string, refs []string, persona, job string) (*relevance.Result, *Run) {
	paths, missing := ResolveDocuments(baseDir, refs, p.log)
	if len(paths) == 0 {
		run := newRun("analyze")
		for _, m := range missing {
			run.add(DocReport{Path: m, Status: DocMissing})
		}
		run.finish()
		p.log.Warn("no documents resolved, nothing written", "run_id", run.ID, "referenced", len(refs))
		return nil, run
	}

	res, run := p.Analyze(ctx, paths, persona, job)
	for _, m := range missing {
		run.add(DocReport{Path: m, Status: DocMissing})
	}
	return &res, run
}

// AnalyzeDescriptor reads the configured descriptor, resolves its documents
// against the input directory and writes the analysis artifact. It returns
// ErrNoDescriptor when there is no descriptor. When no document resolves,
// nothing is written and the run has an empty Output.
func (p *Processor) AnalyzeDescriptor(ctx context.Context) (*Run, error) {
	d, err := ReadDescriptor(p.cfg.DescriptorPath())
	if err != nil {
		return nil, err
	}

	res, run := p.AnalyzeRefs(ctx, p.cfg.InputDir, d.Documents, d.Persona, d.Job)
	if res == nil {
		return run, nil
	}
	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("analysis: %w", err)
	}

	out := p.cfg.AnalysisOutputPath()
	if err := WriteJSON(out, res); err != nil {
		return run, err
	}
	run.Output = out
	p.log.Info("analysis written", "run_id", run.ID, "output", out)
	return run, nil
}

func (p *Processor) loadSources(ctx context.Context, log *slog.Logger, paths []string, run *Run) []relevance.Source {
	opts := parser.Options{FallbackPdftotext: p.cfg.PDFFallbackPdftotext}
	sources := make([]relevance.Source, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		report := DocReport{Path: path}

		doc, err := parser.ParseFile(path, opts)
		elapsed := time.Since(start)
		p.stats.Record(formatOf(path), elapsed, err != nil)
		report.DurationMs = elapsed.Milliseconds()

		if err != nil {
			log.Error("parse failed, skipping document", "path", path, "error", err)
			report.Status = DocFailed
			report.Error = err.Error()
			run.add(report)
			sources = append(sources, relevance.Source{Name: filepath.Base(path)})
			continue
		}

		src := relevance.NewSource(doc)
		sources = append(sources, src)
		report.Status = DocOK
		report.Pages = len(doc.Pages)
		run.add(report)
		log.Debug("loaded document", "path", path, "pages", len(doc.Pages), "blocks", len(src.Blocks))
	}
	return sources
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func formatOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
