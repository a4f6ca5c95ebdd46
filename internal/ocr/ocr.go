// Package ocr recovers a document title from the first page image when the
// PDF has no usable text layer.
//
// Page images come from pdftoppm (poppler-utils) or, failing that, from images
// embedded in the PDF. Recognition uses Tesseract via gosseract. On
// Ubuntu/Debian:
//
//	apt-get install tesseract-ocr poppler-utils
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	titleLines    = 3
	minTitleRunes = 10
	maxTitleRunes = 200
)

// TitleFinder OCRs the first page of a PDF to find a title.
type TitleFinder struct {
	Renderer Renderer
	Engine   Engine
	Log      *slog.Logger
}

// NewTitleFinder returns a finder that renders with pdftoppm at dpi, falls
// back to embedded page images, and recognizes with Tesseract in lang.
func NewTitleFinder(lang string, dpi int, log *slog.Logger) *TitleFinder {
	return &TitleFinder{
		Renderer: ChainRenderer{PopplerRenderer{DPI: dpi}, EmbeddedImageRenderer{}},
		Engine:   Tesseract{Language: lang},
		Log:      log,
	}
}

// Title returns a title read from page 1 of the PDF at path. It never fails:
// render and engine errors, including panics, are logged and reported as no
// title.
func (f *TitleFinder) Title(ctx context.Context, path string) (title string, ok bool) {
	log := f.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("path", path)

	defer func() {
		if r := recover(); r != nil {
			log.Warn("ocr panicked", "panic", fmt.Sprint(r))
			title, ok = "", false
		}
	}()

	img, err := f.Renderer.RenderPage(ctx, path, 1)
	if err != nil {
		log.Warn("render first page for ocr", "error", err)
		return "", false
	}
	text, err := f.Engine.Recognize(img)
	if err != nil {
		log.Warn("ocr first page", "error", err)
		return "", false
	}

	title, ok = TitleFromText(text)
	log.Debug("ocr title", "found", ok, "title", title)
	return title, ok
}

// Fallback adapts Title to a func() (string, bool) for the title reconstructor.
func (f *TitleFinder) Fallback(ctx context.Context, path string) func() (string, bool) {
	return func() (string, bool) {
		return f.Title(ctx, path)
	}
}

// TitleFromText joins the first three non-empty lines of OCR output and
// accepts the result only when it is 10 to 200 runes long.
func TitleFromText(text string) (string, bool) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == titleLines {
			break
		}
	}
	if len(lines) == 0 {
		return "", false
	}

	title := strings.Join(lines, " ")
	if n := utf8.RuneCountInString(title); n < minTitleRunes || n > maxTitleRunes {
		return "", false
	}
	return title, true
}
