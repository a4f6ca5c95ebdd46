package parser

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Formats without real typography get synthetic sizes so the font-size
// heading classifier treats them like a PDF.
const (
	bodySize   = 11.0
	titleSize  = 28.0 // explicit document titles, above any heading
	lineHeight = 14.0
	pageWidth  = 612.0

	headingFont = "Heading-Bold"
	bodyFont    = "Body-Regular"
)

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 24
	case 2:
		return 20
	case 3:
		return 16
	default:
		return 14
	}
}

// pageBuilder lays text out top to bottom on a single synthetic page.
type pageBuilder struct {
	page doctree.Page
	y    float64
}

func newPageBuilder() *pageBuilder {
	return &pageBuilder{page: doctree.Page{Number: 1, Width: pageWidth}}
}

// add appends one block; every newline in text starts a new line in the block.
func (b *pageBuilder) add(text string, size float64, font string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	var block doctree.Block
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		box := doctree.BBox{X0: 0, Y0: b.y, X1: pageWidth, Y1: b.y + size}
		block.Lines = append(block.Lines, doctree.Line{
			BBox:  box,
			Spans: []doctree.Span{{Text: raw, Size: size, Font: font, BBox: box}},
		})
		block.BBox = block.BBox.Union(box)
		b.y += max(size, lineHeight)
	}
	if len(block.Lines) == 0 {
		return
	}
	b.page.Blocks = append(b.page.Blocks, block)
	b.y += lineHeight
}

func (b *pageBuilder) heading(text string, level int) {
	b.add(text, headingSize(level), headingFont)
}

func (b *pageBuilder) body(text string) {
	b.add(text, bodySize, bodyFont)
}

func (b *pageBuilder) document(filename string) *doctree.Document {
	b.page.Height = b.y
	doc := &doctree.Document{Name: filepath.Base(filename)}
	if len(b.page.Blocks) > 0 {
		doc.Pages = []doctree.Page{b.page}
	}
	return doc
}
