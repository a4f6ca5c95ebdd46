package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// Letter size, used when a page carries no readable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// PDFParser handles PDF files. It reads glyph positions and fonts with the Go
// library and, if allowed, falls back to pdftotext when that fails.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	doc, err := readPDF(func() (*pdflib.Reader, func(), error) {
		reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
		return reader, func() {}, err
	})
	if err != nil && p.FallbackPdftotext {
		doc, err = pdftotextBytes(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf layout: %w", err)
	}
	doc.Name = filepath.Base(filename)
	return doc, nil
}

// ParseFile parses the PDF at path. name becomes the document name.
func (p *PDFParser) ParseFile(path, name string) (*doctree.Document, error) {
	doc, err := readPDF(func() (*pdflib.Reader, func(), error) {
		f, reader, err := pdflib.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return reader, func() { f.Close() }, nil
	})
	if err != nil && p.FallbackPdftotext {
		doc, err = extractPdftotext(path)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf layout: %w", err)
	}
	doc.Name = filepath.Base(name)
	return doc, nil
}

func readPDF(open func() (*pdflib.Reader, func(), error)) (doc *doctree.Document, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("pdf reader: %v", r)
		}
	}()

	reader, closeFn, err := open()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	doc = &doctree.Document{}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		box := mediaBox(page)
		doc.Pages = append(doc.Pages, doctree.Page{
			Number: i,
			Width:  box.X1 - box.X0,
			Height: box.Y1 - box.Y0,
			Blocks: layoutBlocks(page.Content().Text, box.Y1),
		})
	}
	return doc, nil
}

// mediaBox returns the page's MediaBox in PDF coordinates, following the
// Parent chain since the entry is inheritable.
func mediaBox(page pdflib.Page) doctree.BBox {
	v := page.V
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			return doctree.BBox{
				X0: box.Index(0).Float64(),
				Y0: box.Index(1).Float64(),
				X1: box.Index(2).Float64(),
				Y1: box.Index(3).Float64(),
			}
		}
		v = v.Key("Parent")
	}
	return doctree.BBox{X1: defaultPageWidth, Y1: defaultPageHeight}
}

// pdftotextBytes runs the fallback on in-memory data, which pdftotext can
// only read from a file.
func pdftotextBytes(data []byte) (*doctree.Document, error) {
	tmp, err := os.CreateTemp("", "docoutline-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	return extractPdftotext(tmp.Name())
}

func extractPdftotext(path string) (*doctree.Document, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	doc := &doctree.Document{}
	// pdftotext separates pages with form feeds.
	for i, pageText := range strings.Split(string(out), "\f") {
		b := newPageBuilder()
		for _, para := range strings.Split(pageText, "\n\n") {
			b.body(para)
		}
		if len(b.page.Blocks) == 0 {
			continue
		}
		page := b.page
		page.Number = i + 1
		page.Height = b.y
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}
