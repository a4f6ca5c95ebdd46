package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Parser converts raw document bytes into a layout Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune parser construction.
type Options struct {
	// FallbackPdftotext lets the PDF parser shell out to pdftotext when the
	// Go reader fails. The fallback carries no font information.
	FallbackPdftotext bool
}

// registry maps a lower-cased extension to its parser constructor.
var registry = map[string]func(Options) Parser{
	".txt":      func(Options) Parser { return &TextParser{} },
	".md":       func(Options) Parser { return &MarkdownParser{} },
	".markdown": func(Options) Parser { return &MarkdownParser{} },
	".csv":      func(Options) Parser { return &CSVParser{} },
	".html":     func(Options) Parser { return &HTMLParser{} },
	".htm":      func(Options) Parser { return &HTMLParser{} },
	".docx":     func(Options) Parser { return &DOCXParser{} },
	".xlsx":     func(Options) Parser { return &XLSXParser{} },
	".pdf": func(o Options) Parser {
		return &PDFParser{FallbackPdftotext: o.FallbackPdftotext}
	},
}

func extOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ForFile returns the parser registered for filename's extension.
func ForFile(filename string, opts Options) (Parser, error) {
	newParser, ok := registry[extOf(filename)]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", extOf(filename))
	}
	return newParser(opts), nil
}

// IsSupportedExtension reports whether ForFile would accept filename.
func IsSupportedExtension(filename string) bool {
	_, ok := registry[extOf(filename)]
	return ok
}

// ParseFile parses the file at path with the parser matching its extension.
// PDFs are opened in place; other formats are streamed.
func ParseFile(path string, opts Options) (*doctree.Document, error) {
	p, err := ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if pp, ok := p.(*PDFParser); ok {
		return pp.ParseFile(path, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, name)
}
