package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// paragraphBreak is a blank or whitespace-only line.
var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)

// TextParser handles plain text. Paragraphs are separated by blank lines and
// keep their line breaks; every paragraph is body text.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	b := newPageBuilder()
	for _, para := range paragraphBreak.Split(text, -1) {
		b.body(para)
	}
	return b.document(filename), nil
}
