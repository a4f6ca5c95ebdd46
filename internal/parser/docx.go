package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraph styles decide the synthetic size:
// Title sits above every heading, HeadingN maps to level N, the rest is body.
// Tables become row blocks the same way CSV rows do.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := newPageBuilder()
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			docxParagraph(b, it)
		case *docx.Table:
			if rows := docxTableRows(it); len(rows) > 0 {
				tableBlocks(b, rows[0], rows[1:])
			}
		}
	}
	return b.document(filename), nil
}

func docxParagraph(b *pageBuilder, para *docx.Paragraph) {
	text := docxParagraphText(para)
	style := docxStyle(para)
	if strings.EqualFold(style, "Title") {
		b.add(text, titleSize, headingFont)
		return
	}
	if level := docxHeadingLevel(style); level > 0 {
		b.heading(text, level)
		return
	}
	b.body(text)
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel understands both "Heading2" style IDs and "heading 2" names.
func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			docxRunText(&buf, c)
		case *docx.Hyperlink:
			docxRunText(&buf, &c.Run)
		}
	}
	return strings.TrimSpace(buf.String())
}

func docxRunText(buf *strings.Builder, run *docx.Run) {
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte(' ')
		}
	}
}

// docxTableRows flattens a table to cell text, dropping rows with no text.
// Nested tables are ignored.
func docxTableRows(tbl *docx.Table) [][]string {
	var rows [][]string
	for _, tr := range tbl.TableRows {
		row := make([]string, 0, len(tr.TableCells))
		filled := false
		for _, tc := range tr.TableCells {
			parts := make([]string, 0, len(tc.Paragraphs))
			for _, para := range tc.Paragraphs {
				if text := docxParagraphText(para); text != "" {
					parts = append(parts, text)
				}
			}
			cell := strings.Join(parts, " ")
			filled = filled || cell != ""
			row = append(row, cell)
		}
		if filled {
			rows = append(rows, row)
		}
	}
	return rows
}
