package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// XLSXParser handles Excel workbooks. Each sheet becomes an H2 heading with
// the sheet name followed by its rows, the first row taken as the header.
type XLSXParser struct{}

func (p *XLSXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	b := newPageBuilder()
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		b.heading(sheet, 2)
		tableBlocks(b, rows[0], rows[1:])
	}
	return b.document(filename), nil
}
