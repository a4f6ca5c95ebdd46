package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// CSVParser handles delimited text. The delimiter (comma, semicolon or tab)
// is picked from the header line. Rows are laid out as "header: cell" lines.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	br := bufio.NewReader(r)
	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var headers []string
	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if headers == nil {
			headers = rec
			continue
		}
		rows = append(rows, rec)
	}

	b := newPageBuilder()
	tableBlocks(b, headers, rows)
	return b.document(filename), nil
}

// sniffDelimiter counts candidate delimiters on the first line without
// consuming it.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(4096)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestCount := ',', strings.Count(string(head), ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(string(head), string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// rowsPerBlock is how many table rows share one body block.
const rowsPerBlock = 20

// tableBlocks renders rows as "header: cell" lines, rowsPerBlock per block.
func tableBlocks(b *pageBuilder, headers []string, rows [][]string) {
	for start := 0; start < len(rows); start += rowsPerBlock {
		var text strings.Builder
		for _, row := range rows[start:min(start+rowsPerBlock, len(rows))] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cell = headers[j] + ": " + cell
				}
				cells = append(cells, cell)
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteByte('\n')
		}
		b.body(text.String())
	}
}
