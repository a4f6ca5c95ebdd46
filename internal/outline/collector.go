package outline

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// CollectSpans flattens a document into spans in page, block, line, span
// order. Span text is trimmed and empty spans are dropped.
func CollectSpans(doc *doctree.Document) []doctree.TextSpan {
	var spans []doctree.TextSpan
	for _, page := range doc.Pages {
		for _, block := range page.Blocks {
			for _, line := range block.Lines {
				for _, s := range line.Spans {
					text := strings.TrimSpace(s.Text)
					if text == "" {
						continue
					}
					spans = append(spans, doctree.TextSpan{
						Text:     text,
						FontSize: s.Size,
						FontName: s.Font,
						Bold:     strings.Contains(s.Font, "Bold"),
						Page:     page.Number,
						Y:        s.BBox.Y0,
					})
				}
			}
		}
	}
	return spans
}
