package relevance

import (
	"github.com/dgallion1/docoutline/internal/doctree"
)

// Source is one document reduced to its text blocks.
type Source struct {
	Name   string // Base file name
	Blocks []doctree.TextBlock
}

// NewSource collects the non-empty blocks of doc in page and block order.
func NewSource(doc *doctree.Document) Source {
	src := Source{Name: doc.Name}
	for _, page := range doc.Pages {
		for _, b := range page.Blocks {
			text := b.Text()
			if text == "" {
				continue
			}
			src.Blocks = append(src.Blocks, doctree.TextBlock{
				Text: text,
				Page: page.Number,
				BBox: b.BBox,
			})
		}
	}
	return src
}
