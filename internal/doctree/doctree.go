package doctree

import "strings"

// Document is the layout view of a parsed file: pages of blocks of lines of spans.
type Document struct {
	Name  string // Base file name
	Pages []Page
}

// Page is one physical page. Coordinates are in points with y growing downward
// from the top edge of the page.
type Page struct {
	Number int // 1-indexed
	Width  float64
	Height float64
	Blocks []Block
}

// Block is a layout grouping of consecutive lines.
type Block struct {
	BBox  BBox
	Lines []Line
}

// Line is a run of spans sharing a baseline.
type Line struct {
	BBox  BBox
	Spans []Span
}

// Span is a run of text in one font at one size.
type Span struct {
	Text string
	Size float64
	Font string
	BBox BBox
}

// BBox is an axis-aligned rectangle (x0,y0) top-left to (x1,y1) bottom-right.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// Union returns the smallest box containing both b and o. A zero box is treated as empty.
func (b BBox) Union(o BBox) BBox {
	if b == (BBox{}) {
		return o
	}
	if o == (BBox{}) {
		return b
	}
	return BBox{
		X0: min(b.X0, o.X0),
		Y0: min(b.Y0, o.Y0),
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
	}
}

// Text joins every span of the block with single spaces.
func (b Block) Text() string {
	var sb strings.Builder
	for _, l := range b.Lines {
		for _, s := range l.Spans {
			sb.WriteString(s.Text)
			sb.WriteString(" ")
		}
	}
	return strings.TrimSpace(sb.String())
}

// TextSpan is a flattened span with its page and vertical position, the unit the
// heading classifier and title reconstructor work on.
type TextSpan struct {
	Text     string
	FontSize float64
	FontName string
	Bold     bool
	Page     int     // 1-indexed
	Y        float64 // Top of the span
}

// TextBlock is a whole layout block with its text concatenated, the unit the
// relevance ranker works on.
type TextBlock struct {
	Text string
	Page int
	BBox BBox
}
