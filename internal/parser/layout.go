package parser

import (
	"math"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// Layout tolerances. Ratios are fractions of the font size.
const (
	baselineTolerance = 2.0  // points between baselines on one line
	wordGapRatio      = 0.25 // horizontal gap that becomes a space
	spanBreakRatio    = 3.0  // horizontal gap that splits a span
	backtrackRatio    = 0.5  // leftward jump that splits a span
	blockGapRatio     = 0.8  // vertical gap between lines that starts a block
	blockSizeDelta    = 1.5  // points of size change that starts a block
)

// layoutBlocks turns the glyph stream of one page into blocks of lines of
// spans. pageTop is the top edge of the page in PDF user space and is used to
// flip y so it grows downward.
func layoutBlocks(glyphs []pdflib.Text, pageTop float64) []doctree.Block {
	return groupBlocks(groupLines(groupSpans(glyphs, pageTop)))
}

type spanBuilder struct {
	text     strings.Builder
	font     string
	size     float64
	baseline float64
	endX     float64
	box      doctree.BBox
}

// continues reports whether g extends the span: same font and size, same
// baseline, and no large horizontal jump.
func (s *spanBuilder) continues(g pdflib.Text, size float64) bool {
	if g.Font != s.font || size != s.size {
		return false
	}
	if math.Abs(g.Y-s.baseline) > baselineTolerance {
		return false
	}
	unit := max(size, 1)
	gap := g.X - s.endX
	return gap > -unit*backtrackRatio && gap < unit*spanBreakRatio
}

func groupSpans(glyphs []pdflib.Text, pageTop float64) []doctree.Span {
	var spans []doctree.Span
	var cur *spanBuilder
	pendingSpace := false

	flush := func() {
		if cur == nil {
			return
		}
		// Some PDFs draw accents as separate combining glyphs.
		if t := norm.NFC.String(cur.text.String()); strings.TrimSpace(t) != "" {
			spans = append(spans, doctree.Span{Text: t, Size: cur.size, Font: cur.font, BBox: cur.box})
		}
		cur = nil
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if strings.TrimSpace(g.S) == "" {
			pendingSpace = true
			continue
		}

		size := roundSize(g.FontSize)
		box := doctree.BBox{X0: g.X, Y0: pageTop - g.Y - size, X1: g.X + g.W, Y1: pageTop - g.Y}

		if cur != nil && cur.continues(g, size) {
			if pendingSpace || g.X-cur.endX > max(size, 1)*wordGapRatio {
				cur.text.WriteByte(' ')
			}
		} else {
			flush()
			cur = &spanBuilder{font: g.Font, size: size, baseline: g.Y}
		}
		cur.text.WriteString(g.S)
		cur.endX = g.X + g.W
		cur.box = cur.box.Union(box)
		pendingSpace = false
	}
	flush()

	return spans
}

func groupLines(spans []doctree.Span) []doctree.Line {
	var lines []doctree.Line
	for _, s := range spans {
		if n := len(lines); n > 0 && math.Abs(lines[n-1].BBox.Y1-s.BBox.Y1) <= baselineTolerance {
			lines[n-1].Spans = append(lines[n-1].Spans, s)
			lines[n-1].BBox = lines[n-1].BBox.Union(s.BBox)
			continue
		}
		lines = append(lines, doctree.Line{BBox: s.BBox, Spans: []doctree.Span{s}})
	}
	return lines
}

func groupBlocks(lines []doctree.Line) []doctree.Block {
	var blocks []doctree.Block
	for _, l := range lines {
		if n := len(blocks); n > 0 && joinsBlock(blocks[n-1], l) {
			blocks[n-1].Lines = append(blocks[n-1].Lines, l)
			blocks[n-1].BBox = blocks[n-1].BBox.Union(l.BBox)
			continue
		}
		blocks = append(blocks, doctree.Block{BBox: l.BBox, Lines: []doctree.Line{l}})
	}
	return blocks
}

func joinsBlock(b doctree.Block, l doctree.Line) bool {
	prev := b.Lines[len(b.Lines)-1]
	prevSize, size := lineSize(prev), lineSize(l)
	if math.Abs(prevSize-size) > blockSizeDelta {
		return false
	}
	unit := max(prevSize, size, 1)
	gap := l.BBox.Y0 - prev.BBox.Y1
	if gap < -unit || gap > unit*blockGapRatio {
		return false
	}
	return l.BBox.X0 <= b.BBox.X1 && l.BBox.X1 >= b.BBox.X0
}

func lineSize(l doctree.Line) float64 {
	var size float64
	for _, s := range l.Spans {
		size = max(size, s.Size)
	}
	return size
}

// roundSize trims floating noise from text-matrix scaling so equal sizes compare equal.
func roundSize(size float64) float64 {
	return math.Round(size*100) / 100
}
