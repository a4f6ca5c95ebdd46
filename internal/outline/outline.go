// Package outline turns a parsed document into a title and an H1-H3 heading
// outline using font sizes alone.
package outline

import "github.com/dgallion1/docoutline/internal/doctree"

// Result is the outline artifact written for one document.
type Result struct {
	Title   string  `json:"title"`
	Outline []Entry `json:"outline"`
}

// Extract runs the collector, classifier and title reconstructor over doc.
// fallback may be nil.
func Extract(doc *doctree.Document, fallback TitleFallback) Result {
	spans := CollectSpans(doc)
	levels := ClassifyLevels(spans)
	return Result{
		Title:   ReconstructTitle(spans, levels, fallback),
		Outline: BuildOutline(spans, levels),
	}
}
