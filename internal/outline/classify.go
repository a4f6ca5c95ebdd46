package outline

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Level is the semantic rank of a font size within one document.
type Level string

const (
	LevelTitle Level = "title"
	LevelH1    Level = "H1"
	LevelH2    Level = "H2"
	LevelH3    Level = "H3"
)

// rankedLevels is the order in which distinct sizes, largest first, are assigned.
var rankedLevels = [...]Level{LevelTitle, LevelH1, LevelH2, LevelH3}

// IsHeading reports whether l belongs in an outline.
func (l Level) IsHeading() bool {
	return l == LevelH1 || l == LevelH2 || l == LevelH3
}

const (
	minHeadingRunes = 4
	// A document with more headings than this, all on page 1, is treated as a form.
	formHeadingLimit = 25
)

// SizeLevelMap maps a font size to its level. Sizes beyond the fourth largest
// are absent.
type SizeLevelMap map[float64]Level

// Entry is one outline heading.
type Entry struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// ClassifyLevels assigns title, H1, H2 and H3 to the four largest distinct
// font sizes, in that order.
func ClassifyLevels(spans []doctree.TextSpan) SizeLevelMap {
	var sizes []float64
	seen := make(map[float64]bool)
	for _, s := range spans {
		if !seen[s.FontSize] {
			seen[s.FontSize] = true
			sizes = append(sizes, s.FontSize)
		}
	}
	slices.Sort(sizes)
	slices.Reverse(sizes)

	levels := make(SizeLevelMap, len(rankedLevels))
	for i, size := range sizes {
		if i >= len(rankedLevels) {
			break
		}
		levels[size] = rankedLevels[i]
	}
	return levels
}

// IsHeadingCandidate filters out text too short or too numeric to be a heading,
// such as page numbers, "1." or "Rs.". There is no upper length bound.
func IsHeadingCandidate(text string) bool {
	if utf8.RuneCountInString(text) < minHeadingRunes {
		return false
	}
	trimmed := strings.TrimSpace(text)
	if isAllDigits(trimmed) {
		return false
	}
	return utf8.RuneCountInString(trimmed) > 2
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// BuildOutline emits a heading for every H1-H3 span that passes
// IsHeadingCandidate, in span order. Form-like documents yield an empty outline.
func BuildOutline(spans []doctree.TextSpan, levels SizeLevelMap) []Entry {
	outline := make([]Entry, 0)
	for _, s := range spans {
		level := levels[s.FontSize]
		if !level.IsHeading() || !IsHeadingCandidate(s.Text) {
			continue
		}
		outline = append(outline, Entry{Level: level, Text: s.Text, Page: s.Page})
	}

	if len(outline) > formHeadingLimit && allOnFirstPage(outline) {
		return make([]Entry, 0)
	}
	return outline
}

func allOnFirstPage(entries []Entry) bool {
	for _, e := range entries {
		if e.Page != 1 {
			return false
		}
	}
	return true
}
