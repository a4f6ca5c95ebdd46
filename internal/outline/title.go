package outline

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Untitled is returned when no title can be found by any means.
const Untitled = "Untitled"

const (
	titleMaxPage     = 3
	titleLineJoinGap = 5.0
	minTitleRunes    = 10
)

// TitleFallback supplies a title from some other source, such as OCR of the
// first page. It reports false when nothing usable was found and must not
// panic or block indefinitely.
type TitleFallback func() (string, bool)

// NoFallback is a TitleFallback that never finds anything.
func NoFallback() (string, bool) { return "", false }

// ReconstructTitle joins the title-level spans of the first pages into a
// single title. Spans on roughly the same y form one line; lines are joined
// with a space. A missing or very short title is replaced by the fallback.
func ReconstructTitle(spans []doctree.TextSpan, levels SizeLevelMap, fallback TitleFallback) string {
	if fallback == nil {
		fallback = NoFallback
	}

	var selected []doctree.TextSpan
	for _, s := range spans {
		if levels[s.FontSize] == LevelTitle && s.Page <= titleMaxPage {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		if t, ok := fallback(); ok && t != "" {
			return t
		}
		return Untitled
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Page != selected[j].Page {
			return selected[i].Page < selected[j].Page
		}
		return selected[i].Y < selected[j].Y
	})

	var parts []string
	var line []string
	lastY := selected[0].Y
	flush := func() {
		if text := strings.TrimSpace(strings.Join(line, " ")); text != "" {
			parts = append(parts, text)
		}
		line = line[:0]
	}
	for _, s := range selected {
		if math.Abs(s.Y-lastY) > titleLineJoinGap {
			flush()
		}
		line = append(line, s.Text)
		lastY = s.Y
	}
	flush()

	title := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if utf8.RuneCountInString(title) < minTitleRunes {
		if t, ok := fallback(); ok && t != "" {
			return t
		}
	}
	return title
}
