// Package chunker splits ranked section text into smaller refined parts.
package chunker

import (
	"strings"
)

// Config controls chunking behavior.
type Config struct {
	SentencesPerChunk int // Sentences regrouped into one chunk when there are no paragraph breaks.
	MinRunes          int // Chunks must have more trimmed runes than this to be emitted.
	MaxRunes          int // Longer chunks are cut to this many runes plus an ellipsis.
}

// DefaultConfig returns the settings used for subsection analysis.
func DefaultConfig() Config {
	return Config{
		SentencesPerChunk: 3,
		MinRunes:          30,
		MaxRunes:          500,
	}
}

// Chunk is one emitted part of a section.
type Chunk struct {
	// Index is the 1-based position among all split parts, counting parts
	// that were too short to emit.
	Index int
	Text  string
}

// Split breaks text on paragraph breaks when it has any, otherwise on
// sentence boundaries regrouped into runs of cfg.SentencesPerChunk. Short
// parts are dropped and long ones truncated.
func Split(text string, cfg Config) []Chunk {
	if cfg.SentencesPerChunk <= 0 {
		cfg.SentencesPerChunk = 3
	}
	if cfg.MaxRunes <= 0 {
		cfg.MaxRunes = 500
	}

	var parts []string
	if strings.Contains(text, "\n\n") {
		parts = splitByParagraphs(text)
	} else {
		parts = groupSentences(splitSentences(text), cfg.SentencesPerChunk)
	}

	var chunks []Chunk
	for i, part := range parts {
		trimmed := strings.TrimSpace(part)
		if RuneLen(trimmed) <= cfg.MinRunes {
			continue
		}
		if RuneLen(part) > cfg.MaxRunes {
			trimmed = Truncate(trimmed, cfg.MaxRunes) + Ellipsis
		}
		chunks = append(chunks, Chunk{Index: i + 1, Text: trimmed})
	}
	return chunks
}

// splitByParagraphs splits on double-newlines. Empty paragraphs are kept so
// positions stay stable.
func splitByParagraphs(text string) []string {
	return strings.Split(text, "\n\n")
}

// splitSentences splits on ". ", dropping the separator.
func splitSentences(text string) []string {
	return strings.Split(text, ". ")
}

// groupSentences joins consecutive runs of n sentences back with ". ".
func groupSentences(sentences []string, n int) []string {
	var result []string
	for i := 0; i < len(sentences); i += n {
		end := min(i+n, len(sentences))
		if chunk := strings.Join(sentences[i:end], ". "); chunk != "" {
			result = append(result, chunk)
		}
	}
	return result
}
