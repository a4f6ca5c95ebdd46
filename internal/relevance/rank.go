package relevance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/docoutline/internal/chunker"
)

const (
	minSectionRunes  = 50
	maxSections      = 15
	titleLimitRunes  = 80
	titleKeepRunes   = 77
	sectionsForParts = 10
	maxSubsections   = 20
	subsectionPrefix = 30
)

// ScoredSection is a ranked block.
type ScoredSection struct {
	Document       string
	Page           int
	SectionTitle   string
	Content        string
	RelevanceScore float64
	ImportanceRank int
}

// Subsection is a refined part of a ranked section.
type Subsection struct {
	Document        string `json:"document"`
	Page            int    `json:"page_number"`
	SubsectionTitle string `json:"subsection_title"`
	RefinedText     string `json:"refined_text"`
}

// ExtractSections scores every block longer than 50 runes and returns the 15
// best, ranked 1..N. Ties keep document order then block order.
func ExtractSections(sources []Source, persona, job string) []ScoredSection {
	var all []ScoredSection
	for _, src := range sources {
		for _, b := range src.Blocks {
			if chunker.RuneLen(b.Text) <= minSectionRunes {
				continue
			}
			all = append(all, ScoredSection{
				Document:       src.Name,
				Page:           b.Page,
				SectionTitle:   SectionTitle(b.Text),
				Content:        b.Text,
				RelevanceScore: ScoreRelevance(b.Text, persona, job),
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RelevanceScore > all[j].RelevanceScore
	})
	if len(all) > maxSections {
		all = all[:maxSections]
	}
	for i := range all {
		all[i].ImportanceRank = i + 1
	}
	return all
}

// SectionTitle is the first period-delimited sentence of text, shortened to
// 77 runes plus an ellipsis when longer than 80.
func SectionTitle(text string) string {
	first, _, _ := strings.Cut(text, ".")
	return chunker.Shorten(strings.TrimSpace(first), titleLimitRunes, titleKeepRunes)
}

// ExtractSubsections splits the first 10 sections into refined parts and
// returns at most 20 of them.
func ExtractSubsections(sections []ScoredSection) []Subsection {
	if len(sections) > sectionsForParts {
		sections = sections[:sectionsForParts]
	}

	subs := make([]Subsection, 0)
	cfg := chunker.DefaultConfig()
	for _, s := range sections {
		prefix := chunker.Truncate(s.SectionTitle, subsectionPrefix)
		for _, c := range chunker.Split(s.Content, cfg) {
			subs = append(subs, Subsection{
				Document:        s.Document,
				Page:            s.Page,
				SubsectionTitle: fmt.Sprintf("Subsection %d - %s...", c.Index, prefix),
				RefinedText:     c.Text,
			})
		}
	}
	if len(subs) > maxSubsections {
		subs = subs[:maxSubsections]
	}
	return subs
}
