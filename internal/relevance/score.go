// Package relevance ranks document blocks for a persona and a job to be done
// using keyword overlap and a fixed table of domain terms.
package relevance

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/chunker"
)

// keywordWeight is one entry of the domain keyword table.
type keywordWeight struct {
	word   string
	weight float64
}

// domainKeywords is summed in this order so scores are reproducible to the bit.
var domainKeywords = [...]keywordWeight{
	{"methodology", 0.9},
	{"method", 0.8},
	{"approach", 0.7},
	{"dataset", 0.8},
	{"data", 0.6},
	{"performance", 0.8},
	{"benchmark", 0.8},
	{"result", 0.7},
	{"evaluation", 0.7},
	{"analysis", 0.6},
	{"revenue", 0.9},
	{"financial", 0.8},
	{"investment", 0.8},
	{"market", 0.7},
	{"strategy", 0.7},
	{"concept", 0.8},
	{"mechanism", 0.8},
	{"reaction", 0.7},
	{"kinetics", 0.8},
	{"theory", 0.6},
}

const (
	jobTokenWeight     = 0.3
	personaTokenWeight = 0.2
	minTokenRunes      = 4
	longTextRunes      = 200
	longTextBonus      = 0.5
	maxScore           = 10.0
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// ScoreRelevance scores text against a persona and a job. Matching is by
// substring on lowercased text, so "data" also matches inside "database",
// and a token repeated in the job counts once per repetition.
func ScoreRelevance(text, persona, job string) float64 {
	lower := strings.ToLower(text)

	score := 0.0
	score += tokenHits(lower, job, jobTokenWeight)
	score += tokenHits(lower, persona, personaTokenWeight)
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw.word) {
			score += kw.weight
		}
	}
	if chunker.RuneLen(text) > longTextRunes {
		score += longTextBonus
	}
	return min(score, maxScore)
}

func tokenHits(lowerText, query string, weight float64) float64 {
	score := 0.0
	for _, tok := range wordRe.FindAllString(strings.ToLower(query), -1) {
		if chunker.RuneLen(tok) >= minTokenRunes && strings.Contains(lowerText, tok) {
			score += weight
		}
	}
	return score
}
