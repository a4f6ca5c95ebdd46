package relevance

import (
	"time"
)

// TimestampLayout is the processing timestamp format: local time, microseconds,
// no zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Metadata describes the inputs of one analysis.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection is the public view of a ScoredSection.
type ExtractedSection struct {
	Document       string `json:"document"`
	Page           int    `json:"page_number"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
}

// Result is the persona analysis artifact.
type Result struct {
	Metadata           Metadata           `json:"metadata"`
	ExtractedSections  []ExtractedSection `json:"extracted_sections"`
	SubsectionAnalysis []Subsection       `json:"subsection_analysis"`
}

// Analyzer assembles analysis results. The zero value is ready to use.
type Analyzer struct {
	// Now returns the processing time. Defaults to time.Now.
	Now func() time.Time
}

// Analyze ranks the sections of sources for persona and job.
func (a Analyzer) Analyze(sources []Source, persona, job string) Result {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name)
	}

	sections := ExtractSections(sources, persona, job)
	extracted := make([]ExtractedSection, 0, len(sections))
	for _, s := range sections {
		extracted = append(extracted, ExtractedSection{
			Document:       s.Document,
			Page:           s.Page,
			SectionTitle:   s.SectionTitle,
			ImportanceRank: s.ImportanceRank,
		})
	}

	return Result{
		Metadata: Metadata{
			InputDocuments:      names,
			Persona:             persona,
			JobToBeDone:         job,
			ProcessingTimestamp: now().Format(TimestampLayout),
		},
		ExtractedSections:  extracted,
		SubsectionAnalysis: ExtractSubsections(sections),
	}
}
