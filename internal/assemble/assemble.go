// Package assemble maps a completed ranking into the run's output
// document: metadata, section records ordered by importance, and
// subsection records grouped under their owning sections.
package assemble

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docrank/internal/rank"
)

// Result is the boundary output of one ranking run.
type Result struct {
	Metadata           Metadata           `json:"metadata"`
	ExtractedSections  []SectionRecord    `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionRecord `json:"subsection_analysis"`
	Warnings           []string           `json:"warnings,omitempty"`
}

// Metadata echoes the run's inputs and identifies the run.
type Metadata struct {
	RunID               string   `json:"run_id"`
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// SectionRecord is one stage-one selection. Records are emitted in
// importance_rank order, starting at 1.
type SectionRecord struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// SubsectionRecord is one stage-two refinement. Records are grouped by
// owning section in section order, each group in descending relevance
// order.
type SubsectionRecord struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// NewMetadata stamps run metadata with a fresh run ID and the current
// UTC time.
func NewMetadata(documents []string, persona, task string) Metadata {
	if documents == nil {
		documents = []string{}
	}
	return Metadata{
		RunID:               uuid.NewString(),
		InputDocuments:      documents,
		Persona:             persona,
		JobToBeDone:         task,
		ProcessingTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Assemble converts a ranking into output records. Section records
// keep the ranking's order; subsection records follow their sections.
// Slices are always non-nil so the JSON encodes arrays, not null.
func Assemble(meta Metadata, ranking *rank.Ranking, warnings []string) *Result {
	out := &Result{
		Metadata:           meta,
		ExtractedSections:  []SectionRecord{},
		SubsectionAnalysis: []SubsectionRecord{},
	}
	if out.Metadata.InputDocuments == nil {
		out.Metadata.InputDocuments = []string{}
	}
	out.Warnings = append(out.Warnings, warnings...)
	if ranking == nil {
		return out
	}
	out.Warnings = append(out.Warnings, ranking.Warnings...)

	for _, sec := range ranking.Sections {
		out.ExtractedSections = append(out.ExtractedSections, SectionRecord{
			Document:       sec.Section.Document,
			SectionTitle:   strings.TrimSpace(sec.Section.Title),
			ImportanceRank: sec.ImportanceRank,
			PageNumber:     sec.Section.Page,
		})
		for _, sub := range sec.Subsections {
			out.SubsectionAnalysis = append(out.SubsectionAnalysis, SubsectionRecord{
				Document:    sub.Subsection.Document,
				RefinedText: normalizeText(sub.Subsection.Text),
				PageNumber:  sub.Subsection.Page,
			})
		}
	}
	return out
}

// normalizeText collapses whitespace runs so refined text is a single
// clean line.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
