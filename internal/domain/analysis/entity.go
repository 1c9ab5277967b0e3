package analysis

import (
	"time"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

// Recommendation enum
type Recommendation string

const (
	RecommendationGo   Recommendation = "GO"
	RecommendationNoGo Recommendation = "NO-GO"
)

// Valid reports whether r is one of the two allowed outcomes.
func (r Recommendation) Valid() bool {
	return r == RecommendationGo || r == RecommendationNoGo
}

// Dates holds the named RFP dates; a nil field means the model did not find it.
type Dates struct {
	Submission *string `json:"submission,omitempty"`
	Completion *string `json:"completion,omitempty"`
	SiteVisit  *string `json:"siteVisit,omitempty"`
}

// Result is the normalized model analysis.
type Result struct {
	Disciplines    []string       `json:"disciplines"`
	Dates          Dates          `json:"dates"`
	Risks          []Risk         `json:"risks"`
	Recommendation Recommendation `json:"goNoGoSuggestion"`
	Confidence     *float64       `json:"confidence"`
	Rationale      string         `json:"rationale"`
}

// DisplayRisks renders every risk entry for display.
func (r Result) DisplayRisks() []string {
	out := make([]string, 0, len(r.Risks))
	for _, risk := range r.Risks {
		out = append(out, risk.Display())
	}
	return out
}

// Extraction reports how the document reached the model.
type Extraction struct {
	Strategy   documents.Strategy `json:"strategy"`
	Fallback   bool               `json:"fallback,omitempty"` // structured extraction failed, sent inline
	Characters int                `json:"characters"`
	Truncated  bool               `json:"truncated"`
}

// Validation is the advisory shape check attached to every result.
type Validation struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// Combined is the analysis merged with the stored file's metadata.
type Combined struct {
	Result
	RiskLabels   []string               `json:"riskLabels"`
	FileMetadata documents.FileMetadata `json:"fileMetadata"`
	Extraction   Extraction             `json:"extraction"`
	Validation   Validation             `json:"validation"`
	AnalyzedAt   time.Time              `json:"analyzedAt"`
}
