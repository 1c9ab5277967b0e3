// Package heuristic is an offline ai.Client. It scans the document text with keyword and
// pattern detectors and answers in the same JSON shape a hosted model would, so the
// service runs end to end without an API key.
package heuristic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/extract"
)

type Analyzer struct{}

var _ ai.Client = Analyzer{}

func New() Analyzer { return Analyzer{} }

func (Analyzer) Name() string { return "heuristic" }

type risk struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

type output struct {
	Disciplines      []string          `json:"disciplines"`
	Dates            map[string]string `json:"dates"`
	Risks            []risk            `json:"risks"`
	GoNoGoSuggestion string            `json:"goNoGoSuggestion"`
	Confidence       int               `json:"confidence"`
	Rationale        string            `json:"rationale"`
}

func (a Analyzer) Analyze(ctx context.Context, p ai.Prompt) (string, error) {
	text := p.Text
	if p.Inline != nil {
		if documents.BaseMediaType(p.Inline.MIMEType) != documents.MediaTypePDF {
			return "", fmt.Errorf("%w: %s", ai.ErrInlineUnsupported, p.Inline.MIMEType)
		}
		t, err := extract.PDFText(ctx, p.Inline.Data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ai.ErrInlineUnsupported, err)
		}
		text = t
	}

	b, err := json.Marshal(Analyze(text))
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}
	return string(b), nil
}

var disciplineKeywords = []struct {
	name     string
	keywords []string
}{
	{"Architecture", []string{"architect", "architectural"}},
	{"Structural Engineering", []string{"structural", "foundation", "steel frame", "load rating"}},
	{"Civil Engineering", []string{"civil", "grading", "roadway", "drainage", "stormwater", "paving"}},
	{"Geotechnical Engineering", []string{"geotechnical", "soil boring", "borings", "subsurface"}},
	{"Mechanical Engineering", []string{"mechanical", "hvac", "plumbing"}},
	{"Electrical Engineering", []string{"electrical", "lighting", "power distribution"}},
	{"Environmental", []string{"environmental", "nepa", "wetland", "hazardous material"}},
	{"Surveying", []string{"survey", "topographic"}},
	{"Landscape Architecture", []string{"landscape"}},
	{"Transportation Planning", []string{"traffic", "transportation planning"}},
	{"Construction Management", []string{"construction management", "inspection services", "cm services"}},
}

var riskDetectors = []struct {
	re          *regexp.Regexp
	category    string
	description string
}{
	{regexp.MustCompile(`(?i)liquidated damages`), "Contractual", "Liquidated damages apply for late completion"},
	{regexp.MustCompile(`(?i)(unlimited|uncapped) liability|indemnif`), "Contractual", "Broad indemnification or uncapped liability terms"},
	{regexp.MustCompile(`(?i)performance bond|bid bond|payment bond`), "Financial", "Bonding is required"},
	{regexp.MustCompile(`(?i)retainage|retention of \d+`), "Financial", "Payment retainage withheld"},
	{regexp.MustCompile(`(?i)fixed[- ]price|lump[- ]sum`), "Financial", "Fixed-price compensation shifts cost risk"},
	{regexp.MustCompile(`(?i)permit`), "Compliance", "Permitting responsibility and approval timing"},
	{regexp.MustCompile(`(?i)prevailing wage|davis[- ]bacon|\bdbe goal|\b[mw]be\b`), "Compliance", "Wage or participation requirements"},
	{regexp.MustCompile(`(?i)(tight|aggressive|accelerated|expedited) (schedule|timeline|deadline)`), "Schedule", "Compressed schedule"},
	{regexp.MustCompile(`(?i)to be determined|\bTBD\b|not yet defined|subject to change`), "Scope", "Scope items are not fully defined"},
	{regexp.MustCompile(`(?i)insurance (requirement|coverage)|professional liability insurance`), "Insurance", "Specific insurance coverage required"},
}

var (
	isoDate  = `(\d{4}-\d{2}-\d{2})`
	longDate = `((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4})`

	dateDetectors = []struct {
		key string
		re  *regexp.Regexp
	}{
		{"submission", regexp.MustCompile(`(?i)(?:submission|proposals? (?:are )?due|due date|deadline|closing date)[^\n]{0,60}?(?:` + isoDate + `|` + longDate + `)`)},
		{"completion", regexp.MustCompile(`(?i)(?:completion|completed by|substantial completion|project end)[^\n]{0,60}?(?:` + isoDate + `|` + longDate + `)`)},
		{"siteVisit", regexp.MustCompile(`(?i)(?:site visit|site walk|walkthrough|walk-through|pre-bid|pre-proposal)[^\n]{0,60}?(?:` + isoDate + `|` + longDate + `)`)},
	}
)

// Analyze runs every detector over text. Exported for the CLI's offline mode.
func Analyze(text string) output {
	lower := strings.ToLower(text)
	out := output{Disciplines: []string{}, Dates: map[string]string{}, Risks: []risk{}}

	for _, d := range disciplineKeywords {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				out.Disciplines = append(out.Disciplines, d.name)
				break
			}
		}
	}

	for _, d := range dateDetectors {
		m := d.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if m[1] != "" {
			out.Dates[d.key] = m[1]
		} else if t, err := time.Parse("January 2, 2006", strings.Join(strings.Fields(m[2]), " ")); err == nil {
			out.Dates[d.key] = t.Format("2006-01-02")
		}
	}

	// satu risiko per deskripsi
	seen := map[string]bool{}
	for _, d := range riskDetectors {
		if seen[d.description] || !d.re.MatchString(text) {
			continue
		}
		seen[d.description] = true
		out.Risks = append(out.Risks, risk{Category: d.category, Description: d.description})
	}
	if _, ok := out.Dates["submission"]; !ok {
		out.Risks = append(out.Risks, risk{Category: "Schedule", Description: "Submission deadline not found in document"})
	}

	sort.Strings(out.Disciplines)

	score := 50 + 8*len(out.Disciplines) - 7*len(out.Risks)
	out.Confidence = min(90, max(10, score))
	if len(out.Disciplines) > 0 && len(out.Risks) <= 3 {
		out.GoNoGoSuggestion = "GO"
	} else {
		out.GoNoGoSuggestion = "NO-GO"
	}

	switch {
	case len(out.Disciplines) == 0:
		out.Rationale = "No recognizable engineering or design disciplines were found, so fit with the firm's services cannot be established."
	case out.GoNoGoSuggestion == "GO":
		out.Rationale = fmt.Sprintf("The scope calls for %s with %d identified risk(s), which looks manageable.", strings.Join(out.Disciplines, ", "), len(out.Risks))
	default:
		out.Rationale = fmt.Sprintf("The scope calls for %s but carries %d identified risks; review terms before committing.", strings.Join(out.Disciplines, ", "), len(out.Risks))
	}
	return out
}
