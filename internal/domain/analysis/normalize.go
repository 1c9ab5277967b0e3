package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// fences matches the markdown code-fence markers models wrap JSON in.
var fences = regexp.MustCompile("```(?i:json)?")

// Strip removes code fences and any prose around the outermost JSON object.
func Strip(raw string) string {
	cleaned := strings.TrimSpace(fences.ReplaceAllString(raw, ""))
	if strings.HasPrefix(cleaned, "{") {
		return cleaned
	}
	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}

// Parse strips wrapping and decodes the model output. Fields with the wrong type are
// coerced or dropped; only unparseable text is an error.
func Parse(raw string) (Result, error) {
	cleaned := Strip(raw)
	if cleaned == "" {
		return Result{}, &MalformedAnalysisError{Raw: raw, Err: errEmptyOutput}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return Result{}, &MalformedAnalysisError{Raw: raw, Err: err}
	}
	if fields == nil {
		return Result{}, &MalformedAnalysisError{Raw: raw, Err: errNotObject}
	}

	rec := fields["goNoGoSuggestion"]
	if isNull(rec) {
		rec = fields["recommendation"]
	}

	return Result{
		Disciplines:    labels(fields["disciplines"]),
		Dates:          dates(fields["dates"]),
		Risks:          risks(fields["risks"]),
		Recommendation: NormalizeRecommendation(scalarText(rec)),
		Confidence:     number(fields["confidence"]),
		Rationale:      scalarText(fields["rationale"]),
	}, nil
}

// Normalize parses the model output, runs the shape validation, and fills absent
// sequences with empty ones so the result always serializes to the full shape.
func Normalize(raw string) (Result, []Violation, error) {
	res, err := Parse(raw)
	if err != nil {
		return Result{}, nil, err
	}
	violations := Validate(res)
	if res.Disciplines == nil {
		res.Disciplines = []string{}
	}
	if res.Risks == nil {
		res.Risks = []Risk{}
	}
	return res, violations, nil
}

// NormalizeRecommendation upper-cases and canonicalizes spellings like "no go".
func NormalizeRecommendation(s string) Recommendation {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	if s == "NOGO" {
		s = string(RecommendationNoGo)
	}
	return Recommendation(s)
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// scalarText returns strings unquoted, other values as compact JSON, null as "".
func scalarText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return buf.String()
}

func labels(raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		// single value instead of a list
		if s := strings.TrimSpace(scalarText(raw)); s != "" {
			return []string{s}
		}
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if isNull(it) {
			continue
		}
		out = append(out, strings.TrimSpace(scalarText(it)))
	}
	return out
}

func risks(raw json.RawMessage) []Risk {
	if isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		items = []json.RawMessage{raw}
	}
	out := make([]Risk, 0, len(items))
	for _, it := range items {
		var r Risk
		if err := r.UnmarshalJSON(it); err != nil {
			r = PlainRisk(scalarText(it))
		}
		out = append(out, r)
	}
	return out
}

var dateKeys = map[string][]string{
	"submission": {"submission", "submissionDate", "submission_date"},
	"completion": {"completion", "completionDate", "completion_date"},
	"siteVisit":  {"siteVisit", "site_visit", "site-visit", "siteVisitDate"},
}

func dates(raw json.RawMessage) Dates {
	var obj map[string]json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &obj) != nil {
		return Dates{}
	}
	pick := func(field string) *string {
		for _, k := range dateKeys[field] {
			var s string
			if json.Unmarshal(obj[k], &s) == nil {
				if s = strings.TrimSpace(s); s != "" {
					return &s
				}
			}
		}
		return nil
	}
	return Dates{
		Submission: pick("submission"),
		Completion: pick("completion"),
		SiteVisit:  pick("siteVisit"),
	}
}

func number(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return finite(f)
	}
	return nil
}

// finite drops NaN and ±Inf; encoding/json cannot marshal them.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
