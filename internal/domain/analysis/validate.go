package analysis

import (
	"fmt"
	"math"
	"time"
)

// Violation is one shape problem found in a model result.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string { return v.Field + ": " + v.Message }

// Validate checks a parsed result against the expected analysis shape. It never fails
// the result on its own; callers decide whether violations are fatal.
func Validate(r Result) []Violation {
	var out []Violation
	add := func(field, format string, args ...any) {
		out = append(out, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !r.Recommendation.Valid() {
		add("goNoGoSuggestion", "must be GO or NO-GO, got %q", string(r.Recommendation))
	}

	switch c := r.Confidence; {
	case c == nil:
		add("confidence", "missing or not a number")
	case *c != math.Trunc(*c):
		add("confidence", "must be an integer, got %v", *c)
	case *c < 0 || *c > 100:
		add("confidence", "must be within 0-100, got %v", *c)
	}

	if r.Disciplines == nil {
		add("disciplines", "missing")
	}
	for i, d := range r.Disciplines {
		if d == "" {
			add(fmt.Sprintf("disciplines[%d]", i), "empty label")
		}
	}

	if r.Risks == nil {
		add("risks", "missing")
	}
	for i, risk := range r.Risks {
		if risk.Empty() {
			add(fmt.Sprintf("risks[%d]", i), "has neither category nor description")
		}
	}

	checkDate := func(field string, v *string) {
		if v != nil && !isISODate(*v) {
			add("dates."+field, "not an ISO-8601 date: %q", *v)
		}
	}
	checkDate("submission", r.Dates.Submission)
	checkDate("completion", r.Dates.Completion)
	checkDate("siteVisit", r.Dates.SiteVisit)

	return out
}

func isISODate(s string) bool {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
