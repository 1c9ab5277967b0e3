package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Risk is either a plain string or a {category, description} pair.
type Risk struct {
	Text        string
	Category    string
	Description string
	structured  bool
}

// PlainRisk builds the string variant.
func PlainRisk(text string) Risk {
	return Risk{Text: text}
}

// StructuredRisk builds the object variant; either field may be empty.
func StructuredRisk(category, description string) Risk {
	return Risk{Category: category, Description: description, structured: true}
}

// Structured reports which variant r is.
func (r Risk) Structured() bool { return r.structured }

// Empty reports a structured risk with neither field set.
func (r Risk) Empty() bool {
	if r.structured {
		return strings.TrimSpace(r.Category) == "" && strings.TrimSpace(r.Description) == ""
	}
	return strings.TrimSpace(r.Text) == ""
}

// Display renders the risk the way reviewers see it.
func (r Risk) Display() string {
	if !r.structured {
		if t := strings.TrimSpace(r.Text); t != "" {
			return t
		}
		return "Uncategorized risk"
	}
	cat := strings.TrimSpace(r.Category)
	desc := strings.TrimSpace(r.Description)
	switch {
	case cat != "" && desc != "":
		return cat + ": " + desc
	case desc != "":
		return desc
	case cat != "":
		return cat
	default:
		return "Uncategorized risk"
	}
}

func (r Risk) MarshalJSON() ([]byte, error) {
	if !r.structured {
		return json.Marshal(r.Text)
	}
	return json.Marshal(struct {
		Category    string `json:"category,omitempty"`
		Description string `json:"description,omitempty"`
	}{r.Category, r.Description})
}

// UnmarshalJSON accepts a string, an object, or any other scalar (kept as text).
func (r *Risk) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = StructuredRisk("", "")
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = PlainRisk(s)
		return nil
	case b[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = StructuredRisk(scalarText(obj["category"]), scalarText(obj["description"]))
		return nil
	default:
		*r = PlainRisk(string(b))
		return nil
	}
}
