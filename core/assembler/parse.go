package assembler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/response.json
var responseSchemaJSON string

var responseSchema = mustSchema(responseSchemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	sch, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("assembler: invalid response schema: %v", err))
	}
	return sch
}

// RawSlot is a time slot as returned by the reasoning service.
type RawSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RawSuggestion is one suggestion as returned by the reasoning service.
// Every field may be missing.
type RawSuggestion struct {
	Date           string   `json:"date"`
	DayName        string   `json:"day_name"`
	TimeSlot       *RawSlot `json:"time_slot"`
	Confidence     string   `json:"confidence"`
	TechnicianID   string   `json:"technician_id"`
	NearbyJobCount *int     `json:"nearby_job_count"`
	SkillMatch     string   `json:"skill_match"`
	Justification  string   `json:"justification"`
}

// ParseResult is either Parsed or Unparseable.
type ParseResult interface {
	isParseResult()
}

// Parsed is a structurally valid response.
type Parsed struct {
	Suggestions []RawSuggestion `json:"suggestions"`
	Analysis    string          `json:"analysis"`
	Warnings    []string        `json:"warnings"`
}

// Unparseable holds a response that could not be read.
type Unparseable struct {
	Raw    string
	Reason string
}

func (Parsed) isParseResult()      {}
func (Unparseable) isParseResult() {}

// ParseResponse reads the reasoning service output. Markdown fences and
// surrounding prose are tolerated: the first balanced JSON object is
// extracted and checked against the response schema before decoding.
func ParseResponse(raw string) ParseResult {
	text := stripFences(raw)
	obj, ok := firstObject(text)
	if !ok {
		return Unparseable{Raw: raw, Reason: "no JSON object found"}
	}
	res, err := responseSchema.Validate(gojsonschema.NewStringLoader(obj))
	if err != nil {
		return Unparseable{Raw: raw, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Unparseable{Raw: raw, Reason: "schema violation: " + strings.Join(msgs, "; ")}
	}
	var p Parsed
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return Unparseable{Raw: raw, Reason: fmt.Sprintf("decode: %v", err)}
	}
	return p
}

// stripFences removes a surrounding ```json ... ``` block, if any.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	body := text[start+3:]
	// drop the language tag on the opening fence line
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(body[:nl], "{") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// firstObject returns the first balanced {...} in text. Braces inside JSON
// strings are ignored.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
