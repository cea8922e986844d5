package grading

import (
	"encoding/json"
	"regexp"
	"strings"
)

// strategy tries to pull feedback out of a cleaned reply.
type strategy struct {
	name string
	fn   func(cleaned string) (Feedback, bool)
}

// strategies run in order; the first one that yields feedback wins.
var strategies = []strategy{
	{name: "json", fn: parseDirectJSON},
	{name: "embedded_json", fn: parseEmbeddedJSON},
	{name: "key_lines", fn: parseKeyLines},
}

// Parse extracts feedback and the next question from a grading reply. It never
// fails: when no strategy matches, the whole cleaned text is the feedback.
func Parse(raw string) Feedback {
	fb, _ := ParseWithStrategy(raw)
	return fb
}

// ParseWithStrategy is Parse that also names the strategy that matched.
func ParseWithStrategy(raw string) (Feedback, string) {
	cleaned := stripCodeFence(raw)
	for _, s := range strategies {
		if fb, ok := s.fn(cleaned); ok {
			return fb, s.name
		}
	}
	return Feedback{Feedback: stripQuotes(cleaned)}, "plain_text"
}

// stripCodeFence removes a leading ``` or ```json line and a trailing ```.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			lang := strings.TrimSpace(s[:nl])
			if lang == "" || isFenceLanguage(lang) {
				s = s[nl+1:]
			}
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceLanguage(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func parseDirectJSON(cleaned string) (Feedback, bool) {
	return decodeFeedback(cleaned)
}

func parseEmbeddedJSON(cleaned string) (Feedback, bool) {
	obj := extractJSON(cleaned)
	if obj == "" {
		return Feedback{}, false
	}
	return decodeFeedback(obj)
}

// decodeFeedback accepts a JSON object with a non-empty feedback value.
// Non-string values are rendered back to their JSON text.
func decodeFeedback(s string) (Feedback, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return Feedback{}, false
	}
	fb := Feedback{
		Feedback:     stripQuotes(rawString(obj["feedback"])),
		NextQuestion: stripQuotes(rawString(obj["next_question"])),
	}
	if fb.Feedback == "" {
		return Feedback{}, false
	}
	return fb, true
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// keyLine matches a key at the start of a line, after optional list or
// markdown markers, or a quoted key following a comma in a JSON-ish line.
var keyLine = regexp.MustCompile(`(?i)(?:^\s*[-*{"']*\s*|,\s*["'])\b(feedback|next[_ ]question)\b[*"']*\s*[:=]\s*("(?:[^"\\]|\\.)*"|[^\n]+)`)

// parseKeyLines handles replies like `Feedback: Good job` on separate lines,
// and JSON-ish lines that failed to decode.
func parseKeyLines(cleaned string) (Feedback, bool) {
	var fb Feedback
	for _, line := range strings.Split(cleaned, "\n") {
		for _, m := range keyLine.FindAllStringSubmatch(line, -1) {
			value := keyValue(m[2])
			if strings.HasPrefix(strings.ToLower(m[1]), "feedback") {
				if fb.Feedback == "" {
					fb.Feedback = value
				}
			} else if fb.NextQuestion == "" {
				fb.NextQuestion = value
			}
		}
	}
	if fb.Feedback == "" {
		return Feedback{}, false
	}
	return fb, true
}

func keyValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, `"`) {
		var s string
		if err := json.Unmarshal([]byte(v), &s); err == nil {
			return stripQuotes(s)
		}
	}
	v = strings.TrimSpace(strings.TrimRight(v, ",}"))
	return stripQuotes(v)
}

var quotePairs = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'`':  '`',
	'“':  '”',
	'‘':  '’',
}

// stripQuotes removes one pair of matching quotes around s.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) < 2 {
		return s
	}
	if closing, ok := quotePairs[r[0]]; ok && r[len(r)-1] == closing {
		return strings.TrimSpace(string(r[1 : len(r)-1]))
	}
	return s
}

// extractJSON finds the first balanced JSON object in a string.
// It skips braces inside quoted strings.
func extractJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range s {
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' && start != -1 {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
