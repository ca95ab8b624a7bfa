package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
	objectSpan = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ParseOutcome is the result of parsing a provider reply as a JSON object.
// OK is false when neither the whole reply nor its outermost brace span
// decodes to an object.
type ParseOutcome struct {
	Value map[string]any
	OK    bool
}

// stripFences removes a surrounding markdown code fence.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = fenceOpen.ReplaceAllString(text, "")
		text = fenceClose.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// parseJSONObject decodes a reply in two stages: the fence-stripped text
// strictly, then the outermost {...} span found anywhere in the reply.
func parseJSONObject(raw string) ParseOutcome {
	text := stripFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return ParseOutcome{Value: obj, OK: true}
	}

	span := objectSpan.FindString(raw)
	if span == "" {
		return ParseOutcome{}
	}
	obj = nil
	if err := json.Unmarshal([]byte(span), &obj); err == nil && obj != nil {
		return ParseOutcome{Value: obj, OK: true}
	}
	return ParseOutcome{}
}

// parseStringArray strictly decodes a fence-stripped JSON array and keeps
// its string entries.
func parseStringArray(raw string) ([]string, error) {
	var items []any
	if err := json.Unmarshal([]byte(stripFences(raw)), &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// stringField returns obj[key] rendered as text. Missing and null values
// are empty.
func stringField(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// floatField returns obj[key] as a number, accepting numeric strings.
func floatField(obj map[string]any, key string, def float64) float64 {
	v, ok := obj[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
