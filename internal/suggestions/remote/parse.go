package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var errMalformed = errors.New("remote response is not a JSON array")

var (
	reFence       = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
	reListMarker  = regexp.MustCompile(`^\d{1,2}[.)]\s+([^\d\s])`)
	reLabelPrefix = regexp.MustCompile(`(?i)^(?:prompt|suggestion)(?:\s+\d{1,2}\s*[:.\-]|\s*:)\s+([^\s])`)
)

// ParseSuggestions extracts up to limit qualifying suggestions from a raw
// model reply. A reply that holds no JSON array returns errMalformed; a valid
// array with too few qualifying entries is not an error.
func ParseSuggestions(raw string, minLength, limit int) ([]string, error) {
	body := stripFence(raw)

	var items []any
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		start, end := strings.Index(body, "["), strings.LastIndex(body, "]")
		if start < 0 || end <= start {
			return nil, errMalformed
		}
		if err := json.Unmarshal([]byte(body[start:end+1]), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
	}

	out := make([]string, 0, limit)
	for _, item := range items {
		s := strings.TrimSpace(stringify(item))
		if utf8.RuneCountInString(s) <= minLength {
			continue
		}
		out = append(out, cleanSuggestion(s))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func stripFence(raw string) string {
	if m := reFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// cleanSuggestion drops a leading list marker ("1. ", "2) ") and a
// "Prompt 1:" style label. Text that merely starts with a number, such as
// "2.5 million" or "2024: ...", is left alone.
func cleanSuggestion(s string) string {
	s = reListMarker.ReplaceAllString(s, "$1")
	s = reLabelPrefix.ReplaceAllString(s, "$1")
	return s
}
