package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// Translator looks up translations for a set of source messages.
type Translator interface {
	Messages(ctx context.Context, lang string, sources []string) (map[string]string, error)
}

var translatable = regexp.MustCompile(`__\(\s*("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')`)

// ExtractMessages returns the distinct string literals passed to __() in
// script, sorted.
func ExtractMessages(script string) []string {
	var out []string
	for _, m := range translatable.FindAllStringSubmatch(script, -1) {
		lit := m[1]
		var s string
		if lit[0] == '"' {
			u, err := strconv.Unquote(lit)
			if err != nil {
				continue
			}
			s = u
		} else {
			s = unquoteSingle(lit[1 : len(lit)-1])
		}
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

func unquoteSingle(s string) string {
	var buf []rune
	escaped := false
	for _, r := range s {
		if escaped {
			buf = append(buf, r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		buf = append(buf, r)
	}
	return string(buf)
}

// langJS returns the statement merging the translations of script's
// messages into the client message table.
func langJS(ctx context.Context, t Translator, lang, script string) (string, error) {
	msgs := map[string]string{}
	if sources := ExtractMessages(script); len(sources) > 0 {
		found, err := t.Messages(ctx, lang, sources)
		if err != nil {
			return "", fmt.Errorf("translations: %w", err)
		}
		for k, v := range found {
			msgs[k] = v
		}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return "", fmt.Errorf("translations: %w", err)
	}
	return "\n\nObject.assign(desk._messages, " + string(b) + ");", nil
}
