// Package locale negotiates the UI language of a request and orders
// translated labels the way readers of that language expect.
package locale

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/osama1998H/frappe/internal/domain"
)

// DefaultLanguage is used when nothing better matches.
const DefaultLanguage = "en"

// Matcher picks the best supported language for an Accept-Language header.
type Matcher struct {
	supported []string
	matcher   language.Matcher
}

// NewMatcher builds a Matcher over the supported language codes. The first
// code is the fallback; DefaultLanguage is used when the list is empty.
// Codes that do not parse are ignored.
func NewMatcher(supported []string) *Matcher {
	var (
		codes []string
		tags  []language.Tag
	)
	for _, code := range supported {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		codes = append(codes, code)
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		codes = []string{DefaultLanguage}
		tags = []language.Tag{language.English}
	}
	return &Matcher{supported: codes, matcher: language.NewMatcher(tags)}
}

// Match returns the supported code that best fits header.
func (m *Matcher) Match(header string) string {
	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(prefs) == 0 {
		return m.supported[0]
	}
	_, idx, conf := m.matcher.Match(prefs...)
	if conf == language.No {
		return m.supported[0]
	}
	return m.supported[idx]
}

// SortOptions orders opts by label using the collation rules of lang.
// Equal labels keep their input order.
func SortOptions(lang string, opts []domain.Option) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	c := collate.New(tag)
	slices.SortStableFunc(opts, func(a, b domain.Option) int {
		return c.CompareString(a.Label, b.Label)
	})
}
