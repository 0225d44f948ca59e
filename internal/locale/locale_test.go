package locale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/locale"
)

func TestMatcher_Match(t *testing.T) {
	m := locale.NewMatcher([]string{"en", "de", "fr"})

	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"de-DE,de;q=0.9,en;q=0.8", "de"},
		{"fr-CA", "fr"},
		{"ja", "en"},
		{"not a header ;;", "en"},
	}
	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			assert.Equal(t, tc.want, m.Match(tc.header))
		})
	}
}

func TestMatcher_EmptyFallsBackToEnglish(t *testing.T) {
	m := locale.NewMatcher(nil)
	assert.Equal(t, "en", m.Match("de"))
}

func TestSortOptions(t *testing.T) {
	opts := []domain.Option{
		{Label: "zebra", Value: "z"},
		{Label: "Äpfel", Value: "a2"},
		{Label: "apple", Value: "a1"},
		{Label: "Banane", Value: "b"},
	}

	locale.SortOptions("de", opts)

	var got []string
	for _, o := range opts {
		got = append(got, o.Value)
	}
	assert.Equal(t, []string{"a2", "a1", "b", "z"}, got, "collation ignores case and sorts umlauts with their base letter")
}
