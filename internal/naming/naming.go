// Package naming derives short, URL-safe, collision-free record names from
// human-readable titles.
//
// A title is normalized into a candidate (lowercase, quotes removed, spaces to
// hyphens, truncated). If the candidate is taken, the namer appends one more
// than the highest numeric suffix already in use:
//
//	"My Page"  -> "my-page"
//	"My Page"  -> "my-page-1"   (when "my-page" exists)
//	"foo"      -> "foo-4"       (when "foo", "foo-1", "foo-3" exist)
//
// The lookup is a pre-check only. The store's unique constraint decides, and
// callers wrap "name + insert" in CreateWithRetry.
package naming

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/osama1998H/frappe/internal/domain"
)

const (
	// DefaultMaxLength is the candidate length limit in characters.
	// Suffixes are appended after truncation and may exceed it.
	DefaultMaxLength = 20

	// DefaultPlaceholderPrefix marks names assigned to unsaved records.
	DefaultPlaceholderPrefix = "New "
)

// Index answers existence questions about one collection of names.
type Index interface {
	// Exists reports whether name is already taken.
	Exists(ctx context.Context, name string) (bool, error)

	// MaxSuffix returns the highest n for which "{base}-{n}" exists, where n
	// is all digits. found is false when no such name exists.
	MaxSuffix(ctx context.Context, base string) (n int, found bool, err error)
}

// Normalize turns a title into a slug candidate: lowercase, single and
// double quotes removed, each space replaced by a hyphen, truncated to
// maxLen characters. Other punctuation is preserved.
func Normalize(title string, maxLen int) string {
	s := strings.ToLower(title)
	s = strings.NewReplacer(`"`, "", "'", "", " ", "-").Replace(s)
	if maxLen > 0 {
		if r := []rune(s); len(r) > maxLen {
			s = string(r[:maxLen])
		}
	}
	return s
}

// IsPlaceholder reports whether name is empty or still carries the
// placeholder prefix given to unsaved records.
func IsPlaceholder(name, prefix string) bool {
	return name == "" || (prefix != "" && strings.HasPrefix(name, prefix))
}

// Namer assigns unique names against an Index.
type Namer struct {
	index             Index
	maxLength         int
	placeholderPrefix string
}

// Option configures a Namer.
type Option func(*Namer)

// WithMaxLength overrides DefaultMaxLength.
func WithMaxLength(n int) Option {
	return func(nm *Namer) {
		if n > 0 {
			nm.maxLength = n
		}
	}
}

// WithPlaceholderPrefix overrides DefaultPlaceholderPrefix.
func WithPlaceholderPrefix(prefix string) Option {
	return func(nm *Namer) {
		nm.placeholderPrefix = prefix
	}
}

// New constructs a Namer backed by idx.
func New(idx Index, opts ...Option) *Namer {
	nm := &Namer{
		index:             idx,
		maxLength:         DefaultMaxLength,
		placeholderPrefix: DefaultPlaceholderPrefix,
	}
	for _, opt := range opts {
		opt(nm)
	}
	return nm
}

// Name returns the name a record should be stored under.
// A record that already has a real name keeps it; the index is not consulted.
// Otherwise the name is derived from title and made unique against the index.
// Returns domain.ErrValidation when title normalizes to nothing.
func (n *Namer) Name(ctx context.Context, title, existing string) (string, error) {
	if !IsPlaceholder(existing, n.placeholderPrefix) {
		return existing, nil
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	candidate := Normalize(title, n.maxLength)
	if candidate == "" {
		return "", fmt.Errorf("%w: title %q does not produce a usable name", domain.ErrValidation, title)
	}

	taken, err := n.index.Exists(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("naming.Namer.Name: %w", err)
	}
	if !taken {
		return candidate, nil
	}

	highest, found, err := n.index.MaxSuffix(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("naming.Namer.Name: %w", err)
	}
	next := 1
	if found {
		next = highest + 1
	}
	return candidate + "-" + strconv.Itoa(next), nil
}

// SuffixOf parses the numeric suffix of name relative to base.
// It returns false unless name is exactly "{base}-{digits}".
func SuffixOf(name, base string) (int, bool) {
	rest, ok := strings.CutPrefix(name, base+"-")
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
