package group

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 100

// defaultReserved are path segments under /groups that a slug may not shadow
var defaultReserved = []string{
	"create", "admin", "my-groups", "invites", "requests", "members", "search", "page", "type",
}

// Slugger turns group names into unique URL slugs
type Slugger struct {
	reserved map[string]bool
}

// NewSlugger creates a slugger refusing the built-in reserved words plus extra
func NewSlugger(extra ...string) *Slugger {
	s := &Slugger{reserved: make(map[string]bool)}
	for _, w := range append(defaultReserved, extra...) {
		if w = Slugify(w); w != "" {
			s.reserved[w] = true
		}
	}
	return s
}

// Reserved reports whether slug is a reserved word
func (s *Slugger) Reserved(slug string) bool {
	return s.reserved[slug]
}

// Slugify lowercases name, strips diacritics and joins the remaining
// alphanumeric runs with dashes.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// Unique returns a slug for name that is neither reserved nor taken.
// Collisions get a numeric suffix: "book-club", "book-club-2", ...
func (s *Slugger) Unique(ctx context.Context, name string, taken func(ctx context.Context, slug string) (bool, error)) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "group"
	}

	for n := 1; ; n++ {
		candidate := base
		if n > 1 {
			suffix := "-" + strconv.Itoa(n)
			trimmed := base
			if len(trimmed)+len(suffix) > maxSlugLen {
				trimmed = strings.TrimRight(trimmed[:maxSlugLen-len(suffix)], "-")
			}
			candidate = trimmed + suffix
		}
		if s.reserved[candidate] {
			continue
		}

		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}
