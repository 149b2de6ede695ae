// Package slug derives URL-safe identifiers from free-form titles.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is the base used when a title has no ASCII-representable characters.
const Fallback = "item"

// Make lowercases s, transliterates it to ASCII where a compatibility
// decomposition exists, drops punctuation and joins words with single hyphens.
func Make(s string) string {
	decomposed, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		decomposed = s
	}

	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(decomposed) {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			sep = true
		}
	}

	return strings.Trim(b.String(), "-_")
}

// Base returns Make(title), or Fallback when that is empty.
func Base(title string) string {
	if s := Make(title); s != "" {
		return s
	}
	return Fallback
}

// WithSuffix returns the n-th candidate for base: base itself for n == 0,
// base-n otherwise.
func WithSuffix(base string, n int) string {
	if n <= 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
