package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const prefix = "career"

// NormalizeSuburl lowercases and trims a career-page subdomain.
func NormalizeSuburl(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CompanyKey is the shared-cache key for a company catalog. The readable part
// is sanitized and capped; the hash keeps distinct inputs apart.
func CompanyKey(suburl string) string {
	norm := NormalizeSuburl(suburl)
	safe := sanitizeForKey(norm)

	const maxLen = 64
	if len(safe) > maxLen {
		safe = safe[:maxLen]
	}
	return fmt.Sprintf("%s:company:%s:h=%016x", prefix, safe, xxhash.Sum64String(norm))
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
