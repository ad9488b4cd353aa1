package projects

import "strings"

const slugMaxLen = 64

// NormalizeSlug derives a URL slug: lowercase, separators to '-', everything
// outside [a-z0-9-] dropped, dash runs collapsed, ends trimmed. Idempotent.
// Version names go through the same normalization.
func NormalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	prevDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case r == ' ' || r == '_' || r == '-' || r == '.' || r == '/':
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > slugMaxLen {
		out = strings.TrimRight(out[:slugMaxLen], "-")
	}
	return out
}

// ValidSlug reports whether a normalized slug can be used.
func ValidSlug(s string) bool {
	return len(s) >= 1 && len(s) <= slugMaxLen
}
