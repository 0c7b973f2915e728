package util

import "strings"

// NormalizeIdentifier canonicalizes an email or phone string into a
// comparison-stable form: emails (anything containing "@") are trimmed and
// lower-cased, everything else is treated as a phone number and stripped down
// to its digits. Never fails; may return an empty string.
func NormalizeIdentifier(identifier string) string {
	v := strings.TrimSpace(identifier)
	if strings.Contains(v, "@") {
		return strings.ToLower(v)
	}
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsEmailIdentifier reports whether a normalized identifier is an email.
func IsEmailIdentifier(identifier string) bool {
	return strings.Contains(identifier, "@")
}
