package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization. The store only
// ever persists or matches this form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeFullName trims surrounding whitespace; display names keep their case.
func NormalizeFullName(s string) string {
	return strings.TrimSpace(s)
}
