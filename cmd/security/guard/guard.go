package guard

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Structural email check: local part, "@", domain, ".", tld. Intentionally
// loose beyond that; deliverability is not the guard's job.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// StringField asserts that raw is a plain JSON string and returns its value.
//
// Objects, arrays, numbers, booleans and null are all rejected with
// ErrNotAString. This is the check that blocks operator-injection payloads
// such as {"$ne": null} before a query is ever built from them. A missing
// field (zero-length raw) reports ErrEmptyField.
func StringField(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", ErrEmptyField
	}
	// Shape first: json.Unmarshal into a string target accepts null without
	// error, so the leading token must be checked explicitly.
	if trimmed[0] != '"' {
		return "", ErrNotAString
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", ErrNotAString
	}
	return s, nil
}

// Email validates and canonicalizes an untrusted email field: plain string,
// trimmed, lowercased, structurally valid. The returned value is the only
// form that may be used in a credential lookup.
func Email(raw json.RawMessage) (string, error) {
	s, err := StringField(raw)
	if err != nil {
		return "", err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", ErrEmptyField
	}
	if !emailRe.MatchString(s) {
		return "", ErrBadEmail
	}
	return s, nil
}

// Password validates an untrusted password field: plain string, present, at
// least minLen runes. The value is returned verbatim; passwords are never
// normalized.
func Password(raw json.RawMessage, minLen int) (string, error) {
	s, err := StringField(raw)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrEmptyField
	}
	if utf8.RuneCountInString(s) < minLen {
		return "", ErrPasswordTooShort
	}
	return s, nil
}
