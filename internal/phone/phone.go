// Package phone normalizes phone numbers and compares them by suffix.
//
// Stored and incoming numbers disagree on "+", leading zeros and country
// codes, but the subscriber-significant digits are stable in the last nine
// for the regions the CRM serves, so equality is a last-nine-digit
// comparison after stripping everything that is not a digit.
package phone

import "strings"

const suffixLen = 9

// Normalize strips every non-digit character from s.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Suffix returns the last nine digits of s after normalization. ok is
// false when s has fewer than nine digits, which is too short for a
// reliable suffix comparison.
func Suffix(s string) (suffix string, ok bool) {
	digits := Normalize(s)
	if len(digits) < suffixLen {
		return "", false
	}
	return digits[len(digits)-suffixLen:], true
}

// Match reports whether a and b refer to the same number by comparing
// their last nine digits. Numbers with fewer than nine digits never match.
func Match(a, b string) bool {
	sa, ok := Suffix(a)
	if !ok {
		return false
	}
	sb, ok := Suffix(b)
	if !ok {
		return false
	}
	return sa == sb
}
