// Package phone validates the phone numbers used as usage keys.
package phone

import "strings"

// Normalize trims surrounding whitespace and reports whether the remainder is
// a non-empty run of ASCII digits. The trimmed form is the canonical key.
func Normalize(raw string) (string, bool) {
	number := strings.TrimSpace(raw)
	if number == "" {
		return "", false
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return "", false
		}
	}
	return number, true
}

// Valid reports whether raw normalizes to a usable key.
func Valid(raw string) bool {
	_, ok := Normalize(raw)
	return ok
}
