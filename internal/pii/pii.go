package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// countryCallingCode is prepended to phone numbers that arrive without it.
// The destination platform matches phones on the full international form.
const countryCallingCode = "55"

// Hash returns the lower-case hex SHA-256 of the trimmed, lower-cased input.
// An empty (or whitespace-only) value yields "" so callers can omit the field
// instead of transmitting a hash of the empty string.
func Hash(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// NormalizePhone strips everything but digits and ensures the national
// calling-code prefix, e.g. "(31) 99999-8888" → "5531999998888".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if !strings.HasPrefix(digits, countryCallingCode) {
		digits = countryCallingCode + digits
	}
	return digits
}

// SplitName splits a full name on whitespace: the first token is the first
// name, the rest (joined by single spaces) is the last name. Last is "" for
// single-token names.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
