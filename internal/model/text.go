package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxPostalLength is the longest postal address the remote system accepts.
const MaxPostalLength = 50

const (
	postalPrefixLen = 36
	postalSuffixLen = 10
	postalEllipsis  = "..."
)

// Normalize trims whitespace and converts s to Unicode NFC, so that names
// exported with decomposed characters (e.g. "a" + combining ring) compare
// equal to their precomposed remote counterparts.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// TruncatePostal shortens a postal address longer than MaxPostalLength
// characters to a 36-character prefix, "..." and the last 10 characters.
// The result is at most 49 characters, so truncation is idempotent.
func TruncatePostal(s string) string {
	r := []rune(s)
	if len(r) <= MaxPostalLength {
		return s
	}
	return string(r[:postalPrefixLen]) + postalEllipsis + string(r[len(r)-postalSuffixLen:])
}

// ParseFlag interprets the boolean spellings used by both remote rows and
// import files. Unknown spellings are false.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "j", "ja":
		return true
	}
	return false
}

// FormatFlag renders a boolean in the remote system's 1/0 convention.
func FormatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
