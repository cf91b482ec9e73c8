// Package label cleans the free-text quality and format labels scraped from
// upstream HTML fragments.
package label

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanLabel normalizes a scraped label: NFKC folds odd unicode widths and
// non-breaking spaces (upstream fragments pad cells with &nbsp;), runs of
// whitespace collapse to one space, the result is trimmed.
func CleanLabel(s string) string {
	s = norm.NFKC.String(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CanonicalQuality lower-cases a cleaned quality label for score-table
// lookup. An empty label canonicalizes to "auto".
func CanonicalQuality(s string) string {
	s = strings.ToLower(CleanLabel(s))
	if s == "" {
		return "auto"
	}
	return s
}

// CanonicalFormat lower-cases a cleaned container label, defaulting to "mp4".
func CanonicalFormat(s string) string {
	s = strings.ToLower(CleanLabel(s))
	if s == "" {
		return "mp4"
	}
	return s
}
