package sanitizer

import (
	"regexp"
	"strings"
)

var (
	reKeepLettersDigits = regexp.MustCompile(`[^0-9\p{L}]+`)
	reTrimUnderscores   = regexp.MustCompile(`_+`)
	reMultiSpace        = regexp.MustCompile(`\s+`)
)

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

func collapseUnderscores(s string) string {
	s = reTrimUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// TrimAndNormalize trims the edges and collapses interior whitespace runs
// to a single space.
func TrimAndNormalize(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		func(s string) string { return reMultiSpace.ReplaceAllString(s, " ") },
	}
	return p.Apply(input)
}

// NormalizeLabel canonicalizes free-text labels such as room types so
// "Deluxe Suite" and " deluxe  suite " index and compare as one value.
func NormalizeLabel(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reKeepLettersDigits.ReplaceAllString(s, "_") },
		collapseUnderscores,
	}
	return p.Apply(input)
}

// EscapeRegex makes user input safe to embed in a $regex filter.
func EscapeRegex(input string) string {
	return regexp.QuoteMeta(input)
}
