package fields

import (
	"regexp"
	"strings"
)

var (
	rePunct       = regexp.MustCompile("[@#$%^&*()_+=\\[\\]{}|\\\\:\";'<>?,./`~]")
	reStrayLower  = regexp.MustCompile(`\b[a-z][\s\p{Z}]+([A-Z])`)
	reWhitespace  = regexp.MustCompile(`[\s\p{Z}]+`) // \s alone misses NBSP
	reLeadingNums = regexp.MustCompile(`^\d+[\s\p{Z}]*`)
)

// Normalize cleans one OCR line into its display form: punctuation becomes
// spaces, single stray lowercase letters glued before a capitalised word are
// dropped, whitespace collapses, leading line numbers are stripped.
//
// The steps repeat until the line stops changing, so Normalize is idempotent.
// Every pass after the first only removes characters, which bounds the loop.
func Normalize(line string) string {
	if line == "" {
		return ""
	}
	s := normalizeOnce(line)
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizeOnce(s string) string {
	s = rePunct.ReplaceAllString(s, " ")
	s = reStrayLower.ReplaceAllString(s, " ${1}")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = reLeadingNums.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
