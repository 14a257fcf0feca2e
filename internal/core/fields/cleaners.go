package fields

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	reDigits       = regexp.MustCompile(`\d+`)
	reLocationJunk = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z},.\-]`)
	reLetterRun    = regexp.MustCompile(`[\p{L}\p{M}]+`)
)

// CleanPhoneNumber keeps only the digits of a matched phone string, prefixed with '+'.
// Input without digits is returned unchanged.
func CleanPhoneNumber(phone string) string {
	nums := reDigits.FindAllString(phone, -1)
	if len(nums) == 0 {
		return phone
	}
	return "+" + strings.Join(nums, "")
}

type phraseFix struct {
	re *regexp.Regexp
	to string
}

type locationCleaner struct {
	fixes []phraseFix
}

func newLocationCleaner(fixes []PhraseFix) (locationCleaner, error) {
	out := locationCleaner{fixes: make([]phraseFix, 0, len(fixes))}
	for _, f := range fixes {
		if strings.TrimSpace(f.From) == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(f.From) + `\b`)
		if err != nil {
			return locationCleaner{}, fmt.Errorf("compile location fix %q: %w", f.From, err)
		}
		out.fixes = append(out.fixes, phraseFix{re: re, to: f.To})
	}
	return out, nil
}

// clean strips everything but word characters, whitespace and ",.-", collapses
// whitespace, title-cases, then applies the phrase fixes so their casing wins.
func (c locationCleaner) clean(loc string) string {
	loc = reLocationJunk.ReplaceAllString(loc, "")
	loc = strings.TrimSpace(reWhitespace.ReplaceAllString(loc, " "))
	loc = titleLetterRuns(loc)
	for _, f := range c.fixes {
		loc = f.re.ReplaceAllLiteralString(loc, f.to)
	}
	return loc
}

// titleLetterRuns capitalises every run of letters, so "p.o." becomes "P.O."
// and "12th" becomes "12Th".
func titleLetterRuns(s string) string {
	// cases.Caser is stateful; one per call.
	caser := cases.Title(language.Und)
	return reLetterRun.ReplaceAllStringFunc(s, caser.String)
}
