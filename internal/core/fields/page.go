package fields

import (
	"strings"

	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
)

// Page is one segment of a document: its 1-based position among the non-empty
// pages and its non-blank, trimmed lines.
type Page struct {
	Number int
	Lines  []string
}

// SplitLines breaks page content into trimmed, non-blank lines.
func SplitLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, ln := range raw {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// ParsePage builds the contact for one page. It never fails; fields without a
// matching line keep the sentinel.
//
// Name, title, company and email take the first matching line. Phone numbers
// scan every line so one page can carry mobile, direct and HQ numbers on
// different lines.
func (e *Extractor) ParsePage(lines []string) entity.Contact {
	c := entity.NewContact()
	lines = SplitLines(strings.Join(lines, "\n"))
	if len(lines) == 0 {
		return c
	}

	if v, ok := firstMatch(lines, func(ln string) (string, bool) {
		n := Normalize(ln)
		return n, e.IsPersonName(n)
	}); ok {
		c.Name = v
	}

	if v, ok := firstMatch(lines, func(ln string) (string, bool) {
		return Normalize(ln), e.IsTitle(ln)
	}); ok {
		c.Title = v
	}

	if v, ok := firstMatch(lines, func(ln string) (string, bool) {
		n := Normalize(ln)
		return n, e.IsCompany(n)
	}); ok {
		c.Company = v
	}

	if v, ok := firstMatch(lines, e.MatchEmail); ok {
		c.Email = v
	}

	phone := func(p func(string) string) func(string) (string, bool) {
		return func(ln string) (string, bool) {
			m := p(ln)
			return CleanPhoneNumber(m), m != ""
		}
	}
	if v, ok := lastMatch(lines, phone(e.patterns.mobile.FindString)); ok {
		c.MobilePhone = v
	}
	if v, ok := lastMatch(lines, phone(e.patterns.direct.FindString)); ok {
		c.DirectPhone = v
	}
	if v, ok := lastMatch(lines, phone(e.patterns.hq.FindString)); ok {
		c.HQPhone = v
	}

	if block := e.locationBlock(lines); len(block) > 0 {
		if loc := e.location.clean(strings.Join(block, " ")); loc != "" {
			c.Location = loc
		}
	}
	return c
}
