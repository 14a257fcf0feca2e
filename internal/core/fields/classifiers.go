package fields

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsPersonName reports whether an already normalized line looks like a person's
// name: two or more tokens, no title or company keyword, and every purely
// alphabetic token capitalised.
func (e *Extractor) IsPersonName(text string) bool {
	words := strings.Fields(text)
	if len(words) < 2 {
		return false
	}
	lower := strings.ToLower(text)
	if containsAny(lower, e.vocab.NameRejectTitles) || containsAny(lower, e.vocab.NameRejectCompanies) {
		return false
	}
	for _, w := range words {
		if !isAlpha(w) {
			continue
		}
		first, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}

// IsTitle reports whether a raw line mentions a job title keyword.
func (e *Extractor) IsTitle(line string) bool {
	return containsAny(strings.ToLower(line), e.vocab.TitleKeywords)
}

// IsCompany reports whether a normalized line names a company and is not a person's name.
func (e *Extractor) IsCompany(normalized string) bool {
	if !containsAny(strings.ToLower(normalized), e.vocab.CompanyIndicators) {
		return false
	}
	return utf8.RuneCountInString(normalized) > 3 && !e.IsPersonName(normalized)
}

// MatchEmail returns the first email address in line.
func (e *Extractor) MatchEmail(line string) (string, bool) {
	m := e.patterns.email.FindString(line)
	return m, m != ""
}

// opensLocation reports whether a raw line starts a location section.
func (e *Extractor) opensLocation(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range e.vocab.LocationOpeners {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func (e *Extractor) closesLocation(line string) bool {
	return containsAny(strings.ToLower(line), e.vocab.LocationClosers)
}

// locationBlock collects the lines of the location section, or nil if none opens.
// A repeated opener inside the section is skipped like the first one.
func (e *Extractor) locationBlock(lines []string) []string {
	var out []string
	open := false
	for _, ln := range lines {
		if e.opensLocation(ln) {
			open = true
			continue
		}
		if !open {
			continue
		}
		if e.closesLocation(ln) {
			break
		}
		if ln != "" && !strings.HasPrefix(ln, "---") {
			out = append(out, ln)
		}
	}
	return out
}

// firstMatch returns the value produced for the first line accepted by match.
func firstMatch(lines []string, match func(line string) (string, bool)) (string, bool) {
	for _, ln := range lines {
		if v, ok := match(ln); ok {
			return v, true
		}
	}
	return "", false
}

// lastMatch scans every line; a later accepted line replaces an earlier one.
func lastMatch(lines []string, match func(line string) (string, bool)) (string, bool) {
	var (
		out   string
		found bool
	)
	for _, ln := range lines {
		if v, ok := match(ln); ok {
			out, found = v, true
		}
	}
	return out, found
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func isAlpha(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
