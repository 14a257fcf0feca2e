package fields

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PhraseFix is one literal, case-insensitive replacement applied to locations.
type PhraseFix struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Patterns holds the regular expressions used by the email and phone classifiers.
type Patterns struct {
	Email       string `yaml:"email"`
	MobilePhone string `yaml:"mobile_phone"`
	DirectPhone string `yaml:"direct_phone"`
	HQPhone     string `yaml:"hq_phone"`
}

// Vocabulary is the lexical configuration every classifier reads from.
// Zero-valued sections of a loaded file fall back to DefaultVocabulary.
type Vocabulary struct {
	TitleKeywords       []string    `yaml:"title_keywords"`
	CompanyIndicators   []string    `yaml:"company_indicators"`
	NameRejectTitles    []string    `yaml:"name_reject_titles"`
	NameRejectCompanies []string    `yaml:"name_reject_companies"`
	LocationOpeners     []string    `yaml:"location_openers"`
	LocationClosers     []string    `yaml:"location_closers"`
	LocationFixes       []PhraseFix `yaml:"location_fixes"`
	Patterns            Patterns    `yaml:"patterns"`
}

// DefaultVocabulary returns the vocabulary tuned for one-contact-per-page business card scans.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		TitleKeywords: []string{
			"ceo", "cto", "cfo", "coo", "founder", "co-founder", "director", "managing director",
			"executive director", "senior director", "vice president", "vp", "president",
			"manager", "senior manager", "head", "lead", "chairman", "chairwoman",
		},
		CompanyIndicators: []string{
			"properties", "real estate", "group", "company", "corp", "inc",
			"llc", "ltd", "development", "investments", "solutions",
			"technologies", "services", "international", "global", "brokers",
			"realty", "developers", "management", "holdings", "ventures",
			"hub", "center", "centre", "mall", "tower", "square", "homes",
		},
		NameRejectTitles:    []string{"ceo", "cto", "cfo", "director", "manager", "president", "founder", "vice", "senior"},
		NameRejectCompanies: []string{"properties", "real estate", "group", "company", "corp", "inc", "llc", "ltd"},
		LocationOpeners:     []string{"location", "local"},
		LocationClosers:     []string{"crm", "main contact", "additional contact"},
		LocationFixes: []PhraseFix{
			{From: "dubai dubai", To: "Dubai"},
			{From: "united arab emirates", To: "United Arab Emirates"},
			{From: "uae", To: "UAE"},
		},
		Patterns: Patterns{
			Email:       `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
			MobilePhone: `\+\d{3}[\s\p{Z}]*\d{2}[\s\p{Z}]*\d{3}[\s\p{Z}]*\d{4}[\s\p{Z}]*\(M\)`,
			DirectPhone: `\+\d{3}[\s\p{Z}]*\d{1,2}[\s\p{Z}]*\d{3}[\s\p{Z}]*\d{4}[\s\p{Z}]*\(D\)`,
			HQPhone:     `\+\d{3}[\s\p{Z}]*\d{8,9}[\s\p{Z}]*\(HQ\)`,
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file and merges it over the defaults.
// An empty path returns the defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	def := DefaultVocabulary()
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	return v.withDefaults(def), nil
}

func (v Vocabulary) withDefaults(def Vocabulary) Vocabulary {
	orList := func(a, b []string) []string {
		if len(a) == 0 {
			return b
		}
		return a
	}
	orStr := func(a, b string) string {
		if a == "" {
			return b
		}
		return a
	}
	out := Vocabulary{
		TitleKeywords:       orList(v.TitleKeywords, def.TitleKeywords),
		CompanyIndicators:   orList(v.CompanyIndicators, def.CompanyIndicators),
		NameRejectTitles:    orList(v.NameRejectTitles, def.NameRejectTitles),
		NameRejectCompanies: orList(v.NameRejectCompanies, def.NameRejectCompanies),
		LocationOpeners:     orList(v.LocationOpeners, def.LocationOpeners),
		LocationClosers:     orList(v.LocationClosers, def.LocationClosers),
		LocationFixes:       v.LocationFixes,
		Patterns: Patterns{
			Email:       orStr(v.Patterns.Email, def.Patterns.Email),
			MobilePhone: orStr(v.Patterns.MobilePhone, def.Patterns.MobilePhone),
			DirectPhone: orStr(v.Patterns.DirectPhone, def.Patterns.DirectPhone),
			HQPhone:     orStr(v.Patterns.HQPhone, def.Patterns.HQPhone),
		},
	}
	if len(out.LocationFixes) == 0 {
		out.LocationFixes = def.LocationFixes
	}
	return out
}

type compiledPatterns struct {
	email  *regexp.Regexp
	mobile *regexp.Regexp
	direct *regexp.Regexp
	hq     *regexp.Regexp
}

func (p Patterns) compile() (compiledPatterns, error) {
	var out compiledPatterns
	for _, it := range []struct {
		name string
		src  string
		dst  **regexp.Regexp
	}{
		{"email", p.Email, &out.email},
		{"mobile_phone", p.MobilePhone, &out.mobile},
		{"direct_phone", p.DirectPhone, &out.direct},
		{"hq_phone", p.HQPhone, &out.hq},
	} {
		re, err := regexp.Compile(it.src)
		if err != nil {
			return compiledPatterns{}, fmt.Errorf("compile %s pattern: %w", it.name, err)
		}
		*it.dst = re
	}
	return out, nil
}
