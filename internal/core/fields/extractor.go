package fields

import (
	"log/slog"
	"runtime"
)

// Extractor turns page text into contacts. It owns a compiled, read-only copy of
// its Vocabulary and is safe for concurrent use.
type Extractor struct {
	vocab    Vocabulary
	patterns compiledPatterns
	location locationCleaner
	workers  int
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithWorkers bounds how many pages Collect parses concurrently. n <= 1 parses sequentially.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger used for per-document debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor compiles vocab into an Extractor. Only invalid patterns fail.
func NewExtractor(vocab Vocabulary, opts ...Option) (*Extractor, error) {
	pats, err := vocab.Patterns.compile()
	if err != nil {
		return nil, err
	}
	loc, err := newLocationCleaner(vocab.LocationFixes)
	if err != nil {
		return nil, err
	}
	e := &Extractor{
		vocab:    vocab.clone(),
		patterns: pats,
		location: loc,
		workers:  runtime.GOMAXPROCS(0),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// MustNewExtractor is NewExtractor for vocabularies known to be valid, such as DefaultVocabulary.
func MustNewExtractor(vocab Vocabulary, opts ...Option) *Extractor {
	e, err := NewExtractor(vocab, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Vocabulary returns a copy of the extractor's vocabulary.
func (e *Extractor) Vocabulary() Vocabulary {
	return e.vocab.clone()
}

// CleanLocation applies the extractor's location cleanup to s.
func (e *Extractor) CleanLocation(s string) string {
	return e.location.clean(s)
}

func (v Vocabulary) clone() Vocabulary {
	cp := func(s []string) []string { return append([]string(nil), s...) }
	return Vocabulary{
		TitleKeywords:       cp(v.TitleKeywords),
		CompanyIndicators:   cp(v.CompanyIndicators),
		NameRejectTitles:    cp(v.NameRejectTitles),
		NameRejectCompanies: cp(v.NameRejectCompanies),
		LocationOpeners:     cp(v.LocationOpeners),
		LocationClosers:     cp(v.LocationClosers),
		LocationFixes:       append([]PhraseFix(nil), v.LocationFixes...),
		Patterns:            v.Patterns,
	}
}
