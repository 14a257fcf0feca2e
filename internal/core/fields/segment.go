package fields

import (
	"regexp"
	"strings"
)

// rePageMarker matches the delimiter the text extractor writes before every page.
var rePageMarker = regexp.MustCompile(`--- Page \d+ ---`)

// Segment splits a document on page markers and returns the non-empty pages in order.
// Text without any marker is a single implicit page.
func Segment(text string) []Page {
	parts := rePageMarker.Split(text, -1)
	pages := make([]Page, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lines := SplitLines(part)
		if len(lines) == 0 {
			continue
		}
		pages = append(pages, Page{Number: len(pages) + 1, Lines: lines})
	}
	return pages
}
