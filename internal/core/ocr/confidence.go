package ocr

import (
	"regexp"
	"strings"
)

var (
	reEmailish   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reRolePhone  = regexp.MustCompile(`\+\d[\d\s]{7,}\s*\((M|D|HQ)\)`)
	reNameShaped = regexp.MustCompile(`(?m)^\s*[A-Z][a-z]+(\s+[A-Z][a-z]*)+\s*$`)
)

// heuristicConfidence scores decoded text by the artifacts a business card carries.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	if reEmailish.MatchString(txt) {
		score += 0.2
	}
	if reRolePhone.MatchString(txt) {
		score += 0.2
	}
	if reNameShaped.MatchString(txt) {
		score += 0.15
	}
	if len(strings.TrimSpace(txt)) > 80 {
		score += 0.1
	}
	return min(score, 1)
}

// blendConfidence weights tesseract's own word confidence over the heuristic
// when tesseract reported one.
func blendConfidence(tess, heur float32) float32 {
	if tess <= 0 {
		return heur
	}
	return min(0.7*tess+0.3*heur, 1)
}
