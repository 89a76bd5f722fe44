package voice

import (
	"strings"
	"unicode"
)

// ViolationType names a patient-voice rule a text breaks.
type ViolationType string

const (
	ViolationEmpty          ViolationType = "empty"
	ViolationWe             ViolationType = "we_pronoun"
	ViolationGenericPronoun ViolationType = "generic_pronoun"
	ViolationJargon         ViolationType = "jargon"
	ViolationInsight        ViolationType = "insight"
)

// Violation is one broken rule and the text that broke it.
type Violation struct {
	Type ViolationType
	Term string
}

// Violations lists every patient-voice rule text breaks, in text order per rule.
func Violations(text string) []Violation {
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		return []Violation{{Type: ViolationEmpty}}
	}
	var out []Violation

	toks := tokenize(text)
	for i, tok := range toks {
		if !tok.word {
			continue
		}
		lw := strings.ToLower(tok.text)
		if _, ok := weWords[lw]; ok {
			out = append(out, Violation{Type: ViolationWe, Term: tok.text})
			continue
		}
		if lw == "man" {
			out = append(out, Violation{Type: ViolationGenericPronoun, Term: tok.text})
			continue
		}
		if lw == "en" {
			if next, ok := nextWord(toks, i); ok && pronounVerbs[strings.ToLower(next)] {
				out = append(out, Violation{Type: ViolationGenericPronoun, Term: tok.text + " " + next})
			}
		}
	}

	for _, term := range jargon {
		if containsTerm(text, term) {
			out = append(out, Violation{Type: ViolationJargon, Term: term})
		}
	}
	for _, m := range insightMarkers {
		if containsTerm(text, m) {
			out = append(out, Violation{Type: ViolationInsight, Term: m})
		}
	}
	return out
}

// Compliant reports whether text has letters and breaks no voice rule.
func Compliant(text string) bool {
	return len(Violations(text)) == 0
}
