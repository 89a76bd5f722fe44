// Package voice keeps patient replies in a first-person, non-expert register.
//
// Calibrate runs the whole pipeline: pronoun rewrite, jargon removal, insight
// removal, truncation to the phase budget and uncertainty anchoring. The
// output of Calibrate is a fixed point of Calibrate.
package voice

import (
	"strings"

	"github.com/toradrage/mct-trener/internal/rules"
)

// #region calibrate

// Calibrate returns text in patient voice within the budget for ph. When
// nothing usable survives it returns the phase fallback.
func Calibrate(text string, ph rules.Phase, cfg rules.Config) string {
	sentences, chars := cfg.Budget(ph)

	out := Sanitize(text)
	out = StripJargon(out)
	out = StripInsight(out)
	out = Truncate(out, sentences, chars)
	out = AnchorUncertainty(out, ph, chars)

	if out == "" || !Compliant(out) {
		return Fallback(ph)
	}
	return out
}

// Fallback is the phase-appropriate reply used when calibration or
// paraphrasing leaves nothing usable.
func Fallback(ph rules.Phase) string {
	if s, ok := fallbacks[ph]; ok {
		return Sanitize(s)
	}
	return Sanitize(fallbacks[rules.PhaseFormulation])
}

// #endregion calibrate

// #region sanitize

// Sanitize rewrites first-person plural and generic pronouns to first-person
// singular, preserving the capitalisation of each replaced word.
func Sanitize(text string) string {
	toks := tokenize(text)
	changed := false
	for i, tok := range toks {
		if !tok.word {
			continue
		}
		lw := strings.ToLower(tok.text)
		repl := ""
		if r, ok := weWords[lw]; ok {
			repl = r
		} else if lw == "man" {
			repl = "jeg"
		} else if lw == "en" {
			if next, ok := nextWord(toks, i); ok && pronounVerbs[strings.ToLower(next)] {
				repl = "jeg"
			}
		}
		if repl != "" {
			toks[i].text = matchCase(tok.text, repl)
			changed = true
		}
	}
	if !changed && text == tidy(text) {
		return text
	}
	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(tok.text)
	}
	return tidy(b.String())
}

// #endregion sanitize

// #region strip

// StripJargon removes therapist vocabulary.
func StripJargon(text string) string {
	runes := []rune(text)
	drop := make([]bool, len(runes))
	found := false
	for _, term := range jargon {
		for _, sp := range findTerm(runes, term) {
			found = true
			for i := sp.start; i < sp.end; i++ {
				drop[i] = true
			}
		}
	}
	if !found {
		return text
	}
	kept := make([]rune, 0, len(runes))
	for i, r := range runes {
		if !drop[i] {
			kept = append(kept, r)
		}
	}
	return tidy(string(kept))
}

// StripInsight drops every sentence that contains an insight marker.
func StripInsight(text string) string {
	sentences := splitSentences(text)
	kept := sentences[:0:0]
	for _, s := range sentences {
		if !hasInsight(s) {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(sentences) {
		return text
	}
	return tidy(strings.Join(kept, " "))
}

func hasInsight(s string) bool {
	for _, m := range insightMarkers {
		if containsTerm(s, m) {
			return true
		}
	}
	return false
}

// #endregion strip

// #region truncate

// Truncate keeps at most maxSentences sentences and maxChars runes. A cut
// inside a sentence ends on a word boundary with an ellipsis; the ellipsis
// counts against maxChars.
func Truncate(text string, maxSentences, maxChars int) string {
	out := text
	if sentences := splitSentences(text); len(sentences) > maxSentences {
		out = strings.Join(sentences[:maxSentences], " ")
	}
	if runeLen(out) <= maxChars {
		return out
	}
	return cutAtWord(out, maxChars-1) + "…"
}

// cutAtWord shortens s to at most n runes, preferring the last space, and
// trims trailing punctuation.
func cutAtWord(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return strings.TrimRight(s, " ,;:-–.!?…")
	}
	r = r[:n]
	if i := lastSpace(r); i > 0 {
		r = r[:i]
	}
	return strings.TrimRight(string(r), " ,;:-–.!?…")
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

// #endregion truncate

// #region anchor

// AnchorUncertainty turns a bare "I don't know" into an answer tied to a
// feeling or urge. The result stays within maxChars and adds no sentence.
func AnchorUncertainty(text string, ph rules.Phase, maxChars int) string {
	if !startsUncertain(text) || hasAnchor(text) {
		return text
	}
	tail, ok := anchorTails[ph]
	if !ok {
		tail = anchorTails[rules.PhaseFormulation]
	}
	suffix := ", men " + tail + "."
	base := strings.TrimRight(text, " ,;:-–.!?…")
	if runeLen(base)+runeLen(suffix) > maxChars {
		base = cutAtWord(base, maxChars-runeLen(suffix))
	}
	if base == "" {
		return text
	}
	return base + suffix
}

func startsUncertain(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, o := range uncertaintyOpeners {
		if strings.HasPrefix(lower, o) {
			rest := []rune(lower[len(o):])
			if len(rest) == 0 || !isWordRune(rest[0]) {
				return true
			}
		}
	}
	return false
}

func hasAnchor(text string) bool {
	for _, tok := range tokenize(text) {
		if !tok.word {
			continue
		}
		lw := strings.ToLower(tok.text)
		for _, stem := range anchorStems {
			if strings.HasPrefix(lw, stem) {
				return true
			}
		}
	}
	return false
}

// #endregion anchor
