package voice

import (
	"regexp"
	"strings"
	"unicode"
)

// #region tokens

type token struct {
	text string
	word bool
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// tokenize splits s into alternating word and non-word runs. Joining the
// token texts gives back s exactly.
func tokenize(s string) []token {
	var out []token
	runes := []rune(s)
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || isWordRune(runes[i]) != isWordRune(runes[start]) {
			out = append(out, token{text: string(runes[start:i]), word: isWordRune(runes[start])})
			start = i
		}
	}
	return out
}

// nextWord returns the word after index i when only whitespace separates them.
func nextWord(toks []token, i int) (string, bool) {
	if i+2 >= len(toks) {
		return "", false
	}
	if strings.TrimSpace(toks[i+1].text) != "" {
		return "", false
	}
	return toks[i+2].text, toks[i+2].word
}

// matchCase gives repl the capitalisation of the first rune of orig.
func matchCase(orig, repl string) string {
	o := []rune(orig)
	if len(o) == 0 || !unicode.IsUpper(o[0]) {
		return repl
	}
	r := []rune(repl)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// #endregion tokens

// #region term-search

type span struct{ start, end int }

// findTerm returns every case-insensitive occurrence of term in text that is
// bounded by non-word runes on both sides. Offsets are rune indices.
func findTerm(text []rune, term string) []span {
	t := []rune(strings.ToLower(term))
	if len(t) == 0 {
		return nil
	}
	var out []span
	for i := 0; i+len(t) <= len(text); i++ {
		if i > 0 && isWordRune(text[i-1]) {
			continue
		}
		match := true
		for j, r := range t {
			if unicode.ToLower(text[i+j]) != r {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		end := i + len(t)
		if end < len(text) && isWordRune(text[end]) {
			continue
		}
		out = append(out, span{i, end})
		i = end - 1
	}
	return out
}

func containsTerm(text, term string) bool {
	return len(findTerm([]rune(text), term)) > 0
}

// #endregion term-search

// #region tidy

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	spaceBeforeP  = regexp.MustCompile(`\s+([,.!?…;:])`)
	repeatedComma = regexp.MustCompile(`,(\s*,)+`)
)

// tidy normalises spacing and punctuation left behind by word edits and
// capitalises the first letter.
func tidy(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = spaceBeforeP.ReplaceAllString(s, "$1")
	s = repeatedComma.ReplaceAllString(s, ",")
	s = strings.TrimLeft(s, " ,;:-–")
	s = strings.TrimSpace(s)
	return capitalizeFirst(s)
}

func capitalizeFirst(s string) string {
	r := []rune(s)
	for i, c := range r {
		if unicode.IsLetter(c) {
			if unicode.IsUpper(c) {
				return s
			}
			r[i] = unicode.ToUpper(c)
			return string(r)
		}
		if !unicode.IsPunct(c) && !unicode.IsSpace(c) {
			return s
		}
	}
	return s
}

// #endregion tidy

// #region sentences

// splitSentences splits on . ! ? and … followed by whitespace or the end of
// text. Terminators stay with their sentence; empty pieces are dropped.
func splitSentences(s string) []string {
	runes := []rune(s)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && (isTerminator(runes[j+1]) || runes[j+1] == '"' || runes[j+1] == '»') {
			j++
		}
		if j+1 < len(runes) && !unicode.IsSpace(runes[j+1]) {
			i = j
			continue
		}
		if piece := strings.TrimSpace(string(runes[start : j+1])); piece != "" {
			out = append(out, piece)
		}
		start = j + 1
		i = j
	}
	if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
		out = append(out, piece)
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func runeLen(s string) int {
	return len([]rune(s))
}

// #endregion sentences
