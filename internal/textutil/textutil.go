// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textutil provides the text normalization and counting primitives
// shared by the sanitizer, enforcer, audit and similarity engines. All
// word-level measurements run on accent-folded, punctuation-stripped text
// so the engines agree on what a word is.
package textutil

import (
	"regexp"
	"strings"
)

// accentFold maps the Portuguese diacritics the generator emits to their
// ASCII base letters. Fixed mapping, intentionally not a full Unicode fold.
var accentFold = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

var (
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	slugKeepRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSepRe     = regexp.MustCompile(`[\s_-]+`)
)

// Normalize lowercases, folds accents, strips everything but letters,
// digits and spaces, and collapses whitespace.
func Normalize(text string) string {
	text = accentFold.Replace(strings.ToLower(text))
	text = nonAlnumRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// CountWords counts whitespace-separated tokens of the normalized text.
func CountWords(text string) int {
	norm := Normalize(text)
	if norm == "" {
		return 0
	}
	return len(strings.Fields(norm))
}

// PhraseOccurrences counts exact contiguous-token matches of phrase in
// text, both normalized. No stemming.
func PhraseOccurrences(text, phrase string) int {
	t := strings.Fields(Normalize(text))
	p := strings.Fields(Normalize(phrase))
	if len(p) == 0 || len(p) > len(t) {
		return 0
	}
	total := 0
	for i := 0; i+len(p) <= len(t); i++ {
		match := true
		for j := range p {
			if t[i+j] != p[j] {
				match = false
				break
			}
		}
		if match {
			total++
		}
	}
	return total
}

// KeywordDensityPct returns occurrences×phrase-tokens over total tokens,
// as a percentage of the normalized text.
func KeywordDensityPct(text, keyword string) float64 {
	words := CountWords(text)
	if words <= 0 {
		return 0
	}
	kwTokens := len(strings.Fields(Normalize(keyword)))
	if kwTokens == 0 {
		return 0
	}
	covered := PhraseOccurrences(text, keyword) * kwTokens
	return float64(covered) / float64(words) * 100
}

// StripHTML removes script/style payloads and every tag, collapsing the
// remainder to single-spaced plain text with original casing.
func StripHTML(html string) string {
	html = scriptBlockRe.ReplaceAllString(html, " ")
	html = styleBlockRe.ReplaceAllString(html, " ")
	html = tagRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(html, " "))
}

// StripHTMLLower is StripHTML lowercased, the form used for text equality
// checks such as duplicate-paragraph detection.
func StripHTMLLower(html string) string {
	return strings.ToLower(StripHTML(html))
}

// Slugify builds a lowercase kebab-case slug from text.
func Slugify(text string) string {
	text = accentFold.Replace(strings.ToLower(strings.TrimSpace(text)))
	text = slugKeepRe.ReplaceAllString(text, "")
	text = slugSepRe.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}

// Tokenize lowercases, strips punctuation, and returns the tokens longer
// than two characters. This is the similarity engine's token stream.
func Tokenize(text string) []string {
	text = nonAlnumRe.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(text)
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// TokenJaccard is set-overlap similarity over normalized word sets, used
// for near-duplicate title detection.
func TokenJaccard(a, b string) float64 {
	sa := map[string]bool{}
	for _, t := range strings.Fields(Normalize(a)) {
		sa[t] = true
	}
	sb := map[string]bool{}
	for _, t := range strings.Fields(Normalize(b)) {
		sb[t] = true
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for t := range sa {
		if sb[t] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
