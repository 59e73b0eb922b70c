// Package retrieval implements the relevance retrieval engine: keyword-gated
// fact matching and similarity-scored correction matching against an
// incoming email.
package retrieval

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Small bilingual stopword set; the corpus is mostly pt-PT with occasional
// English.
var stopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {}, "e": {}, "de": {}, "da": {},
	"do": {}, "das": {}, "dos": {}, "em": {}, "no": {}, "na": {}, "nos": {},
	"nas": {}, "um": {}, "uma": {}, "para": {}, "por": {}, "com": {},
	"que": {}, "se": {}, "ao": {}, "aos": {}, "mais": {}, "como": {},
	"mas": {}, "foi": {}, "ser": {}, "ou": {}, "seu": {}, "sua": {},
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "is": {}, "it": {},
	"on": {}, "for": {}, "this": {}, "that": {}, "with": {}, "are": {},
	"was": {}, "be": {}, "at": {}, "an": {},
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripDiacritics folds accented characters to their ASCII base form so
// "reunião" and "reuniao" tokenize identically.
func stripDiacritics(s string) string {
	out, _, err := transform.String(deaccent, s)
	if err != nil {
		return s
	}
	return out
}

// Tokenize normalizes text into the token set used by both fact gating and
// correction similarity: diacritics stripped, lowercased, punctuation
// removed, stopwords dropped.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	if strings.TrimSpace(text) == "" {
		return tokens
	}

	normalized := strings.ToLower(stripDiacritics(text))
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// NormalizeKeyword normalizes a single trigger keyword the same way email
// text is tokenized, so that gating compares like with like.
func NormalizeKeyword(kw string) string {
	kw = strings.ToLower(stripDiacritics(strings.TrimSpace(kw)))
	return strings.TrimFunc(kw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// jaccard computes |intersection| / |union| of two token sets.
// Returns 0.0 when both are empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
