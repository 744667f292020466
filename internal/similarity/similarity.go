// Package similarity scores lexical overlap between two texts.
//
// The score is Jaccard similarity over case-folded whitespace tokens: a
// deliberately cheap approximation with no stemming and no synonym
// awareness. It drives duplicate rejection and consolidation suggestions,
// so callers should treat it as a hint about wording, not meaning.
package similarity

import "strings"

// Jaccard returns |A∩B| / |A∪B| over the distinct token sets of a and b,
// in [0,1]. Tokens are compared by exact string match after lowercasing;
// punctuation is not stripped. If either text has no tokens the result
// is 0, including Jaccard("", "").
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
