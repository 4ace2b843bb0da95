package match

import "strings"

// trigrams extracts the trigram set of a string the way pg_trgm does:
// each whitespace-separated word is padded with two leading spaces and
// one trailing space, then every 3-byte window is collected.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			set[padded[i:i+3]] = struct{}{}
		}
	}
	return set
}

// Similarity computes trigram set similarity between two strings,
// mirroring Postgres pg_trgm's similarity(). Inputs are expected to be
// normalized already. Returns 1 for identical non-empty strings and 0
// when either side has no trigrams.
func Similarity(a, b string) float64 {
	if a == b {
		if strings.TrimSpace(a) == "" {
			return 0
		}
		return 1
	}
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}
