// Package normalize canonicalizes the free-text identifiers that county
// deed records and assessor exports carry: postal addresses, APNs, and
// legal descriptions.
package normalize

import (
	"regexp"
	"strings"
)

// directionals maps spelled-out compass words to their postal abbreviations.
// Compound directions must be checked before simple ones would match as
// substrings, but word-boundary replacement makes ordering irrelevant here.
var directionals = map[string]string{
	"north": "n", "south": "s", "east": "e", "west": "w",
	"northeast": "ne", "northwest": "nw",
	"southeast": "se", "southwest": "sw",
}

// streetTypes maps spelled-out street suffixes to their abbreviations.
var streetTypes = map[string]string{
	"street": "st", "avenue": "ave", "boulevard": "blvd",
	"drive": "dr", "road": "rd", "lane": "ln",
	"court": "ct", "circle": "cir", "place": "pl",
	"way": "wy", "parkway": "pkwy", "highway": "hwy",
}

var (
	punctRe     = regexp.MustCompile(`[.,#]`)
	streetNumRe = regexp.MustCompile(`^(\d+)`)
	wordRes     = buildWordRes()
)

// buildWordRes precompiles a whole-word regexp per replaced word.
func buildWordRes() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp, len(directionals)+len(streetTypes))
	for w := range directionals {
		res[w] = regexp.MustCompile(`\b` + w + `\b`)
	}
	for w := range streetTypes {
		res[w] = regexp.MustCompile(`\b` + w + `\b`)
	}
	return res
}

// Address canonicalizes a free-text postal address into the comparable
// token form used for similarity matching: lowercase, punctuation stripped,
// directionals and street types abbreviated, whitespace collapsed.
// Pure and idempotent; empty in, empty out.
func Address(addr string) string {
	if addr == "" {
		return ""
	}

	s := strings.ToLower(strings.TrimSpace(addr))
	s = punctRe.ReplaceAllString(s, "")

	for full, abbrev := range directionals {
		s = wordRes[full].ReplaceAllString(s, abbrev)
	}
	for full, abbrev := range streetTypes {
		s = wordRes[full].ReplaceAllString(s, abbrev)
	}

	return strings.Join(strings.Fields(s), " ")
}

// StreetNumber extracts the leading digit run from a normalized address.
// Returns "" when the address does not start with a digit.
func StreetNumber(normalized string) string {
	return streetNumRe.FindString(normalized)
}

// APN strips dashes and spaces from an Assessor Parcel Number so that
// "023-456-78" and "02345678" compare equal.
func APN(apn string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(apn))
}
