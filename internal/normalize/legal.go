package normalize

import (
	"regexp"
	"strings"
)

// Legal description phrasing varies by title company; these cover the
// forms seen in Orange County recorder extracts.
var multiSpaceRe = regexp.MustCompile(`\s+`)

var (
	lotOfTractRe = regexp.MustCompile(`LOT\s+(\d+\w*).*?TRACT\s+(?:NO\s*)?(\d+\w*)`)
	tractLotRe   = regexp.MustCompile(`TRACT\s+(?:NO\s*)?(\d+\w*).*?LOT\s+(\d+\w*)`)
	trLotRe      = regexp.MustCompile(`TR\s+(\d+\w*).*?LOT\s+(\d+\w*)`)
	anyLotRe     = regexp.MustCompile(`LOT\s+(\d+\w*)`)
	anyTractRe   = regexp.MustCompile(`(?:TRACT|TR)\s+(?:NO\s*)?(\d+\w*)`)
)

// ParseLegalDescription extracts lot and tract numbers from legal
// description text, e.g. "LOT 87 OF TRACT NO 13141" -> ("87", "13141").
// Both values are "" when the text carries neither identifier. Lot and
// tract stay strings: suffixed values like "12A" are legitimate.
func ParseLegalDescription(desc string) (lot, tract string) {
	if desc == "" {
		return "", ""
	}
	upper := strings.ToUpper(multiSpaceRe.ReplaceAllString(desc, " "))

	if m := lotOfTractRe.FindStringSubmatch(upper); m != nil {
		return m[1], m[2]
	}
	if m := tractLotRe.FindStringSubmatch(upper); m != nil {
		return m[2], m[1]
	}
	if m := trLotRe.FindStringSubmatch(upper); m != nil {
		return m[2], m[1]
	}

	if m := anyLotRe.FindStringSubmatch(upper); m != nil {
		lot = m[1]
	}
	if m := anyTractRe.FindStringSubmatch(upper); m != nil {
		tract = m[1]
	}
	return lot, tract
}

// LotTract canonicalizes a lot or tract identifier: uppercase, trimmed,
// leading zeros stripped so "007" and "7" land on the same lookup row.
// Alphanumeric values like "7A" keep their suffix.
func LotTract(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
