package model

import (
	"encoding/json"
	"strings"
)

// LegalRefKind discriminates what a deed's raw payload identifies the
// property by.
type LegalRefKind string

const (
	LegalRefLotTract    LegalRefKind = "lot_tract"
	LegalRefAddressOnly LegalRefKind = "address_only"
	LegalRefUnparsed    LegalRefKind = "unparsed"
)

// LegalRef is the typed view of a deed's raw_data payload. County sources
// emit a loose JSON bag; modeling it as a tagged variant keeps the
// orchestrator's branching exhaustive instead of probing an untyped map.
type LegalRef struct {
	Kind        LegalRefKind
	LotNumber   string // set when Kind == LegalRefLotTract
	TractNumber string // set when Kind == LegalRefLotTract
	Address     string // set when Kind == LegalRefAddressOnly
}

// rawPayload mirrors the fields the scrapers put into raw_data.
type rawPayload struct {
	LotNumber   string `json:"lot_number"`
	TractNumber string `json:"tract_number"`
	Address     string `json:"address"`
}

// ParseLegalRef classifies a deed's raw_data payload. A payload with both
// lot and tract numbers is LegalRefLotTract; one with only an address is
// LegalRefAddressOnly; anything else, including malformed JSON from the
// external feed, is LegalRefUnparsed.
func ParseLegalRef(raw []byte) LegalRef {
	if len(raw) == 0 {
		return LegalRef{Kind: LegalRefUnparsed}
	}

	var p rawPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return LegalRef{Kind: LegalRefUnparsed}
	}

	lot := strings.TrimSpace(p.LotNumber)
	tract := strings.TrimSpace(p.TractNumber)
	if lot != "" && tract != "" {
		return LegalRef{Kind: LegalRefLotTract, LotNumber: lot, TractNumber: tract}
	}

	if addr := strings.TrimSpace(p.Address); addr != "" {
		return LegalRef{Kind: LegalRefAddressOnly, Address: addr}
	}

	return LegalRef{Kind: LegalRefUnparsed}
}
