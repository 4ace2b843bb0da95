package model

import (
	"math"
	"time"
)

// MatchStatus represents the matching state of a deed recording.
// A deed starts unmatched and transitions exactly once to one of the
// terminal states; re-running the matcher over a terminal deed is a no-op.
type MatchStatus string

const (
	MatchStatusUnmatched    MatchStatus = "unmatched"
	MatchStatusExactMatched MatchStatus = "exact_matched"
	MatchStatusFuzzyMatched MatchStatus = "fuzzy_matched"
	MatchStatusNeedsReview  MatchStatus = "needs_review"
)

// Terminal reports whether the status is a final state.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusExactMatched || s == MatchStatusFuzzyMatched || s == MatchStatusNeedsReview
}

// MatchMethod records which strategy resolved a deed to a watchlist entry.
type MatchMethod string

const (
	MatchMethodAPN      MatchMethod = "apn"
	MatchMethodLotTract MatchMethod = "lot_tract"
	MatchMethodAddress  MatchMethod = "address"
)

// DeedRecording is one county-recorded real-property transfer document.
// Created by the ingestion job; mutated exactly once by the match pass.
type DeedRecording struct {
	ID                     string       `json:"id"`
	DocNumber              string       `json:"doc_number"`
	RecordingDate          time.Time    `json:"recording_date"`
	DocType                string       `json:"doc_type"`
	APN                    *string      `json:"apn,omitempty"`
	APNNormalized          *string      `json:"apn_normalized,omitempty"`
	Address                *string      `json:"address,omitempty"`
	City                   *string      `json:"city,omitempty"`
	Grantor                *string      `json:"grantor,omitempty"` // seller
	Grantee                *string      `json:"grantee,omitempty"` // buyer
	DocumentaryTransferTax *float64     `json:"documentary_transfer_tax,omitempty"`
	CalculatedSalePrice    *float64     `json:"calculated_sale_price,omitempty"`
	MatchedWatchlistID     *string      `json:"matched_watchlist_id,omitempty"`
	MatchStatus            MatchStatus  `json:"match_status"`
	MatchMethod            *MatchMethod `json:"match_method,omitempty"`
	MatchConfidence        *float64     `json:"match_confidence,omitempty"`
	RawData                []byte       `json:"raw_data,omitempty"`
	Source                 string       `json:"source"`
	ProcessedAt            *time.Time   `json:"processed_at,omitempty"`
}

// CalculateSalePrice derives the sale price from the documentary transfer
// tax at the given county rate (dollars of tax per $1,000 of price).
// Returns nil when no positive DTT was recorded.
func (d *DeedRecording) CalculateSalePrice(dttRate float64) *float64 {
	if d.DocumentaryTransferTax == nil || *d.DocumentaryTransferTax <= 0 || dttRate <= 0 {
		return nil
	}
	price := math.Round(*d.DocumentaryTransferTax / dttRate * 1000)
	return &price
}

// IsSale reports whether the deed carries a positive documentary transfer
// tax, the signal that the recording represents a genuine sale rather than
// an intra-family or zero-consideration transfer.
func (d *DeedRecording) IsSale() bool {
	return d.DocumentaryTransferTax != nil && *d.DocumentaryTransferTax > 0
}

// MatchRunStatus is the lifecycle state of a batch match pass.
type MatchRunStatus string

const (
	MatchRunRunning   MatchRunStatus = "running"
	MatchRunCompleted MatchRunStatus = "completed"
	MatchRunFailed    MatchRunStatus = "failed"
)

// MatchRun records one batch matching pass for audit.
type MatchRun struct {
	ID               string         `json:"id"`
	County           string         `json:"county"`
	StartedAt        time.Time      `json:"started_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	Status           MatchRunStatus `json:"status"`
	RecordsProcessed int            `json:"records_processed"`
	ExactMatched     int            `json:"exact_matched"`
	FuzzyMatched     int            `json:"fuzzy_matched"`
	NeedsReview      int            `json:"needs_review"`
	ErrorMessage     *string        `json:"error_message,omitempty"`
}

// SaleAlert is generated when a watched parcel sells.
type SaleAlert struct {
	ID              string     `json:"id"`
	WatchlistID     string     `json:"watchlist_id"`
	DeedID          string     `json:"deed_id"`
	APN             string     `json:"apn"`
	Address         string     `json:"address"`
	City            string     `json:"city"`
	SalePrice       *float64   `json:"sale_price,omitempty"`
	SaleDate        time.Time  `json:"sale_date"`
	Buyer           *string    `json:"buyer,omitempty"`
	Seller          *string    `json:"seller,omitempty"`
	WasListed       bool       `json:"was_listed"`
	ListingPrice    *float64   `json:"listing_price,omitempty"`
	AssessedValue   *float64   `json:"assessed_value,omitempty"`
	PriceVsAssessed *float64   `json:"price_vs_assessed,omitempty"`
	Priority        string     `json:"priority"`
	CreatedAt       time.Time  `json:"created_at"`
}

// highValueSale is the sale price above which alerts are flagged high priority.
const highValueSale = 5_000_000

// AlertPriority classifies a sale price for alert triage.
func AlertPriority(salePrice *float64) string {
	if salePrice != nil && *salePrice > highValueSale {
		return "high"
	}
	return "normal"
}
