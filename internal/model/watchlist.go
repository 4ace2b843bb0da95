package model

import "time"

// WatchlistEntry is one monitored parcel, keyed by APN.
//
// AddressNormalized is always a pure function of Address: every write path
// that sets Address recomputes it (enforced by the store layer, not a
// database trigger), so normalized values never go stale.
type WatchlistEntry struct {
	ID                string     `json:"id"`
	APN               string     `json:"apn"`
	APNNormalized     string     `json:"apn_normalized"`
	Address           string     `json:"address"`
	AddressNormalized string     `json:"address_normalized"`
	City              string     `json:"city"`
	State             string     `json:"state"`
	Zip               string     `json:"zip,omitempty"`
	BuildingSF        *float64   `json:"building_sf,omitempty"`
	AssessedTotal     *float64   `json:"assessed_total,omitempty"`
	IsListedForSale   bool       `json:"is_listed_for_sale"`
	ListingPrice      *float64   `json:"listing_price,omitempty"`
	LastSaleDate      *time.Time `json:"last_sale_date,omitempty"`
	LastSalePrice     *float64   `json:"last_sale_price,omitempty"`
	LastSaleDocNumber *string    `json:"last_sale_doc_number,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LotTractMapping associates a (lot, tract, city) triple with an APN.
// Lot and tract are strings: county data carries alphanumeric suffixes.
// The triple is unique; SourcedAt orders competing mappings when a lookup
// has to fall back to a city-less match.
type LotTractMapping struct {
	LotNumber     string    `json:"lot_number"`
	TractNumber   string    `json:"tract_number"`
	City          string    `json:"city,omitempty"`
	APN           string    `json:"apn"`
	APNNormalized string    `json:"apn_normalized"`
	CentroidLat   *float64  `json:"centroid_lat,omitempty"`
	CentroidLng   *float64  `json:"centroid_lng,omitempty"`
	SourcedAt     time.Time `json:"sourced_at"`
}
