// Package resale models the availability payload of the resale endpoint
// and the per-offer decisions made on it: parsing, price filtering, seat
// extraction and message formatting.
package resale

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Snapshot is the parsed availability response of one resource poll.
type Snapshot struct {
	Groups []Group `json:"groups"`
	Offers []Offer `json:"offers"`
}

// Group links a set of offers to the seat locations they cover. Places maps
// a free-form place key (e.g. "M-217") to rows, and each row to its ordered
// seat labels.
type Group struct {
	OfferIDs []string                       `json:"offerIds"`
	Places   map[string]map[string][]string `json:"places"`
}

// Offer is one resale listing. ID is the dedup key.
type Offer struct {
	ID                   string `json:"id"`
	OfferTypeDescription string `json:"offerTypeDescription"`
	Price                *Price `json:"price"`
}

// Price carries the listing amount. Total is kept raw because the endpoint
// has been observed sending numbers, numeric strings and garbage; a
// malformed total must not fail the whole document decode.
type Price struct {
	Total json.RawMessage `json:"total"`
}

// TotalCents returns the price in minor currency units. The second return
// is false when the price is absent or not numeric, which makes the offer
// unprocessable.
func (o *Offer) TotalCents() (float64, bool) {
	if o.Price == nil || len(o.Price.Total) == 0 {
		return 0, false
	}

	raw := strings.TrimSpace(string(o.Price.Total))
	if raw == "" || raw == "null" {
		return 0, false
	}

	// Only JSON numbers count; a quoted "15000" is as unprocessable as
	// any other string total.
	cents, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	return cents, true
}

// DisplayPrice returns the price in major currency units. The second
// return follows TotalCents.
func (o *Offer) DisplayPrice() (float64, bool) {
	cents, ok := o.TotalCents()
	if !ok {
		return 0, false
	}
	return cents / 100, true
}

// SeatInfo is the human-readable seat location recovered for one offer.
type SeatInfo struct {
	// Sector is the numeric run extracted from the place key, or the whole
	// key when it contains no digits.
	Sector string

	// Row is the label of the first row of the first place.
	Row string

	// Seats is the comma-joined seat label list of that row. Empty when
	// the row carries no seat labels.
	Seats string
}

// EnrichedOffer is an admitted offer with everything the dispatcher needs.
type EnrichedOffer struct {
	Offer

	// PriceMajor is the price in major units, already validated.
	PriceMajor float64

	// Seat holds the extracted location; HasSeat is false when no group
	// references the offer.
	Seat    SeatInfo
	HasSeat bool

	// ImagePath optionally points at a sector map image to attach.
	ImagePath string
}
