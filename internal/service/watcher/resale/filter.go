package resale

// Reason explains why an offer was admitted or rejected.
type Reason int

const (
	// ReasonAdmitted marks an offer that passed every check.
	ReasonAdmitted Reason = iota

	// ReasonNoPrice marks an offer with an absent or non-numeric price.
	// Such an offer is never notified and never recorded as seen.
	ReasonNoPrice

	// ReasonPriceAboveLimit marks an offer at or above the price limit.
	// Admission requires the price to be strictly below the limit.
	ReasonPriceAboveLimit

	// ReasonAlreadySeen marks an offer whose id was already notified.
	ReasonAlreadySeen
)

// String names the reason for logs.
func (r Reason) String() string {
	switch r {
	case ReasonAdmitted:
		return "admitted"
	case ReasonNoPrice:
		return "no_price"
	case ReasonPriceAboveLimit:
		return "price_above_limit"
	case ReasonAlreadySeen:
		return "already_seen"
	default:
		return "unknown"
	}
}

// Verdict is the per-offer filter decision.
type Verdict struct {
	Reason Reason

	// PriceMajor holds the display price; meaningless for ReasonNoPrice.
	PriceMajor float64
}

// Admitted reports whether the offer passed all checks.
func (v Verdict) Admitted() bool {
	return v.Reason == ReasonAdmitted
}

// Judge decides one offer against the price limit and the seen set. It is
// pure: seen is only queried, never mutated, and offers never affect each
// other's verdicts.
//
// Checks run in order: price presence, price limit (strict less-than),
// dedup.
func Judge(offer Offer, maxPrice float64, seen func(id string) bool) Verdict {
	price, ok := offer.DisplayPrice()
	if !ok {
		return Verdict{Reason: ReasonNoPrice}
	}

	if price >= maxPrice {
		return Verdict{Reason: ReasonPriceAboveLimit, PriceMajor: price}
	}

	if seen(offer.ID) {
		return Verdict{Reason: ReasonAlreadySeen, PriceMajor: price}
	}

	return Verdict{Reason: ReasonAdmitted, PriceMajor: price}
}
