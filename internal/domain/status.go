package domain

// OfferStatus is the closed set of offer lifecycle states.
type OfferStatus string

const (
	StatusDraft     OfferStatus = "draft"     // created but not visible
	StatusActive    OfferStatus = "active"    // visible and reservable
	StatusPaused    OfferStatus = "paused"    // temporarily hidden by the partner
	StatusSoldOut   OfferStatus = "sold_out"  // no quantity left
	StatusExpired   OfferStatus = "expired"   // effective deadline passed
	StatusCancelled OfferStatus = "cancelled" // removed by partner/admin, terminal
)

// Valid reports whether s is one of the known statuses.
func (s OfferStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusSoldOut, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s OfferStatus) Terminal() bool {
	return s == StatusCancelled
}
