package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	titleMinLen       = 3
	titleMaxLen       = 120
	descriptionMaxLen = 2000
)

// Offer is a quantity-limited, time-windowed listing sold by a place. All
// mutation goes through its methods; invariants are re-checked on every write.
type Offer struct {
	id      uuid.UUID
	placeID uuid.UUID

	title       string
	description string

	price         Money
	originalPrice Money

	quantityTotal     int
	quantityAvailable int

	pickupStart time.Time
	pickupEnd   time.Time
	expiresAt   *time.Time

	status    OfferStatus
	tags      []string
	allergens []string
	imageURLs []string

	createdAt time.Time
	updatedAt time.Time

	// version is the storage row version used for optimistic concurrency.
	// Zero for offers that have never been persisted.
	version int64
}

// NewOfferParams carries the inputs for NewOffer. Optional fields may be left
// at their zero value.
type NewOfferParams struct {
	PlaceID       uuid.UUID
	Title         string
	Description   string
	Price         Money
	OriginalPrice Money
	QuantityTotal int
	PickupStart   time.Time
	PickupEnd     time.Time
	ExpiresAt     *time.Time
	Tags          []string
	Allergens     []string
	ImageURLs     []string
}

// NewOffer constructs a draft offer with the full quantity available and runs
// the complete invariant check.
func NewOffer(p NewOfferParams, now time.Time) (*Offer, error) {
	o := &Offer{
		id:                uuid.New(),
		placeID:           p.PlaceID,
		title:             strings.TrimSpace(p.Title),
		description:       strings.TrimSpace(p.Description),
		price:             p.Price,
		originalPrice:     p.OriginalPrice,
		quantityTotal:     p.QuantityTotal,
		quantityAvailable: p.QuantityTotal,
		pickupStart:       p.PickupStart.UTC(),
		pickupEnd:         p.PickupEnd.UTC(),
		status:            StatusDraft,
		tags:              p.Tags,
		allergens:         p.Allergens,
		imageURLs:         p.ImageURLs,
		createdAt:         now.UTC(),
		updatedAt:         now.UTC(),
	}
	if p.ExpiresAt != nil {
		t := p.ExpiresAt.UTC()
		o.expiresAt = &t
	}
	o.normalize()
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// OfferSnapshot is the exported view of an offer's full state, used for
// persistence mapping and read models.
type OfferSnapshot struct {
	ID                uuid.UUID
	PlaceID           uuid.UUID
	Title             string
	Description       string
	Price             Money
	OriginalPrice     Money
	QuantityTotal     int
	QuantityAvailable int
	PickupStart       time.Time
	PickupEnd         time.Time
	ExpiresAt         *time.Time
	Status            OfferStatus
	Tags              []string
	Allergens         []string
	ImageURLs         []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
}

// RehydrateOffer rebuilds an offer from persisted state, re-running the
// invariant check so a corrupted row cannot enter the domain.
func RehydrateOffer(s OfferSnapshot) (*Offer, error) {
	if !s.Status.Valid() {
		return nil, validationf("unknown offer status %q", s.Status)
	}
	o := &Offer{
		id:                s.ID,
		placeID:           s.PlaceID,
		title:             s.Title,
		description:       s.Description,
		price:             s.Price,
		originalPrice:     s.OriginalPrice,
		quantityTotal:     s.QuantityTotal,
		quantityAvailable: s.QuantityAvailable,
		pickupStart:       s.PickupStart.UTC(),
		pickupEnd:         s.PickupEnd.UTC(),
		status:            s.Status,
		tags:              append([]string(nil), s.Tags...),
		allergens:         append([]string(nil), s.Allergens...),
		imageURLs:         append([]string(nil), s.ImageURLs...),
		createdAt:         s.CreatedAt.UTC(),
		updatedAt:         s.UpdatedAt.UTC(),
		version:           s.Version,
	}
	if s.ExpiresAt != nil {
		t := s.ExpiresAt.UTC()
		o.expiresAt = &t
	}
	o.normalize()
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Snapshot returns a copy of the offer's full state.
func (o *Offer) Snapshot() OfferSnapshot {
	var expiresAt *time.Time
	if o.expiresAt != nil {
		t := *o.expiresAt
		expiresAt = &t
	}
	return OfferSnapshot{
		ID:                o.id,
		PlaceID:           o.placeID,
		Title:             o.title,
		Description:       o.description,
		Price:             o.price,
		OriginalPrice:     o.originalPrice,
		QuantityTotal:     o.quantityTotal,
		QuantityAvailable: o.quantityAvailable,
		PickupStart:       o.pickupStart,
		PickupEnd:         o.pickupEnd,
		ExpiresAt:         expiresAt,
		Status:            o.status,
		Tags:              append([]string(nil), o.tags...),
		Allergens:         append([]string(nil), o.allergens...),
		ImageURLs:         append([]string(nil), o.imageURLs...),
		CreatedAt:         o.createdAt,
		UpdatedAt:         o.updatedAt,
		Version:           o.version,
	}
}

func (o *Offer) ID() uuid.UUID          { return o.id }
func (o *Offer) PlaceID() uuid.UUID     { return o.placeID }
func (o *Offer) Title() string          { return o.title }
func (o *Offer) Status() OfferStatus    { return o.status }
func (o *Offer) Price() Money           { return o.price }
func (o *Offer) OriginalPrice() Money   { return o.originalPrice }
func (o *Offer) QuantityTotal() int     { return o.quantityTotal }
func (o *Offer) QuantityAvailable() int { return o.quantityAvailable }
func (o *Offer) PickupStart() time.Time { return o.pickupStart }
func (o *Offer) PickupEnd() time.Time   { return o.pickupEnd }
func (o *Offer) UpdatedAt() time.Time   { return o.updatedAt }
func (o *Offer) Version() int64         { return o.version }

// QuantityCommitted is the net quantity currently reserved against the offer.
func (o *Offer) QuantityCommitted() int {
	return o.quantityTotal - o.quantityAvailable
}

// OwnedBy reports whether the offer belongs to the given place.
func (o *Offer) OwnedBy(placeID uuid.UUID) bool {
	return o.placeID == placeID
}

// EffectiveDeadline is expires_at when set, otherwise pickup_end.
func (o *Offer) EffectiveDeadline() time.Time {
	if o.expiresAt != nil {
		return *o.expiresAt
	}
	return o.pickupEnd
}

// IsExpired reports whether now is past the effective deadline.
func (o *Offer) IsExpired(now time.Time) bool {
	return now.After(o.EffectiveDeadline())
}

// InPickupWindow reports whether now falls inside [pickup_start, pickup_end].
func (o *Offer) InPickupWindow(now time.Time) bool {
	return !now.Before(o.pickupStart) && !now.After(o.pickupEnd)
}

// Activate makes the offer visible and reservable. Idempotent when already
// active; fails on cancelled or expired offers.
func (o *Offer) Activate(now time.Time) error {
	if err := o.validate(); err != nil {
		return err
	}
	if o.status == StatusCancelled || o.status == StatusExpired {
		return notAvailablef("cannot activate offer in status %s", o.status)
	}
	o.status = StatusActive
	o.touch(now)
	return nil
}

// Pause hides an active offer. A no-op in any other status.
func (o *Offer) Pause(now time.Time) {
	if o.status == StatusActive {
		o.status = StatusPaused
		o.touch(now)
	}
}

// Cancel removes the offer. Terminal; always allowed.
func (o *Offer) Cancel(now time.Time) {
	o.status = StatusCancelled
	o.touch(now)
}

// RefreshTimeStatus moves the offer to expired once the effective deadline has
// passed. Cancelled and sold-out offers keep their status.
func (o *Offer) RefreshTimeStatus(now time.Time) {
	if o.status == StatusCancelled || o.status == StatusSoldOut {
		return
	}
	if o.IsExpired(now) && o.status != StatusExpired {
		o.status = StatusExpired
		o.touch(now)
	}
}

// CanReserve is the pure reservation predicate: positive quantity, active
// status, not expired, before pickup_end, and enough availability.
func (o *Offer) CanReserve(qty int, now time.Time) bool {
	if qty <= 0 {
		return false
	}
	if o.status != StatusActive {
		return false
	}
	if o.IsExpired(now) {
		return false
	}
	// Reserving before pickup_start is allowed: customers can pre-order for a
	// window later in the day.
	if now.After(o.pickupEnd) {
		return false
	}
	return o.quantityAvailable >= qty
}

// Reserve commits qty against the available quantity. Time-derived status is
// refreshed first so an offer that expired mid-flight cannot be sold.
func (o *Offer) Reserve(qty int, now time.Time) error {
	o.RefreshTimeStatus(now)

	if qty <= 0 {
		return validationf("reservation quantity must be > 0")
	}
	if o.status != StatusActive {
		return notAvailablef("offer is not active (status=%s)", o.status)
	}
	if o.IsExpired(now) {
		return notAvailablef("offer is expired")
	}
	if o.quantityAvailable < qty {
		return &InsufficientQuantityError{Requested: qty, Available: o.quantityAvailable}
	}

	o.quantityAvailable -= qty
	if o.quantityAvailable == 0 {
		o.status = StatusSoldOut
	}
	o.touch(now)
	return nil
}

// Release returns qty to the available quantity, capped at the total. Used
// when an order is cancelled or payment fails.
func (o *Offer) Release(qty int, now time.Time) error {
	if qty <= 0 {
		return validationf("release quantity must be > 0")
	}
	if o.status == StatusCancelled || o.status == StatusExpired {
		return notAvailablef("cannot release into status %s", o.status)
	}

	o.quantityAvailable = min(o.quantityTotal, o.quantityAvailable+qty)
	if o.status == StatusSoldOut && o.quantityAvailable > 0 {
		o.status = StatusActive
	}
	o.touch(now)
	return nil
}

// DiscountPercent returns the integer discount vs the original price, in
// [0, 100], rounded half-up.
func (o *Offer) DiscountPercent() int {
	if o.originalPrice.Amount().IsZero() {
		return 0
	}
	if o.price.Amount().GreaterThanOrEqual(o.originalPrice.Amount()) {
		return 0
	}
	ratio := decimal.NewFromInt(1).
		Sub(o.price.Amount().Div(o.originalPrice.Amount())).
		Mul(decimal.NewFromInt(100))
	return int(ratio.Round(0).IntPart())
}

// OfferUpdate is a partial update from the owning partner. Nil fields are
// left unchanged.
type OfferUpdate struct {
	Title               *string
	Description         *string
	PriceAmount         *decimal.Decimal
	OriginalPriceAmount *decimal.Decimal
	QuantityTotal       *int
	PickupStart         *time.Time
	PickupEnd           *time.Time
	ExpiresAt           *time.Time
	Tags                []string
	Allergens           []string
	ImageURLs           []string
	Status              *OfferStatus
}

// ApplyUpdate applies a partial partner update and re-validates. Cancelled and
// expired offers cannot be edited. Revising quantity_total keeps the already
// committed quantity intact: the new total may not drop below it, and the
// available quantity becomes new_total - committed.
func (o *Offer) ApplyUpdate(u OfferUpdate, now time.Time) error {
	if o.status == StatusCancelled || o.status == StatusExpired {
		return notAvailablef("cannot edit offer in status %s", o.status)
	}

	if u.Title != nil {
		o.title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		o.description = strings.TrimSpace(*u.Description)
	}
	if u.PriceAmount != nil {
		price, err := NewMoney(*u.PriceAmount, o.price.Currency())
		if err != nil {
			return err
		}
		o.price = price
	}
	if u.OriginalPriceAmount != nil {
		original, err := NewMoney(*u.OriginalPriceAmount, o.originalPrice.Currency())
		if err != nil {
			return err
		}
		o.originalPrice = original
	}
	if u.QuantityTotal != nil {
		committed := o.QuantityCommitted()
		if *u.QuantityTotal < committed {
			return validationf("cannot set quantity_total below committed quantity (%d)", committed)
		}
		o.quantityAvailable = *u.QuantityTotal - committed
		o.quantityTotal = *u.QuantityTotal
	}
	if u.PickupStart != nil {
		o.pickupStart = u.PickupStart.UTC()
	}
	if u.PickupEnd != nil {
		o.pickupEnd = u.PickupEnd.UTC()
	}
	if u.ExpiresAt != nil {
		t := u.ExpiresAt.UTC()
		o.expiresAt = &t
	}
	if u.Tags != nil {
		o.tags = u.Tags
	}
	if u.Allergens != nil {
		o.allergens = u.Allergens
	}
	if u.ImageURLs != nil {
		o.imageURLs = u.ImageURLs
	}

	o.normalize()
	if err := o.validate(); err != nil {
		return err
	}

	if u.Status != nil {
		switch *u.Status {
		case StatusActive:
			if err := o.Activate(now); err != nil {
				return err
			}
		case StatusPaused:
			o.Pause(now)
		case StatusCancelled:
			o.Cancel(now)
		default:
			return validationf("status can only be changed to active, paused or cancelled")
		}
	}

	o.touch(now)
	return nil
}

func (o *Offer) touch(now time.Time) {
	o.updatedAt = now.UTC()
}

func (o *Offer) normalize() {
	o.tags = normalizeList(o.tags, true)
	o.allergens = normalizeList(o.allergens, true)
	o.imageURLs = normalizeList(o.imageURLs, false)
}

func (o *Offer) validate() error {
	if o.id == uuid.Nil {
		return validationf("offer id is required")
	}
	if o.placeID == uuid.Nil {
		return validationf("place_id is required")
	}

	if utf8.RuneCountInString(o.title) < titleMinLen {
		return validationf("title must be at least %d characters", titleMinLen)
	}
	if utf8.RuneCountInString(o.title) > titleMaxLen {
		return validationf("title is too long (max %d)", titleMaxLen)
	}
	if utf8.RuneCountInString(o.description) > descriptionMaxLen {
		return validationf("description is too long (max %d)", descriptionMaxLen)
	}

	if o.quantityTotal <= 0 {
		return validationf("quantity_total must be > 0")
	}
	if o.quantityAvailable < 0 || o.quantityAvailable > o.quantityTotal {
		return validationf("quantity_available must be between 0 and quantity_total")
	}

	if o.pickupStart.IsZero() || o.pickupEnd.IsZero() {
		return validationf("pickup_start and pickup_end are required")
	}
	if !o.pickupEnd.After(o.pickupStart) {
		return validationf("pickup_end must be after pickup_start")
	}
	if o.expiresAt != nil && o.expiresAt.Before(o.pickupStart) {
		return validationf("expires_at cannot be before pickup_start")
	}

	if !o.price.IsPositive() {
		return validationf("price must be > 0")
	}
	if !o.originalPrice.IsPositive() {
		return validationf("original_price must be > 0")
	}
	if o.price.Currency() != o.originalPrice.Currency() {
		return validationf("price and original_price currency must match")
	}
	if o.price.Amount().GreaterThan(o.originalPrice.Amount()) {
		return validationf("price cannot be higher than original_price")
	}

	return nil
}

func normalizeList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if lower {
			v = strings.ToLower(v)
		}
		out = append(out, v)
	}
	return out
}
