package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tidex114/est-backend/internal/domain"
)

// ErrForbidden signals that the caller is not allowed to manage the targeted
// place or offer.
var ErrForbidden = errors.New("you don't have permission to manage this resource")

// OfferRepository is the persistence boundary for offers. Update must perform
// a compare-and-swap on the offer's version and return domain.ErrConflict when
// the row changed since it was loaded.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Offer, error)
	Update(ctx context.Context, offer *domain.Offer) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListActive(ctx context.Context, now time.Time, limit, offset int) ([]*domain.Offer, error)
	ListByPlace(ctx context.Context, placeID uuid.UUID, limit, offset int) ([]*domain.Offer, error)
	CountAll(ctx context.Context) (int, error)
}

// IdempotencyStore remembers reservation outcomes per (scope, key) so a
// replayed request returns the original result instead of committing twice.
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// Event is a lifecycle or inventory notification emitted after a committed
// state change.
type Event struct {
	Type     string    `json:"type"`
	OfferID  uuid.UUID `json:"offer_id"`
	PlaceID  uuid.UUID `json:"place_id"`
	Quantity int       `json:"quantity,omitempty"`
	At       time.Time `json:"at"`
}

const (
	EventOfferCreated   = "offer.created"
	EventOfferCancelled = "offer.cancelled"
	EventOfferReserved  = "offer.reserved"
	EventOfferReleased  = "offer.released"
)

// EventPublisher delivers events best-effort; failures are logged, never
// surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
