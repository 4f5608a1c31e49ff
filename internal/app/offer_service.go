package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidex114/est-backend/internal/clock"
	"github.com/tidex114/est-backend/internal/domain"
	"github.com/tidex114/est-backend/internal/identity"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// OfferService owns the offer use cases: partner CRUD, customer listing and
// the reservation protocol.
type OfferService struct {
	repo   OfferRepository
	clock  clock.Clock
	idem   IdempotencyStore // optional
	events EventPublisher   // optional
	log    *slog.Logger
}

type OfferServiceOption func(*OfferService)

// WithIdempotencyStore enables idempotent reservation replay.
func WithIdempotencyStore(store IdempotencyStore) OfferServiceOption {
	return func(s *OfferService) { s.idem = store }
}

// WithEventPublisher enables best-effort event publishing after commits.
func WithEventPublisher(pub EventPublisher) OfferServiceOption {
	return func(s *OfferService) { s.events = pub }
}

func NewOfferService(repo OfferRepository, clk clock.Clock, log *slog.Logger, opts ...OfferServiceOption) *OfferService {
	if log == nil {
		log = slog.Default()
	}
	svc := &OfferService{
		repo:  repo,
		clock: clk,
		log:   log,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateOfferInput struct {
	PlaceID               uuid.UUID
	Title                 string
	Description           string
	PriceAmount           decimal.Decimal
	PriceCurrency         string
	OriginalPriceAmount   decimal.Decimal
	OriginalPriceCurrency string
	QuantityTotal         int
	PickupStart           time.Time
	PickupEnd             time.Time
	ExpiresAt             *time.Time
	Tags                  []string
	Allergens             []string
	ImageURLs             []string
}

// CreateOffer builds a new draft offer for the caller's place. Partners may
// only create offers for the place they own.
func (s *OfferService) CreateOffer(ctx context.Context, caller identity.Identity, in CreateOfferInput) (*domain.Offer, error) {
	placeID := in.PlaceID
	if placeID == uuid.Nil && caller.PlaceID != nil {
		placeID = *caller.PlaceID
	}
	if !caller.CanManagePlace(placeID) {
		return nil, ErrForbidden
	}

	now := s.clock.Now()
	if in.PickupStart.Before(now) {
		return nil, &domain.ValidationError{Reason: "pickup_start must be in the future"}
	}

	price, err := domain.NewMoney(in.PriceAmount, in.PriceCurrency)
	if err != nil {
		return nil, err
	}
	originalPrice, err := domain.NewMoney(in.OriginalPriceAmount, in.OriginalPriceCurrency)
	if err != nil {
		return nil, err
	}

	offer, err := domain.NewOffer(domain.NewOfferParams{
		PlaceID:       placeID,
		Title:         in.Title,
		Description:   in.Description,
		Price:         price,
		OriginalPrice: originalPrice,
		QuantityTotal: in.QuantityTotal,
		PickupStart:   in.PickupStart,
		PickupEnd:     in.PickupEnd,
		ExpiresAt:     in.ExpiresAt,
		Tags:          in.Tags,
		Allergens:     in.Allergens,
		ImageURLs:     in.ImageURLs,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:    EventOfferCreated,
		OfferID: offer.ID(),
		PlaceID: offer.PlaceID(),
		At:      now,
	})
	return offer, nil
}

// UpdateOffer applies a partial partner update through the atomic
// load-apply-save cycle, so concurrent reservations cannot be lost.
func (s *OfferService) UpdateOffer(ctx context.Context, caller identity.Identity, offerID uuid.UUID, update domain.OfferUpdate) (*domain.Offer, error) {
	offer, err := s.apply(ctx, offerID, func(o *domain.Offer, now time.Time) error {
		if !caller.CanManagePlace(o.PlaceID()) {
			return ErrForbidden
		}
		return o.ApplyUpdate(update, now)
	})
	if err != nil {
		return nil, err
	}

	if update.Status != nil && *update.Status == domain.StatusCancelled {
		s.publish(ctx, Event{
			Type:    EventOfferCancelled,
			OfferID: offer.ID(),
			PlaceID: offer.PlaceID(),
			At:      offer.UpdatedAt(),
		})
	}
	return offer, nil
}

// DeleteOffer removes an offer that has nothing committed against it.
func (s *OfferService) DeleteOffer(ctx context.Context, caller identity.Identity, offerID uuid.UUID) (bool, error) {
	offer, err := s.repo.Get(ctx, offerID)
	if err != nil {
		if errors.Is(err, domain.ErrOfferNotFound) {
			return false, nil
		}
		return false, err
	}
	if !caller.CanManagePlace(offer.PlaceID()) {
		return false, ErrForbidden
	}
	if committed := offer.QuantityCommitted(); committed > 0 {
		return false, &domain.ValidationError{
			Reason: "cannot delete an offer with active reservations; cancel the offer instead",
		}
	}
	return s.repo.Delete(ctx, offerID)
}

// GetOffer returns a single offer, refreshing its time-derived status first.
// An observed expiry is persisted best-effort.
func (s *OfferService) GetOffer(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error) {
	offer, err := s.repo.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	before := offer.Status()
	offer.RefreshTimeStatus(now)
	if offer.Status() != before {
		s.persistStatusRefresh(ctx, offer)
	}
	return offer, nil
}

type ListOffersInput struct {
	Limit      int
	Offset     int
	ActiveOnly bool
}

type ListOffersResult struct {
	Offers []*domain.Offer
	Total  int
	Limit  int
	Offset int
}

// ListOffers returns offers for customers, ordered by ascending pickup_end.
// Time-derived statuses are refreshed; by default only active offers are kept.
func (s *OfferService) ListOffers(ctx context.Context, in ListOffersInput) (ListOffersResult, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	now := s.clock.Now()
	offers, err := s.repo.ListActive(ctx, now, limit, offset)
	if err != nil {
		return ListOffersResult{}, err
	}

	result := make([]*domain.Offer, 0, len(offers))
	for _, offer := range offers {
		before := offer.Status()
		offer.RefreshTimeStatus(now)
		if offer.Status() != before {
			s.persistStatusRefresh(ctx, offer)
		}
		if in.ActiveOnly && offer.Status() != domain.StatusActive {
			continue
		}
		result = append(result, offer)
	}

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return ListOffersResult{}, err
	}

	return ListOffersResult{Offers: result, Total: total, Limit: limit, Offset: offset}, nil
}

// GetPartnerOffers lists all offers of a place for its owner's dashboard.
func (s *OfferService) GetPartnerOffers(ctx context.Context, caller identity.Identity, placeID uuid.UUID, limit, offset int) ([]*domain.Offer, error) {
	if placeID == uuid.Nil && caller.PlaceID != nil {
		placeID = *caller.PlaceID
	}
	if !caller.CanManagePlace(placeID) {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByPlace(ctx, placeID, limit, offset)
}

// CountOffers reports the total number of offers in the catalog.
func (s *OfferService) CountOffers(ctx context.Context) (int, error) {
	return s.repo.CountAll(ctx)
}

// persistStatusRefresh saves a time-driven status change without failing the
// read path. A version conflict means someone else already persisted a newer
// state, which is fine.
func (s *OfferService) persistStatusRefresh(ctx context.Context, offer *domain.Offer) {
	if err := s.repo.Update(ctx, offer); err != nil && !errors.Is(err, domain.ErrConflict) {
		s.log.Warn("persist status refresh failed",
			"offer_id", offer.ID().String(),
			"error", err,
		)
	}
}

func (s *OfferService) publish(ctx context.Context, evt Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn("publish event failed", "type", evt.Type, "offer_id", evt.OfferID.String(), "error", err)
	}
}
