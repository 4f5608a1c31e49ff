package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tidex114/est-backend/internal/domain"
	"github.com/tidex114/est-backend/internal/identity"
)

// maxConflictRetries bounds the load-apply-save cycle. After this many version
// conflicts the caller gets domain.ErrConflict and may retry the request.
const maxConflictRetries = 3

var reserveConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "offer_reserve_conflicts_total",
	Help: "Number of optimistic-concurrency conflicts hit while applying offer mutations",
})

// apply runs one offer mutation as an atomic load-apply-save cycle. The save
// is a compare-and-swap on the offer's version; on conflict the whole cycle is
// retried against fresh state. Domain errors surface unchanged.
func (s *OfferService) apply(ctx context.Context, offerID uuid.UUID, op func(o *domain.Offer, now time.Time) error) (*domain.Offer, error) {
	now := s.clock.Now()

	for attempt := 1; ; attempt++ {
		offer, err := s.repo.Get(ctx, offerID)
		if err != nil {
			return nil, err
		}
		if err := op(offer, now); err != nil {
			return nil, err
		}
		err = s.repo.Update(ctx, offer)
		if err == nil {
			return offer, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}

		reserveConflicts.Inc()
		if attempt >= maxConflictRetries {
			return nil, domain.ErrConflict
		}
		s.log.Debug("version conflict, retrying",
			"offer_id", offerID.String(),
			"attempt", attempt,
		)
	}
}

type ReserveInput struct {
	OfferID  uuid.UUID
	Quantity int
	// IdempotencyKey, when set, makes retried requests return the original
	// reservation instead of committing quantity twice.
	IdempotencyKey string
}

// ReservationResult describes one committed reservation.
type ReservationResult struct {
	ReservationID string
	Offer         *domain.Offer
	Quantity      int
	ReservedAt    time.Time
	Replayed      bool
}

// storedReservation is the idempotency record. Quantity is the originally
// committed amount, so a replayed request reports what was actually reserved
// even when the retry carries a different quantity.
type storedReservation struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// Reserve commits quantity against an offer on behalf of the calling customer.
func (s *OfferService) Reserve(ctx context.Context, caller identity.Identity, in ReserveInput) (ReservationResult, error) {
	if in.Quantity <= 0 {
		return ReservationResult{}, &domain.ValidationError{Reason: "reservation quantity must be > 0"}
	}

	scope := caller.UserID.String()
	if s.idem != nil && in.IdempotencyKey != "" {
		if recorded, ok, err := s.idem.Recall(ctx, scope, in.IdempotencyKey); err == nil && ok {
			var stored storedReservation
			if err := json.Unmarshal([]byte(recorded), &stored); err != nil {
				s.log.Warn("unreadable reservation record", "key", in.IdempotencyKey, "error", err)
				return ReservationResult{}, domain.ErrConflict
			}
			offer, err := s.repo.Get(ctx, in.OfferID)
			if err != nil {
				return ReservationResult{}, err
			}
			return ReservationResult{
				ReservationID: stored.ID,
				Offer:         offer,
				Quantity:      stored.Quantity,
				ReservedAt:    offer.UpdatedAt(),
				Replayed:      true,
			}, nil
		}
		locked, err := s.idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return ReservationResult{}, err
		}
		if !locked {
			// Another request with the same key is in flight.
			return ReservationResult{}, domain.ErrConflict
		}
	}

	offer, err := s.apply(ctx, in.OfferID, func(o *domain.Offer, now time.Time) error {
		return o.Reserve(in.Quantity, now)
	})
	if err != nil {
		return ReservationResult{}, err
	}

	reservationID := uuid.NewString()
	if s.idem != nil && in.IdempotencyKey != "" {
		record, err := json.Marshal(storedReservation{ID: reservationID, Quantity: in.Quantity})
		if err == nil {
			err = s.idem.Remember(ctx, scope, in.IdempotencyKey, string(record))
		}
		if err != nil {
			s.log.Warn("remember reservation failed", "reservation_id", reservationID, "error", err)
		}
	}

	s.publish(ctx, Event{
		Type:     EventOfferReserved,
		OfferID:  offer.ID(),
		PlaceID:  offer.PlaceID(),
		Quantity: in.Quantity,
		At:       offer.UpdatedAt(),
	})

	s.log.Info("reservation committed",
		"offer_id", offer.ID().String(),
		"user_id", caller.UserID.String(),
		"quantity", in.Quantity,
		"remaining", offer.QuantityAvailable(),
	)

	return ReservationResult{
		ReservationID: reservationID,
		Offer:         offer,
		Quantity:      in.Quantity,
		ReservedAt:    offer.UpdatedAt(),
	}, nil
}

// Release returns previously reserved quantity to an offer, e.g. after a
// cancelled order or failed payment.
func (s *OfferService) Release(ctx context.Context, caller identity.Identity, offerID uuid.UUID, qty int) (*domain.Offer, error) {
	if qty <= 0 {
		return nil, &domain.ValidationError{Reason: "release quantity must be > 0"}
	}

	offer, err := s.apply(ctx, offerID, func(o *domain.Offer, now time.Time) error {
		return o.Release(qty, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:     EventOfferReleased,
		OfferID:  offer.ID(),
		PlaceID:  offer.PlaceID(),
		Quantity: qty,
		At:       offer.UpdatedAt(),
	})

	s.log.Info("reservation released",
		"offer_id", offer.ID().String(),
		"user_id", caller.UserID.String(),
		"quantity", qty,
		"available", offer.QuantityAvailable(),
	)
	return offer, nil
}
