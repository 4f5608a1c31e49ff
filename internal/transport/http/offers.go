package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tidex114/est-backend/internal/app"
	"github.com/tidex114/est-backend/internal/domain"
	"github.com/tidex114/est-backend/internal/identity"
)

const idempotencyHeader = "Idempotency-Key"

// OfferCatalog is the minimal interface for the customer-facing read side.
type OfferCatalog interface {
	ListOffers(ctx context.Context, in app.ListOffersInput) (app.ListOffersResult, error)
	GetOffer(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error)
}

// OfferReserver is the minimal interface for the reservation protocol.
type OfferReserver interface {
	Reserve(ctx context.Context, caller identity.Identity, in app.ReserveInput) (app.ReservationResult, error)
	Release(ctx context.Context, caller identity.Identity, offerID uuid.UUID, qty int) (*domain.Offer, error)
}

// HandleListOffers serves the customer listing, active offers first expiring
// soonest.
func HandleListOffers(svc OfferCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 20)
		offset := queryInt(r, "offset", 0)
		activeOnly := true
		if raw := r.URL.Query().Get("active_only"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeValidationError, "active_only must be a boolean")
				return
			}
			activeOnly = parsed
		}

		result, err := svc.ListOffers(r.Context(), app.ListOffersInput{
			Limit:      limit,
			Offset:     offset,
			ActiveOnly: activeOnly,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, listOffersResponse{
			Offers: newOfferViews(result.Offers),
			Total:  result.Total,
			Limit:  result.Limit,
			Offset: result.Offset,
		})
	}
}

// HandleGetOffer serves a single offer for any authenticated caller.
func HandleGetOffer(svc OfferCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, ok := offerIDParam(w, r)
		if !ok {
			return
		}

		offer, err := svc.GetOffer(r.Context(), offerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newOfferView(offer))
	}
}

// HandleReserveOffer commits quantity from an offer for the calling customer.
func HandleReserveOffer(svc OfferReserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerIdentity(w, r)
		if !ok {
			return
		}
		offerID, ok := offerIDParam(w, r)
		if !ok {
			return
		}

		var req reserveRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationError, "quantity must be > 0")
			return
		}

		result, err := svc.Reserve(r.Context(), caller, app.ReserveInput{
			OfferID:        offerID,
			Quantity:       req.Quantity,
			IdempotencyKey: r.Header.Get(idempotencyHeader),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		writeJSON(w, status, reservationResponse{
			ReservationID:     result.ReservationID,
			OfferID:           result.Offer.ID().String(),
			Quantity:          result.Quantity,
			QuantityAvailable: result.Offer.QuantityAvailable(),
			OfferStatus:       string(result.Offer.Status()),
			ReservedAt:        result.ReservedAt,
		})
	}
}

// HandleReleaseOffer reverses a prior reservation, e.g. after a cancelled
// order.
func HandleReleaseOffer(svc OfferReserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerIdentity(w, r)
		if !ok {
			return
		}
		offerID, ok := offerIDParam(w, r)
		if !ok {
			return
		}

		var req releaseRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationError, "quantity must be > 0")
			return
		}

		offer, err := svc.Release(r.Context(), caller, offerID, req.Quantity)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newOfferView(offer))
	}
}

func offerIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "offerID")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid offer id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

type listOffersResponse struct {
	Offers []offerView `json:"offers"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type reserveRequest struct {
	Quantity int `json:"quantity"`
}

type releaseRequest struct {
	Quantity int `json:"quantity"`
}

type reservationResponse struct {
	ReservationID     string    `json:"reservation_id"`
	OfferID           string    `json:"offer_id"`
	Quantity          int       `json:"quantity"`
	QuantityAvailable int       `json:"quantity_available"`
	OfferStatus       string    `json:"offer_status"`
	ReservedAt        time.Time `json:"reserved_at"`
}
