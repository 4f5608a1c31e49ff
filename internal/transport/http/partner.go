package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidex114/est-backend/internal/app"
	"github.com/tidex114/est-backend/internal/domain"
	"github.com/tidex114/est-backend/internal/identity"
)

// PartnerOfferService is the minimal interface for partner offer management.
type PartnerOfferService interface {
	CreateOffer(ctx context.Context, caller identity.Identity, in app.CreateOfferInput) (*domain.Offer, error)
	UpdateOffer(ctx context.Context, caller identity.Identity, offerID uuid.UUID, update domain.OfferUpdate) (*domain.Offer, error)
	DeleteOffer(ctx context.Context, caller identity.Identity, offerID uuid.UUID) (bool, error)
	GetPartnerOffers(ctx context.Context, caller identity.Identity, placeID uuid.UUID, limit, offset int) ([]*domain.Offer, error)
}

// HandleCreateOffer creates a draft offer for the caller's place.
func HandleCreateOffer(svc PartnerOfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerIdentity(w, r)
		if !ok {
			return
		}

		var req createOfferRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		var placeID uuid.UUID
		if req.PlaceID != "" {
			parsed, err := uuid.Parse(req.PlaceID)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidID, "invalid place id")
				return
			}
			placeID = parsed
		}

		offer, err := svc.CreateOffer(r.Context(), caller, app.CreateOfferInput{
			PlaceID:               placeID,
			Title:                 req.Title,
			Description:           req.Description,
			PriceAmount:           req.PriceAmount,
			PriceCurrency:         req.PriceCurrency,
			OriginalPriceAmount:   req.OriginalPriceAmount,
			OriginalPriceCurrency: req.OriginalPriceCurrency,
			QuantityTotal:         req.QuantityTotal,
			PickupStart:           req.PickupStart,
			PickupEnd:             req.PickupEnd,
			ExpiresAt:             req.ExpiresAt,
			Tags:                  req.Tags,
			Allergens:             req.Allergens,
			ImageURLs:             req.ImageURLs,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newOfferView(offer))
	}
}

// HandleUpdateOffer applies a partial update to an offer the caller owns.
func HandleUpdateOffer(svc PartnerOfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerIdentity(w, r)
		if !ok {
			return
		}
		offerID, ok := offerIDParam(w, r)
		if !ok {
			return
		}

		var req updateOfferRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		update := domain.OfferUpdate{
			Title:               req.Title,
			Description:         req.Description,
			PriceAmount:         req.PriceAmount,
			OriginalPriceAmount: req.OriginalPriceAmount,
			QuantityTotal:       req.QuantityTotal,
			PickupStart:         req.PickupStart,
			PickupEnd:           req.PickupEnd,
			ExpiresAt:           req.ExpiresAt,
			Tags:                req.Tags,
			Allergens:           req.Allergens,
			ImageURLs:           req.ImageURLs,
		}
		if req.Status != nil {
			status := domain.OfferStatus(*req.Status)
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, codeValidationError, "unknown status")
				return
			}
			update.Status = &status
		}

		offer, err := svc.UpdateOffer(r.Context(), caller, offerID, update)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newOfferView(offer))
	}
}

// HandleDeleteOffer removes an offer with no committed reservations.
func HandleDeleteOffer(svc PartnerOfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerIdentity(w, r)
		if !ok {
			return
		}
		offerID, ok := offerIDParam(w, r)
		if !ok {
			return
		}

		deleted, err := svc.DeleteOffer(r.Context(), caller, offerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, codeNotFound, "offer not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetPartnerOffers lists all offers of the caller's place, newest first.
func HandleGetPartnerOffers(svc PartnerOfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerIdentity(w, r)
		if !ok {
			return
		}

		var placeID uuid.UUID
		if raw := r.URL.Query().Get("place_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidID, "invalid place id")
				return
			}
			placeID = parsed
		}

		offers, err := svc.GetPartnerOffers(r.Context(), caller, placeID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, partnerOffersResponse{Offers: newOfferViews(offers)})
	}
}

type createOfferRequest struct {
	PlaceID               string          `json:"place_id,omitempty"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	PriceAmount           decimal.Decimal `json:"price_amount"`
	PriceCurrency         string          `json:"price_currency"`
	OriginalPriceAmount   decimal.Decimal `json:"original_price_amount"`
	OriginalPriceCurrency string          `json:"original_price_currency"`
	QuantityTotal         int             `json:"quantity_total"`
	PickupStart           time.Time       `json:"pickup_start"`
	PickupEnd             time.Time       `json:"pickup_end"`
	ExpiresAt             *time.Time      `json:"expires_at,omitempty"`
	Tags                  []string        `json:"tags,omitempty"`
	Allergens             []string        `json:"allergens,omitempty"`
	ImageURLs             []string        `json:"image_urls,omitempty"`
}

type updateOfferRequest struct {
	Title               *string          `json:"title,omitempty"`
	Description         *string          `json:"description,omitempty"`
	PriceAmount         *decimal.Decimal `json:"price_amount,omitempty"`
	OriginalPriceAmount *decimal.Decimal `json:"original_price_amount,omitempty"`
	QuantityTotal       *int             `json:"quantity_total,omitempty"`
	PickupStart         *time.Time       `json:"pickup_start,omitempty"`
	PickupEnd           *time.Time       `json:"pickup_end,omitempty"`
	ExpiresAt           *time.Time       `json:"expires_at,omitempty"`
	Tags                []string         `json:"tags,omitempty"`
	Allergens           []string         `json:"allergens,omitempty"`
	ImageURLs           []string         `json:"image_urls,omitempty"`
	Status              *string          `json:"status,omitempty"`
}

type partnerOffersResponse struct {
	Offers []offerView `json:"offers"`
}
