package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidex114/est-backend/internal/domain"
)

type moneyView struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type offerView struct {
	ID                string     `json:"id"`
	PlaceID           string     `json:"place_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Price             moneyView  `json:"price"`
	OriginalPrice     moneyView  `json:"original_price"`
	DiscountPercent   int        `json:"discount_percent"`
	QuantityTotal     int        `json:"quantity_total"`
	QuantityAvailable int        `json:"quantity_available"`
	PickupStart       time.Time  `json:"pickup_start"`
	PickupEnd         time.Time  `json:"pickup_end"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Status            string     `json:"status"`
	Tags              []string   `json:"tags"`
	Allergens         []string   `json:"allergens"`
	ImageURLs         []string   `json:"image_urls"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func newMoneyView(m domain.Money) moneyView {
	return moneyView{
		Amount:   m.Amount().StringFixed(2),
		Currency: m.Currency(),
	}
}

func newOfferView(o *domain.Offer) offerView {
	s := o.Snapshot()
	return offerView{
		ID:                s.ID.String(),
		PlaceID:           s.PlaceID.String(),
		Title:             s.Title,
		Description:       s.Description,
		Price:             newMoneyView(s.Price),
		OriginalPrice:     newMoneyView(s.OriginalPrice),
		DiscountPercent:   o.DiscountPercent(),
		QuantityTotal:     s.QuantityTotal,
		QuantityAvailable: s.QuantityAvailable,
		PickupStart:       s.PickupStart,
		PickupEnd:         s.PickupEnd,
		ExpiresAt:         s.ExpiresAt,
		Status:            string(s.Status),
		Tags:              s.Tags,
		Allergens:         s.Allergens,
		ImageURLs:         s.ImageURLs,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func newOfferViews(offers []*domain.Offer) []offerView {
	out := make([]offerView, 0, len(offers))
	for _, o := range offers {
		out = append(out, newOfferView(o))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
