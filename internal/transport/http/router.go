package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidex114/est-backend/internal/identity"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Catalog     OfferCatalog
	Reserver    OfferReserver
	Partner     PartnerOfferService
	Verifier    *identity.Verifier
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter builds the service's full HTTP handler: health and metrics are
// open, everything under /offers requires a verified identity.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(deps.Logger))
	r.Use(Metrics)

	r.Get("/health", HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/offers", func(r chi.Router) {
		r.Use(Authenticate(deps.Verifier))

		r.With(RequireRole(identity.RoleUser, identity.RoleAdmin)).
			Get("/", HandleListOffers(deps.Catalog))
		r.With(RequireRole(identity.RolePartner, identity.RoleAdmin)).
			Get("/mine", HandleGetPartnerOffers(deps.Partner))
		r.Get("/{offerID}", HandleGetOffer(deps.Catalog))

		r.With(RequireRole(identity.RolePartner, identity.RoleAdmin)).
			Post("/", HandleCreateOffer(deps.Partner))
		r.With(RequireRole(identity.RolePartner, identity.RoleAdmin)).
			Patch("/{offerID}", HandleUpdateOffer(deps.Partner))
		r.With(RequireRole(identity.RolePartner, identity.RoleAdmin)).
			Delete("/{offerID}", HandleDeleteOffer(deps.Partner))

		r.With(RequireRole(identity.RoleUser, identity.RoleAdmin)).
			Post("/{offerID}/reserve", HandleReserveOffer(deps.Reserver))
		r.With(RequireRole(identity.RoleUser, identity.RoleAdmin)).
			Post("/{offerID}/release", HandleReleaseOffer(deps.Reserver))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})

	return CORS(deps.CORSOrigins, r)
}
