package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidex114/est-backend/internal/app"
	"github.com/tidex114/est-backend/internal/clock"
	"github.com/tidex114/est-backend/internal/domain"
	"github.com/tidex114/est-backend/internal/identity"
)

var (
	testNow   = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	testStart = time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
)

// fakeRepo is an in-memory OfferRepository with the same compare-and-swap
// semantics as the Postgres implementation. forcedConflicts injects version
// conflicts before updates start succeeding.
type fakeRepo struct {
	mu              sync.Mutex
	offers          map[uuid.UUID]domain.OfferSnapshot
	forcedConflicts int
	updateCalls     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{offers: map[uuid.UUID]domain.OfferSnapshot{}}
}

func (r *fakeRepo) Create(_ context.Context, offer *domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := offer.Snapshot()
	if _, ok := r.offers[s.ID]; ok {
		return domain.ErrConflict
	}
	s.Version = 1
	r.offers[s.ID] = s
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	return domain.RehydrateOffer(s)
}

func (r *fakeRepo) Update(_ context.Context, offer *domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.forcedConflicts > 0 {
		r.forcedConflicts--
		return domain.ErrConflict
	}
	s := offer.Snapshot()
	stored, ok := r.offers[s.ID]
	if !ok {
		return domain.ErrOfferNotFound
	}
	if stored.Version != s.Version {
		return domain.ErrConflict
	}
	s.Version = stored.Version + 1
	r.offers[s.ID] = s
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offers[id]; !ok {
		return false, nil
	}
	delete(r.offers, id)
	return true, nil
}

func (r *fakeRepo) ListActive(_ context.Context, now time.Time, limit, offset int) ([]*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Offer
	for _, s := range r.offers {
		if s.Status == domain.StatusDraft || s.Status == domain.StatusCancelled {
			continue
		}
		if !s.PickupEnd.After(now) {
			continue
		}
		o, err := domain.RehydrateOffer(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeRepo) ListByPlace(_ context.Context, placeID uuid.UUID, limit, offset int) ([]*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Offer
	for _, s := range r.offers {
		if s.PlaceID != placeID {
			continue
		}
		o, err := domain.RehydrateOffer(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeRepo) CountAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.offers), nil
}

func (r *fakeRepo) status(t *testing.T, id uuid.UUID) domain.OfferStatus {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.offers[id]
	if !ok {
		t.Fatalf("offer %s not in repo", id)
	}
	return s.Status
}

type fakeIdemStore struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{locks: map[string]bool{}, values: map[string]string{}}
}

func (s *fakeIdemStore) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[scope+":"+key] {
		return false, nil
	}
	s.locks[scope+":"+key] = true
	return true, nil
}

func (s *fakeIdemStore) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope+":"+key] = value
	return nil
}

func (s *fakeIdemStore) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[scope+":"+key]
	return v, ok, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []app.Event
}

func (p *fakePublisher) Publish(_ context.Context, evt app.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userCaller() identity.Identity {
	return identity.Identity{UserID: uuid.New(), Role: identity.RoleUser}
}

func partnerCaller(placeID uuid.UUID) identity.Identity {
	return identity.Identity{UserID: uuid.New(), Role: identity.RolePartner, PlaceID: &placeID}
}

func adminCaller() identity.Identity {
	return identity.Identity{UserID: uuid.New(), Role: identity.RoleAdmin}
}

func createInput(placeID uuid.UUID) app.CreateOfferInput {
	return app.CreateOfferInput{
		PlaceID:               placeID,
		Title:                 "Surprise bag",
		PriceAmount:           decimal.RequireFromString("4.50"),
		PriceCurrency:         "EUR",
		OriginalPriceAmount:   decimal.RequireFromString("13.50"),
		OriginalPriceCurrency: "EUR",
		QuantityTotal:         5,
		PickupStart:           testStart,
		PickupEnd:             testEnd,
	}
}

// seedActiveOffer creates and activates an offer owned by placeID.
func seedActiveOffer(t *testing.T, svc *app.OfferService, placeID uuid.UUID) *domain.Offer {
	t.Helper()
	ctx := context.Background()
	caller := partnerCaller(placeID)

	offer, err := svc.CreateOffer(ctx, caller, createInput(placeID))
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	active := domain.StatusActive
	offer, err = svc.UpdateOffer(ctx, caller, offer.ID(), domain.OfferUpdate{Status: &active})
	if err != nil {
		t.Fatalf("activate offer: %v", err)
	}
	return offer
}

func TestCreateOffer(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger(), app.WithEventPublisher(pub))
	ctx := context.Background()
	placeID := uuid.New()

	t.Run("partner creates draft for own place", func(t *testing.T) {
		offer, err := svc.CreateOffer(ctx, partnerCaller(placeID), createInput(placeID))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if offer.Status() != domain.StatusDraft {
			t.Fatalf("expected draft, got %s", offer.Status())
		}
		if offer.QuantityAvailable() != 5 {
			t.Fatalf("expected 5 available, got %d", offer.QuantityAvailable())
		}
		if got := pub.types(); len(got) != 1 || got[0] != app.EventOfferCreated {
			t.Fatalf("expected created event, got %v", got)
		}
	})

	t.Run("place defaults to caller's place", func(t *testing.T) {
		in := createInput(uuid.Nil)
		offer, err := svc.CreateOffer(ctx, partnerCaller(placeID), in)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if offer.PlaceID() != placeID {
			t.Fatalf("expected caller's place, got %s", offer.PlaceID())
		}
	})

	t.Run("partner cannot create for another place", func(t *testing.T) {
		_, err := svc.CreateOffer(ctx, partnerCaller(uuid.New()), createInput(placeID))
		if !errors.Is(err, app.ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("admin can create for any place", func(t *testing.T) {
		if _, err := svc.CreateOffer(ctx, adminCaller(), createInput(placeID)); err != nil {
			t.Fatalf("create as admin: %v", err)
		}
	})

	t.Run("pickup start must be in the future", func(t *testing.T) {
		in := createInput(placeID)
		in.PickupStart = testNow.Add(-time.Hour)
		_, err := svc.CreateOffer(ctx, partnerCaller(placeID), in)
		if !domain.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestUpdateOffer(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger(), app.WithEventPublisher(pub))
	ctx := context.Background()
	placeID := uuid.New()
	offer := seedActiveOffer(t, svc, placeID)

	t.Run("owner updates title", func(t *testing.T) {
		title := "Bigger surprise bag"
		updated, err := svc.UpdateOffer(ctx, partnerCaller(placeID), offer.ID(), domain.OfferUpdate{Title: &title})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Title() != title {
			t.Fatalf("expected title updated, got %q", updated.Title())
		}
	})

	t.Run("foreign partner is rejected", func(t *testing.T) {
		title := "Hijacked"
		_, err := svc.UpdateOffer(ctx, partnerCaller(uuid.New()), offer.ID(), domain.OfferUpdate{Title: &title})
		if !errors.Is(err, app.ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("unknown offer", func(t *testing.T) {
		title := "Nope"
		_, err := svc.UpdateOffer(ctx, partnerCaller(placeID), uuid.New(), domain.OfferUpdate{Title: &title})
		if !errors.Is(err, domain.ErrOfferNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("cancelling publishes an event", func(t *testing.T) {
		cancelled := domain.StatusCancelled
		if _, err := svc.UpdateOffer(ctx, partnerCaller(placeID), offer.ID(), domain.OfferUpdate{Status: &cancelled}); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		types := pub.types()
		if types[len(types)-1] != app.EventOfferCancelled {
			t.Fatalf("expected cancelled event last, got %v", types)
		}
	})
}

func TestDeleteOffer(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger())
	ctx := context.Background()
	placeID := uuid.New()

	t.Run("missing offer reports not deleted", func(t *testing.T) {
		deleted, err := svc.DeleteOffer(ctx, adminCaller(), uuid.New())
		if err != nil || deleted {
			t.Fatalf("expected (false, nil), got (%v, %v)", deleted, err)
		}
	})

	t.Run("foreign partner is rejected", func(t *testing.T) {
		offer := seedActiveOffer(t, svc, placeID)
		_, err := svc.DeleteOffer(ctx, partnerCaller(uuid.New()), offer.ID())
		if !errors.Is(err, app.ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("committed quantity blocks deletion", func(t *testing.T) {
		offer := seedActiveOffer(t, svc, placeID)
		if _, err := svc.Reserve(ctx, userCaller(), app.ReserveInput{OfferID: offer.ID(), Quantity: 1}); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		_, err := svc.DeleteOffer(ctx, partnerCaller(placeID), offer.ID())
		if !domain.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("owner deletes untouched offer", func(t *testing.T) {
		offer := seedActiveOffer(t, svc, placeID)
		deleted, err := svc.DeleteOffer(ctx, partnerCaller(placeID), offer.ID())
		if err != nil || !deleted {
			t.Fatalf("expected (true, nil), got (%v, %v)", deleted, err)
		}
	})
}

func TestGetOffer_PersistsObservedExpiry(t *testing.T) {
	repo := newFakeRepo()
	svcBefore := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger())
	placeID := uuid.New()
	offer := seedActiveOffer(t, svcBefore, placeID)

	// Same repo, clock moved past the pickup window.
	svcAfter := app.NewOfferService(repo, clock.NewFixed(testEnd.Add(time.Minute)), testLogger())

	got, err := svcAfter.GetOffer(context.Background(), offer.ID())
	if err != nil {
		t.Fatalf("get offer: %v", err)
	}
	if got.Status() != domain.StatusExpired {
		t.Fatalf("expected expired, got %s", got.Status())
	}
	if status := repo.status(t, offer.ID()); status != domain.StatusExpired {
		t.Fatalf("expected expiry persisted, repo has %s", status)
	}
}

func TestReserve(t *testing.T) {
	placeID := uuid.New()

	t.Run("commits quantity", func(t *testing.T) {
		repo := newFakeRepo()
		pub := &fakePublisher{}
		svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger(), app.WithEventPublisher(pub))
		offer := seedActiveOffer(t, svc, placeID)

		res, err := svc.Reserve(context.Background(), userCaller(), app.ReserveInput{OfferID: offer.ID(), Quantity: 2})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if res.ReservationID == "" {
			t.Fatalf("expected a reservation id")
		}
		if res.Replayed {
			t.Fatalf("fresh reservation should not be marked replayed")
		}
		if res.Offer.QuantityAvailable() != 3 {
			t.Fatalf("expected 3 available, got %d", res.Offer.QuantityAvailable())
		}
		types := pub.types()
		if types[len(types)-1] != app.EventOfferReserved {
			t.Fatalf("expected reserved event, got %v", types)
		}
	})

	t.Run("zero quantity", func(t *testing.T) {
		repo := newFakeRepo()
		svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger())
		offer := seedActiveOffer(t, svc, placeID)

		_, err := svc.Reserve(context.Background(), userCaller(), app.ReserveInput{OfferID: offer.ID(), Quantity: 0})
		if !domain.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("retries through version conflicts", func(t *testing.T) {
		repo := newFakeRepo()
		svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger())
		offer := seedActiveOffer(t, svc, placeID)

		repo.forcedConflicts = 2
		res, err := svc.Reserve(context.Background(), userCaller(), app.ReserveInput{OfferID: offer.ID(), Quantity: 1})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if res.Offer.QuantityAvailable() != 4 {
			t.Fatalf("expected 4 available, got %d", res.Offer.QuantityAvailable())
		}
	})

	t.Run("gives up after bounded retries", func(t *testing.T) {
		repo := newFakeRepo()
		svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger())
		offer := seedActiveOffer(t, svc, placeID)

		repo.forcedConflicts = 10
		_, err := svc.Reserve(context.Background(), userCaller(), app.ReserveInput{OfferID: offer.ID(), Quantity: 1})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("concurrent overselling is impossible", func(t *testing.T) {
		repo := newFakeRepo()
		svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger())
		offer := seedActiveOffer(t, svc, placeID)

		const workers = 2
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			go func() {
				_, err := svc.Reserve(context.Background(), userCaller(), app.ReserveInput{OfferID: offer.ID(), Quantity: 3})
				errs <- err
			}()
		}

		var ok, insufficient int
		for i := 0; i < workers; i++ {
			err := <-errs
			switch {
			case err == nil:
				ok++
			case domain.IsInsufficientQuantity(err):
				insufficient++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if ok != 1 || insufficient != 1 {
			t.Fatalf("expected exactly one success and one shortfall, got ok=%d insufficient=%d", ok, insufficient)
		}

		final, err := repo.Get(context.Background(), offer.ID())
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if final.QuantityAvailable() != 2 {
			t.Fatalf("expected 2 available, got %d", final.QuantityAvailable())
		}
	})

	t.Run("idempotency key replays the original reservation", func(t *testing.T) {
		repo := newFakeRepo()
		idem := newFakeIdemStore()
		svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger(), app.WithIdempotencyStore(idem))
		offer := seedActiveOffer(t, svc, placeID)
		caller := userCaller()
		in := app.ReserveInput{OfferID: offer.ID(), Quantity: 2, IdempotencyKey: "order-1"}

		first, err := svc.Reserve(context.Background(), caller, in)
		if err != nil {
			t.Fatalf("first reserve: %v", err)
		}

		second, err := svc.Reserve(context.Background(), caller, in)
		if err != nil {
			t.Fatalf("second reserve: %v", err)
		}
		if !second.Replayed {
			t.Fatalf("expected replayed result")
		}
		if second.ReservationID != first.ReservationID {
			t.Fatalf("expected same reservation id, got %s vs %s", second.ReservationID, first.ReservationID)
		}
		if second.Offer.QuantityAvailable() != 3 {
			t.Fatalf("replay must not commit again, got %d available", second.Offer.QuantityAvailable())
		}

		// A retry reusing the key with a different quantity still reports the
		// originally committed amount.
		retried := in
		retried.Quantity = 4
		third, err := svc.Reserve(context.Background(), caller, retried)
		if err != nil {
			t.Fatalf("third reserve: %v", err)
		}
		if !third.Replayed || third.Quantity != 2 {
			t.Fatalf("expected replay of the original quantity 2, got replayed=%v quantity=%d", third.Replayed, third.Quantity)
		}
		if third.Offer.QuantityAvailable() != 3 {
			t.Fatalf("replay must not commit again, got %d available", third.Offer.QuantityAvailable())
		}
	})

	t.Run("in-flight duplicate key conflicts", func(t *testing.T) {
		repo := newFakeRepo()
		idem := newFakeIdemStore()
		svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger(), app.WithIdempotencyStore(idem))
		offer := seedActiveOffer(t, svc, placeID)
		caller := userCaller()

		// Simulate a request holding the lock without a recorded result.
		if ok, err := idem.TryLock(context.Background(), caller.UserID.String(), "order-2"); err != nil || !ok {
			t.Fatalf("prepare lock: %v %v", ok, err)
		}

		_, err := svc.Reserve(context.Background(), caller, app.ReserveInput{OfferID: offer.ID(), Quantity: 1, IdempotencyKey: "order-2"})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestRelease(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger(), app.WithEventPublisher(pub))
	ctx := context.Background()
	placeID := uuid.New()
	offer := seedActiveOffer(t, svc, placeID)
	caller := userCaller()

	if _, err := svc.Reserve(ctx, caller, app.ReserveInput{OfferID: offer.ID(), Quantity: 5}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if status := repo.status(t, offer.ID()); status != domain.StatusSoldOut {
		t.Fatalf("expected sold_out, got %s", status)
	}

	released, err := svc.Release(ctx, caller, offer.ID(), 2)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.QuantityAvailable() != 2 {
		t.Fatalf("expected 2 available, got %d", released.QuantityAvailable())
	}
	if released.Status() != domain.StatusActive {
		t.Fatalf("expected active after release, got %s", released.Status())
	}
	types := pub.types()
	if types[len(types)-1] != app.EventOfferReleased {
		t.Fatalf("expected released event, got %v", types)
	}

	if _, err := svc.Release(ctx, caller, offer.ID(), 0); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListOffers(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger())
	ctx := context.Background()
	placeID := uuid.New()

	active := seedActiveOffer(t, svc, placeID)
	soldOut := seedActiveOffer(t, svc, placeID)
	if _, err := svc.Reserve(ctx, userCaller(), app.ReserveInput{OfferID: soldOut.ID(), Quantity: 5}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	// Draft offer stays invisible.
	if _, err := svc.CreateOffer(ctx, partnerCaller(placeID), createInput(placeID)); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	t.Run("default includes sold out", func(t *testing.T) {
		res, err := svc.ListOffers(ctx, app.ListOffersInput{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Offers) != 2 {
			t.Fatalf("expected 2 offers, got %d", len(res.Offers))
		}
		if res.Total != 3 {
			t.Fatalf("expected total 3, got %d", res.Total)
		}
		if res.Limit != 20 {
			t.Fatalf("expected default limit 20, got %d", res.Limit)
		}
	})

	t.Run("active only filter", func(t *testing.T) {
		res, err := svc.ListOffers(ctx, app.ListOffersInput{ActiveOnly: true})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Offers) != 1 || res.Offers[0].ID() != active.ID() {
			t.Fatalf("expected only the active offer, got %d", len(res.Offers))
		}
	})

	t.Run("limit is clamped", func(t *testing.T) {
		res, err := svc.ListOffers(ctx, app.ListOffersInput{Limit: 1000})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Limit != 100 {
			t.Fatalf("expected limit clamped to 100, got %d", res.Limit)
		}
	})
}

func TestGetPartnerOffers(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewOfferService(repo, clock.NewFixed(testNow), testLogger())
	ctx := context.Background()
	placeID := uuid.New()
	seedActiveOffer(t, svc, placeID)
	seedActiveOffer(t, svc, uuid.New())

	offers, err := svc.GetPartnerOffers(ctx, partnerCaller(placeID), placeID, 0, 0)
	if err != nil {
		t.Fatalf("partner offers: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offers))
	}

	if _, err := svc.GetPartnerOffers(ctx, partnerCaller(uuid.New()), placeID, 0, 0); !errors.Is(err, app.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if _, err := svc.GetPartnerOffers(ctx, userCaller(), placeID, 0, 0); !errors.Is(err, app.ErrForbidden) {
		t.Fatalf("expected forbidden for plain user, got %v", err)
	}
}
