package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidex114/est-backend/internal/domain"
	"github.com/tidex114/est-backend/internal/storage/postgres"
	"github.com/tidex114/est-backend/internal/testutil"
)

var (
	baseNow   = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	baseStart = time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)
	baseEnd   = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
)

func newOffer(t *testing.T, placeID uuid.UUID, pickupEnd time.Time) *domain.Offer {
	t.Helper()
	o, err := domain.NewOffer(domain.NewOfferParams{
		PlaceID:       placeID,
		Title:         "Surprise bag",
		Description:   "Whatever is left at closing time",
		Price:         domain.MustMoney(decimal.RequireFromString("4.50"), "EUR"),
		OriginalPrice: domain.MustMoney(decimal.RequireFromString("13.50"), "EUR"),
		QuantityTotal: 5,
		PickupStart:   pickupEnd.Add(-3 * time.Hour),
		PickupEnd:     pickupEnd,
		Tags:          []string{"vegan", "bakery"},
		Allergens:     []string{"gluten"},
		ImageURLs:     []string{"https://cdn.example/1.jpg"},
	}, baseNow)
	if err != nil {
		t.Fatalf("new offer: %v", err)
	}
	if err := o.Activate(baseNow); err != nil {
		t.Fatalf("activate: %v", err)
	}
	return o
}

func TestOfferRepository_CreateGet(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewOfferRepository(pool)
	offer := newOffer(t, uuid.New(), baseEnd)

	if err := repo.Create(ctx, offer); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, offer.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want := offer.Snapshot()
	have := got.Snapshot()
	if have.ID != want.ID || have.PlaceID != want.PlaceID {
		t.Fatalf("identity mismatch: %+v vs %+v", have, want)
	}
	if !have.Price.Equal(want.Price) || !have.OriginalPrice.Equal(want.OriginalPrice) {
		t.Fatalf("money mismatch: %s/%s vs %s/%s", have.Price, have.OriginalPrice, want.Price, want.OriginalPrice)
	}
	if have.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", have.Status)
	}
	if have.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", have.Version)
	}
	if len(have.Tags) != 2 || have.Tags[0] != "vegan" {
		t.Fatalf("tags mismatch: %v", have.Tags)
	}
	if !have.PickupEnd.Equal(want.PickupEnd) {
		t.Fatalf("pickup_end mismatch: %v vs %v", have.PickupEnd, want.PickupEnd)
	}

	t.Run("duplicate id conflicts", func(t *testing.T) {
		if err := repo.Create(ctx, offer); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := repo.Get(ctx, uuid.New()); !errors.Is(err, domain.ErrOfferNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestOfferRepository_Update_CompareAndSwap(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewOfferRepository(pool)
	offer := newOffer(t, uuid.New(), baseEnd)
	if err := repo.Create(ctx, offer); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Two copies loaded at the same version.
	first, err := repo.Get(ctx, offer.ID())
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	second, err := repo.Get(ctx, offer.ID())
	if err != nil {
		t.Fatalf("get second: %v", err)
	}

	if err := first.Reserve(2, baseNow); err != nil {
		t.Fatalf("reserve first: %v", err)
	}
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("update first: %v", err)
	}

	if err := second.Reserve(1, baseNow); err != nil {
		t.Fatalf("reserve second: %v", err)
	}
	if err := repo.Update(ctx, second); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for stale version, got %v", err)
	}

	fresh, err := repo.Get(ctx, offer.ID())
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if fresh.QuantityAvailable() != 3 {
		t.Fatalf("expected 3 available, got %d", fresh.QuantityAvailable())
	}
	if fresh.Version() != 2 {
		t.Fatalf("expected version 2, got %d", fresh.Version())
	}

	t.Run("missing row reports not found", func(t *testing.T) {
		ghost := newOffer(t, uuid.New(), baseEnd)
		if err := repo.Update(ctx, ghost); !errors.Is(err, domain.ErrOfferNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestOfferRepository_Delete(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewOfferRepository(pool)
	offer := newOffer(t, uuid.New(), baseEnd)
	if err := repo.Create(ctx, offer); err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := repo.Delete(ctx, offer.ID())
	if err != nil || !deleted {
		t.Fatalf("expected (true, nil), got (%v, %v)", deleted, err)
	}

	deleted, err = repo.Delete(ctx, offer.ID())
	if err != nil || deleted {
		t.Fatalf("expected (false, nil) on second delete, got (%v, %v)", deleted, err)
	}
}

func TestOfferRepository_ListActive(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewOfferRepository(pool)
	placeID := uuid.New()

	soon := newOffer(t, placeID, baseEnd)
	later := newOffer(t, placeID, baseEnd.Add(2*time.Hour))
	closed := newOffer(t, placeID, baseNow.Add(-time.Hour))

	cancelled := newOffer(t, placeID, baseEnd)
	cancelled.Cancel(baseNow)

	draft, err := domain.NewOffer(domain.NewOfferParams{
		PlaceID:       placeID,
		Title:         "Hidden draft",
		Price:         domain.MustMoney(decimal.RequireFromString("2.00"), "EUR"),
		OriginalPrice: domain.MustMoney(decimal.RequireFromString("6.00"), "EUR"),
		QuantityTotal: 3,
		PickupStart:   baseStart,
		PickupEnd:     baseEnd,
	}, baseNow)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}

	for _, o := range []*domain.Offer{later, soon, closed, cancelled, draft} {
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("create %s: %v", o.Title(), err)
		}
	}

	offers, err := repo.ListActive(ctx, baseNow, 10, 0)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
	if offers[0].ID() != soon.ID() || offers[1].ID() != later.ID() {
		t.Fatalf("expected soonest pickup_end first")
	}

	t.Run("pagination", func(t *testing.T) {
		page, err := repo.ListActive(ctx, baseNow, 1, 1)
		if err != nil {
			t.Fatalf("list page: %v", err)
		}
		if len(page) != 1 || page[0].ID() != later.ID() {
			t.Fatalf("expected second page to hold the later offer")
		}
	})
}

func TestOfferRepository_ListByPlaceAndCount(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewOfferRepository(pool)
	mine := uuid.New()
	other := uuid.New()

	for _, placeID := range []uuid.UUID{mine, mine, other} {
		if err := repo.Create(ctx, newOffer(t, placeID, baseEnd)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	offers, err := repo.ListByPlace(ctx, mine, 10, 0)
	if err != nil {
		t.Fatalf("list by place: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
	for _, o := range offers {
		if o.PlaceID() != mine {
			t.Fatalf("offer %s belongs to %s", o.ID(), o.PlaceID())
		}
	}

	count, err := repo.CountAll(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 offers total, got %d", count)
	}
}
