package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tidex114/est-backend/internal/domain"
)

// OfferRepository persists offers in Postgres. Writes use optimistic
// concurrency: every update is a compare-and-swap on the version column.
type OfferRepository struct {
	pool *pgxpool.Pool
}

func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

const offerColumns = `
id, place_id, title, description,
price_amount, price_currency, original_price_amount, original_price_currency,
quantity_total, quantity_available,
pickup_start, pickup_end, expires_at,
status, tags, allergens, image_urls,
created_at, updated_at, version`

func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	const stmt = `
INSERT INTO offers (
	id, place_id, title, description,
	price_amount, price_currency, original_price_amount, original_price_currency,
	quantity_total, quantity_available,
	pickup_start, pickup_end, expires_at,
	status, tags, allergens, image_urls,
	created_at, updated_at, version
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, 1)`

	s := offer.Snapshot()
	_, err := r.pool.Exec(ctx, stmt,
		s.ID, s.PlaceID, s.Title, s.Description,
		s.Price.Amount(), s.Price.Currency(), s.OriginalPrice.Amount(), s.OriginalPrice.Currency(),
		s.QuantityTotal, s.QuantityAvailable,
		s.PickupStart, s.PickupEnd, s.ExpiresAt,
		string(s.Status), s.Tags, s.Allergens, s.ImageURLs,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create offer: %w", err)
	}
	return nil
}

func (r *OfferRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return offer, nil
}

// Update writes the offer back only if the row still carries the version the
// offer was loaded with. Zero rows affected on an existing row means a
// concurrent writer got there first.
func (r *OfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	const stmt = `
UPDATE offers SET
	title = $3, description = $4,
	price_amount = $5, price_currency = $6,
	original_price_amount = $7, original_price_currency = $8,
	quantity_total = $9, quantity_available = $10,
	pickup_start = $11, pickup_end = $12, expires_at = $13,
	status = $14, tags = $15, allergens = $16, image_urls = $17,
	updated_at = $18,
	version = version + 1
WHERE id = $1 AND version = $2`

	s := offer.Snapshot()
	tag, err := r.pool.Exec(ctx, stmt,
		s.ID, s.Version,
		s.Title, s.Description,
		s.Price.Amount(), s.Price.Currency(),
		s.OriginalPrice.Amount(), s.OriginalPrice.Currency(),
		s.QuantityTotal, s.QuantityAvailable,
		s.PickupStart, s.PickupEnd, s.ExpiresAt,
		string(s.Status), s.Tags, s.Allergens, s.ImageURLs,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
			return fmt.Errorf("update offer: %w", err)
		}
		if !exists {
			return domain.ErrOfferNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *OfferRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete offer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListActive returns customer-visible offers whose pickup window has not
// closed yet, soonest pickup_end first. Rows past an earlier expires_at are
// still included so the service can observe and persist their expiry.
func (r *OfferRepository) ListActive(ctx context.Context, now time.Time, limit, offset int) ([]*domain.Offer, error) {
	query := `
SELECT ` + offerColumns + `
FROM offers
WHERE status NOT IN ('draft', 'cancelled') AND pickup_end > $1
ORDER BY pickup_end ASC
LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, now, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *OfferRepository) ListByPlace(ctx context.Context, placeID uuid.UUID, limit, offset int) ([]*domain.Offer, error) {
	query := `
SELECT ` + offerColumns + `
FROM offers
WHERE place_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, placeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list offers by place: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *OfferRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return count, nil
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var (
		s           domain.OfferSnapshot
		priceAmount decimal.Decimal
		priceCur    string
		origAmount  decimal.Decimal
		origCur     string
		status      string
	)
	err := row.Scan(
		&s.ID, &s.PlaceID, &s.Title, &s.Description,
		&priceAmount, &priceCur, &origAmount, &origCur,
		&s.QuantityTotal, &s.QuantityAvailable,
		&s.PickupStart, &s.PickupEnd, &s.ExpiresAt,
		&status, &s.Tags, &s.Allergens, &s.ImageURLs,
		&s.CreatedAt, &s.UpdatedAt, &s.Version,
	)
	if err != nil {
		return nil, err
	}

	if s.Price, err = domain.NewMoney(priceAmount, priceCur); err != nil {
		return nil, fmt.Errorf("price column: %w", err)
	}
	if s.OriginalPrice, err = domain.NewMoney(origAmount, origCur); err != nil {
		return nil, fmt.Errorf("original_price column: %w", err)
	}
	s.Status = domain.OfferStatus(status)

	return domain.RehydrateOffer(s)
}

func collectOffers(rows pgx.Rows) ([]*domain.Offer, error) {
	var offers []*domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
