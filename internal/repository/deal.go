package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawanestudio/storefront/internal/domain/deal"
)

const (
	getDealByIDSQL = `SELECT id, title, deal_type, value, status, starts_at, ends_at, created_at
		FROM deals WHERE id = $1`

	// The window is inclusive on both ends, matching deal.ActiveAt.
	activeDealsForProductsSQL = `SELECT dp.product_id, d.id, d.title, d.deal_type, d.value, d.status, d.starts_at, d.ends_at, d.created_at
		FROM deals d
		JOIN deal_products dp ON dp.deal_id = d.id
		WHERE dp.product_id = ANY($1)
		  AND d.status = 'ACTIVE'
		  AND d.starts_at <= $2
		  AND d.ends_at >= $2`

	expireEndedSQL = `UPDATE deals SET status = 'EXPIRED'
		WHERE status = 'ACTIVE' AND ends_at < $1`

	activateDueSQL = `UPDATE deals SET status = 'ACTIVE'
		WHERE status = 'SCHEDULED' AND starts_at <= $1 AND ends_at >= $1`
)

var _ deal.Repository = (*DealRepository)(nil)

// DealRepository implements deal.Repository backed by PostgreSQL.
type DealRepository struct {
	pool *pgxpool.Pool
}

// NewDealRepository returns a DealRepository that uses the given pool.
func NewDealRepository(pool *pgxpool.Pool) *DealRepository {
	return &DealRepository{pool: pool}
}

// GetByID returns a single deal by its identifier.
func (r *DealRepository) GetByID(ctx context.Context, id int64) (*deal.Deal, error) {
	rows, err := r.pool.Query(ctx, getDealByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting deal %d: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDeal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, deal.ErrNotFound
		}
		return nil, fmt.Errorf("getting deal %d: %w", id, err)
	}
	return &d, nil
}

// ActiveForProducts returns every (product, deal) pair where the deal is
// ACTIVE and inside its time window at the given instant.
func (r *DealRepository) ActiveForProducts(ctx context.Context, productIDs []string, now time.Time) ([]deal.ProductDeal, error) {
	rows, err := r.pool.Query(ctx, activeDealsForProductsSQL, productIDs, now)
	if err != nil {
		return nil, fmt.Errorf("listing active deals: %w", err)
	}
	return pgx.CollectRows(rows, scanProductDeal)
}

// ExpireEnded flips ACTIVE deals whose window has closed to EXPIRED and
// reports how many rows changed.
func (r *DealRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, expireEndedSQL, now)
	if err != nil {
		return 0, fmt.Errorf("expiring deals: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ActivateDue flips SCHEDULED deals whose window has opened to ACTIVE and
// reports how many rows changed.
func (r *DealRepository) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, activateDueSQL, now)
	if err != nil {
		return 0, fmt.Errorf("activating deals: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanDeal(row pgx.CollectableRow) (deal.Deal, error) {
	var d deal.Deal
	err := row.Scan(&d.ID, &d.Title, &d.Type, &d.Value, &d.Status, &d.StartsAt, &d.EndsAt, &d.CreatedAt)
	return d, err
}

func scanProductDeal(row pgx.CollectableRow) (deal.ProductDeal, error) {
	var pd deal.ProductDeal
	err := row.Scan(
		&pd.ProductID,
		&pd.Deal.ID, &pd.Deal.Title, &pd.Deal.Type, &pd.Deal.Value,
		&pd.Deal.Status, &pd.Deal.StartsAt, &pd.Deal.EndsAt, &pd.Deal.CreatedAt,
	)
	return pd, err
}
