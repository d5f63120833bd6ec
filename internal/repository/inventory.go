package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawanestudio/storefront/internal/domain/inventory"
)

const listInventoryLogsSQL = `SELECT id, product_id, change, note, created_at
	FROM inventory_logs WHERE product_id = $1
	ORDER BY created_at DESC, id DESC LIMIT $2`

var _ inventory.LogRepository = (*InventoryLogRepository)(nil)

// InventoryLogRepository reads the append-only stock movement trail. Writes
// happen inside the order transaction, never through this type.
type InventoryLogRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryLogRepository returns an InventoryLogRepository that uses the
// given pool.
func NewInventoryLogRepository(pool *pgxpool.Pool) *InventoryLogRepository {
	return &InventoryLogRepository{pool: pool}
}

// ListForProduct returns the most recent stock movements for a product.
func (r *InventoryLogRepository) ListForProduct(ctx context.Context, productID string, limit int) ([]inventory.Log, error) {
	rows, err := r.pool.Query(ctx, listInventoryLogsSQL, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing inventory logs for %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanInventoryLog)
}

func scanInventoryLog(row pgx.CollectableRow) (inventory.Log, error) {
	var l inventory.Log
	err := row.Scan(&l.ID, &l.ProductID, &l.Change, &l.Note, &l.CreatedAt)
	return l, err
}
