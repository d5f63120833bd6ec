package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawanestudio/storefront/internal/domain/product"
)

const (
	productColumns = `id, name, COALESCE(sku, ''), description, price, compare_at_price, stock, category, low_stock_threshold`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	listBelowThresholdSQL = `SELECT ` + productColumns + ` FROM products
		WHERE id = ANY($1) AND low_stock_threshold > 0 AND stock <= low_stock_threshold`

	listProductSizesSQL = `SELECT product_id, size, stock FROM product_sizes
		WHERE product_id = ANY($1) ORDER BY product_id, size`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, err
	}
	if err := r.attachSizes(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	products := []product.Product{p}
	if err := r.attachSizes(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, err
	}
	if err := r.attachSizes(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListBelowThreshold returns, among the given products, those whose stock has
// fallen to or below their low-stock threshold.
func (r *ProductRepository) ListBelowThreshold(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listBelowThresholdSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing low-stock products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// attachSizes loads per-size stock rows for the given products in one query.
func (r *ProductRepository) attachSizes(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		byID[products[i].ID] = &products[i]
	}

	rows, err := r.pool.Query(ctx, listProductSizesSQL, ids)
	if err != nil {
		return fmt.Errorf("listing product sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			ss        product.SizeStock
		)
		if err := rows.Scan(&productID, &ss.Size, &ss.Stock); err != nil {
			return fmt.Errorf("scanning product size: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Sizes = append(p.Sizes, ss)
		}
	}
	return rows.Err()
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Description,
		&p.Price, &p.CompareAtPrice, &p.Stock,
		&p.Category, &p.LowStockThreshold,
	)
	return p, err
}
