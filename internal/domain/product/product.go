package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	SKU         string
	Description string
	Price       decimal.Decimal
	// CompareAtPrice, when set, is the price before a permanent markdown.
	// The pricing resolver reports it as the original price.
	CompareAtPrice    *decimal.Decimal
	Stock             int
	Category          string
	LowStockThreshold int
	Sizes             []SizeStock
}

// SizeStock is the stock counter for a single size variant. Products without
// size variants have an empty Sizes slice and track only the aggregate Stock.
type SizeStock struct {
	Size  string
	Stock int
}

// SizeStockFor returns the stock for the given size and whether that size
// exists for the product.
func (p *Product) SizeStockFor(size string) (int, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock, true
		}
	}
	return 0, false
}

// Available reports the purchasable stock: the size-specific counter when a
// size is given, the aggregate counter otherwise.
func (p *Product) Available(size string) int {
	if size == "" {
		return p.Stock
	}
	n, ok := p.SizeStockFor(size)
	if !ok {
		return 0
	}
	return n
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// ListBelowThreshold returns, among the given ids, the products whose
	// aggregate stock has fallen to or below their low-stock threshold.
	ListBelowThreshold(ctx context.Context, ids []string) ([]Product, error)
}
