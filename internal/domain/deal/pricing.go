package deal

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kawanestudio/storefront/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// Quote is the pricing breakdown for a single product at a point in time.
// Monetary fields are rounded to 2 decimal places.
type Quote struct {
	ProductID          string          `json:"productId"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	DiscountedPrice    decimal.Decimal `json:"discountedPrice"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	DiscountPercentage int             `json:"discountPercentage"`
	DealID             int64           `json:"dealId,omitempty"`
	DealTitle          string          `json:"dealTitle,omitempty"`
	IsFlashSale        bool            `json:"isFlashSale"`
	DealEndsAt         *time.Time      `json:"dealEndsAt,omitempty"`
}

// QuoteCache caches quotes keyed by product id. Implementations must be safe
// to call with a short TTL; a miss or any cache failure simply falls through
// to computation.
type QuoteCache interface {
	Get(ctx context.Context, productID string) (*Quote, bool)
	Set(ctx context.Context, q *Quote)
}

// Resolver computes effective product prices from currently-active deals.
// It performs reads only.
type Resolver struct {
	products product.Repository
	deals    Repository
	cache    QuoteCache
	now      func() time.Time
}

// NewResolver creates a Resolver. cache may be nil to disable caching.
func NewResolver(products product.Repository, deals Repository, cache QuoteCache) *Resolver {
	return &Resolver{
		products: products,
		deals:    deals,
		cache:    cache,
		now:      time.Now,
	}
}

// QuoteProduct returns the pricing breakdown for one product.
func (r *Resolver) QuoteProduct(ctx context.Context, productID string) (*Quote, error) {
	if r.cache != nil {
		if q, ok := r.cache.Get(ctx, productID); ok {
			return q, nil
		}
	}

	quotes, err := r.QuoteProducts(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, product.ErrNotFound
	}

	q := &quotes[0]
	if r.cache != nil {
		r.cache.Set(ctx, q)
	}
	return q, nil
}

// QuoteProducts returns pricing breakdowns for all given products using a
// single batched deal lookup. Every requested product must exist.
func (r *Resolver) QuoteProducts(ctx context.Context, productIDs []string) ([]Quote, error) {
	products, err := r.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	now := r.now()
	pairs, err := r.deals.ActiveForProducts(ctx, productIDs, now)
	if err != nil {
		return nil, errors.Wrap(err, "get active deals")
	}
	dealsByProduct := make(map[string][]Deal, len(pairs))
	for _, pd := range pairs {
		dealsByProduct[pd.ProductID] = append(dealsByProduct[pd.ProductID], pd.Deal)
	}

	quotes := make([]Quote, 0, len(productIDs))
	for _, id := range productIDs {
		p, ok := byID[id]
		if !ok {
			return nil, errors.Wrapf(product.ErrNotFound, "product %s", id)
		}
		quotes = append(quotes, Compute(p, pickDeal(dealsByProduct[id])))
	}
	return quotes, nil
}

// pickDeal selects the winning deal when several are active for one product:
// the deal with the latest start wins, ties broken by the largest id.
func pickDeal(deals []Deal) *Deal {
	if len(deals) == 0 {
		return nil
	}
	best := &deals[0]
	for i := 1; i < len(deals); i++ {
		d := &deals[i]
		if d.StartsAt.After(best.StartsAt) ||
			(d.StartsAt.Equal(best.StartsAt) && d.ID > best.ID) {
			best = d
		}
	}
	return best
}

// Compute derives the quote for a product under an optional deal. A nil deal
// yields the undiscounted quote. The product's compare-at price, when higher
// than the live price, is reported as the original price.
func Compute(p *product.Product, d *Deal) Quote {
	original := p.Price
	if p.CompareAtPrice != nil && p.CompareAtPrice.GreaterThan(p.Price) {
		original = *p.CompareAtPrice
	}

	q := Quote{
		ProductID:       p.ID,
		OriginalPrice:   original.Round(2),
		DiscountedPrice: p.Price.Round(2),
		DiscountAmount:  decimal.Zero,
	}

	if d == nil {
		if original.GreaterThan(p.Price) {
			q.DiscountAmount = original.Sub(p.Price).Round(2)
			q.DiscountPercentage = percentOf(q.DiscountAmount, original)
		}
		return q
	}

	switch d.Type {
	case TypePercentage:
		amount := original.Mul(d.Value).Div(hundred).Round(2)
		q.DiscountAmount = amount
		q.DiscountedPrice = original.Sub(amount).Round(2)
		q.DiscountPercentage = percentOf(amount, original)
	case TypeFixedAmount:
		q.DiscountAmount = d.Value.Round(2)
		discounted := original.Sub(d.Value)
		if discounted.IsNegative() {
			discounted = decimal.Zero
		}
		q.DiscountedPrice = discounted.Round(2)
		q.DiscountPercentage = percentOf(q.DiscountAmount, original)
	case TypeFlashSale:
		q.DiscountedPrice = d.Value.Round(2)
		q.DiscountAmount = original.Sub(d.Value).Round(2)
		q.DiscountPercentage = percentOf(q.DiscountAmount, original)
		q.IsFlashSale = true
	default:
		return q
	}

	q.DealID = d.ID
	q.DealTitle = d.Title
	ends := d.EndsAt
	q.DealEndsAt = &ends
	return q
}

// percentOf returns amount/total as a whole percentage, rounded half up.
// Returns 0 when total is not positive.
func percentOf(amount, total decimal.Decimal) int {
	if !total.IsPositive() {
		return 0
	}
	return int(amount.Div(total).Mul(hundred).Round(0).IntPart())
}
