package deal

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested deal does not exist.
var ErrNotFound = errors.New("deal not found")

// Type enumerates the supported deal discount strategies.
type Type string

const (
	// TypePercentage discounts the product price by value percent.
	TypePercentage Type = "PERCENTAGE"
	// TypeFixedAmount subtracts value from the product price, floored at zero.
	TypeFixedAmount Type = "FIXED_AMOUNT"
	// TypeFlashSale sets the product price to value outright.
	TypeFlashSale Type = "FLASH_SALE"
)

// Status enumerates the deal lifecycle states maintained by the sweeper.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
)

// Deal is a time-boxed discount applied to one or more products.
type Deal struct {
	ID        int64
	Title     string
	Type      Type
	Value     decimal.Decimal
	Status    Status
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
}

// ActiveAt reports whether the deal can be used for pricing at the given
// instant: status ACTIVE and now within [StartsAt, EndsAt].
func (d *Deal) ActiveAt(now time.Time) bool {
	return d.Status == StatusActive && !now.Before(d.StartsAt) && !now.After(d.EndsAt)
}

// ProductDeal associates a deal with one of its products.
type ProductDeal struct {
	ProductID string
	Deal      Deal
}

// Repository provides deal lookups and the sweeper's lifecycle updates.
type Repository interface {
	// GetByID returns the deal with the given id regardless of status.
	GetByID(ctx context.Context, id int64) (*Deal, error)
	// ActiveForProducts returns every (product, deal) pair where the deal is
	// active for pricing at the given instant. One product may appear with
	// several deals; the resolver applies the tie-break.
	ActiveForProducts(ctx context.Context, productIDs []string, now time.Time) ([]ProductDeal, error)
	// ExpireEnded flips ACTIVE deals whose window has passed to EXPIRED and
	// returns the number of rows changed. Idempotent.
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
	// ActivateDue flips SCHEDULED deals whose window has opened to ACTIVE and
	// returns the number of rows changed. Idempotent.
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
}
