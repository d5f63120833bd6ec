package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kawanestudio/storefront/internal/domain/payment"
)

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusCheckout          Status = "CHECKOUT"
	StatusPending           Status = "PENDING"
	StatusPaid              Status = "PAID"
	StatusShipped           Status = "SHIPPED"
	StatusCompleted         Status = "COMPLETED"
	StatusCancelled         Status = "CANCELLED"
	StatusWhatsAppPending   Status = "WHATSAPP_PENDING"
	StatusWhatsAppConfirmed Status = "WHATSAPP_CONFIRMED"
)

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusCheckout, StatusPending, StatusPaid, StatusShipped,
		StatusCompleted, StatusCancelled, StatusWhatsAppPending, StatusWhatsAppConfirmed:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Channel distinguishes gateway checkouts from manual WhatsApp orders.
type Channel string

const (
	ChannelOnline   Channel = "online"
	ChannelWhatsApp Channel = "whatsapp"
)

// Order is a placed customer order. Status and the related stock counters are
// mutated only through Service.UpdateStatus and Service.Cancel.
type Order struct {
	ID              string
	UserID          string
	AddressID       string
	Total           decimal.Decimal
	Status          Status
	Channel         Channel
	PromoCode       string
	WhatsAppPhone   string
	ShippingAddress string
	Notes           string
	Items           []Item
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Item is a single order line. UnitPrice and the discount provenance fields
// are frozen at creation time; they never track later deal changes.
type Item struct {
	ProductID          string
	ProductName        string
	Quantity           int
	Size               string
	UnitPrice          decimal.Decimal
	OriginalPrice      decimal.Decimal
	DealID             int64
	DealTitle          string
	DiscountAmount     decimal.Decimal
	DiscountPercentage int
}

// Sentinel errors.
var (
	ErrNotFound        = errors.New("order not found")
	ErrEmptyItems      = errors.New("items required")
	ErrInvalidStatus   = errors.New("unknown order status")
	ErrSameStatus      = errors.New("order already in target status")
	ErrCancelCompleted = errors.New("completed orders cannot be cancelled")
	ErrCancelShipped   = errors.New("shipped orders cannot be cancelled")
	ErrCancelCancelled = errors.New("order is already cancelled")
	ErrStatusConflict  = errors.New("order status changed concurrently")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InsufficientStockError indicates a line requested more units than are
// available, aggregate or size-specific.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Size        string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	if e.Size != "" {
		return fmt.Sprintf("insufficient stock for %s size %s: %d available, %d requested",
			name, e.Size, e.Available, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested",
		name, e.Available, e.Requested)
}

// SizeNotFoundError indicates a requested size does not exist for a product.
type SizeNotFoundError struct {
	ProductID string
	Size      string
}

func (e *SizeNotFoundError) Error() string {
	return fmt.Sprintf("size %s not available for product %s", e.Size, e.ProductID)
}

// DealExpiredError indicates the deal a cart price was based on is no longer
// active at checkout time.
type DealExpiredError struct {
	ProductID string
	DealID    int64
}

func (e *DealExpiredError) Error() string {
	return fmt.Sprintf("deal %d for product %s is no longer active", e.DealID, e.ProductID)
}

// AmountMismatchError indicates the client-declared total disagrees with the
// server-computed total. The computed value is always authoritative; the
// declared value is only ever an assertion.
type AmountMismatchError struct {
	Declared decimal.Decimal
	Computed decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("declared total %s does not match computed total %s",
		e.Declared, e.Computed)
}

// Store is the transactional persistence boundary for orders. CreateOrder
// and UpdateStatus each execute as a single database transaction.
type Store interface {
	// CreateOrder atomically inserts the order, its items and payment row,
	// decrements stock with a guarded conditional update (returning
	// *InsufficientStockError when any guard fails), appends one inventory
	// log per item, and increments the promo code's usage counter when
	// promoCode is non-empty.
	CreateOrder(ctx context.Context, o *Order, pay *payment.Payment, promoCode string) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetForUser returns the order only when owned by userID.
	GetForUser(ctx context.Context, id, userID string) (*Order, error)
	// UpdateStatus atomically sets the order status, conditional on the row
	// still holding o.Status; a concurrent transition surfaces as
	// ErrStatusConflict and performs no writes. When next is CANCELLED it
	// also restores stock for every item and appends one positive inventory
	// log per item, so exactly one transition ever runs the restore.
	UpdateStatus(ctx context.Context, o *Order, next Status) error
}

// Event is published after order state changes commit. Publishing is
// best-effort and never fails the originating operation.
type Event struct {
	Type    string          `json:"type"`
	OrderID string          `json:"order_id"`
	UserID  string          `json:"user_id"`
	Status  Status          `json:"status"`
	Total   decimal.Decimal `json:"total"`
	At      time.Time       `json:"at"`
}

// Event types.
const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
	EventCancelled     = "order.cancelled"
)

// EventPublisher emits order events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}
