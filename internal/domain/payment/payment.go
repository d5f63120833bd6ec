package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no payment exists for an order.
var ErrNotFound = errors.New("payment not found")

// Status enumerates payment lifecycle states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Known payment methods.
const (
	MethodGateway        = "gateway"
	MethodWhatsAppManual = "whatsapp_manual"
)

// Payment is the one-to-one payment record for an order. Token and
// RedirectURL are filled in after a gateway session is created.
type Payment struct {
	ID          string
	OrderID     string
	Method      string
	Amount      decimal.Decimal
	Status      Status
	Token       string
	RedirectURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session is the result of creating a gateway checkout session.
type Session struct {
	Token       string
	RedirectURL string
}

// Gateway creates checkout sessions with the external payment provider.
type Gateway interface {
	CreateSession(ctx context.Context, orderID string, amount decimal.Decimal) (*Session, error)
}

// Repository provides payment lookups and post-commit session attachment.
// Payment rows themselves are inserted inside the order-creation transaction.
type Repository interface {
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	// AttachSession stores the gateway token and redirect URL on the
	// payment row for the given order.
	AttachSession(ctx context.Context, orderID, token, redirectURL string) error
	// UpdateStatus transitions the payment for the given order.
	UpdateStatus(ctx context.Context, orderID string, status Status) error
}
