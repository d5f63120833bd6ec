package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawanestudio/storefront/internal/domain/payment"
)

const (
	getPaymentByOrderSQL = `SELECT id, order_id, method, amount, status, token, redirect_url, created_at, updated_at
		FROM payments WHERE order_id = $1`

	attachPaymentSessionSQL = `UPDATE payments SET token = $2, redirect_url = $3, updated_at = now()
		WHERE order_id = $1`

	updatePaymentStatusSQL = `UPDATE payments SET status = $2, updated_at = now()
		WHERE order_id = $1`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
// Payment rows are inserted inside the order-creation transaction; this type
// only reads and updates them afterwards.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// GetByOrderID returns the payment record for an order.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, getPaymentByOrderSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting payment for order %q: %w", orderID, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("getting payment for order %q: %w", orderID, err)
	}
	return &p, nil
}

// AttachSession stores the gateway token and redirect URL on the payment row.
func (r *PaymentRepository) AttachSession(ctx context.Context, orderID, token, redirectURL string) error {
	tag, err := r.pool.Exec(ctx, attachPaymentSessionSQL, orderID, token, redirectURL)
	if err != nil {
		return fmt.Errorf("attaching session for order %q: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrNotFound
	}
	return nil
}

// UpdateStatus transitions the payment for the given order.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, orderID string, status payment.Status) error {
	tag, err := r.pool.Exec(ctx, updatePaymentStatusSQL, orderID, status)
	if err != nil {
		return fmt.Errorf("updating payment status for order %q: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrNotFound
	}
	return nil
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status,
		&p.Token, &p.RedirectURL, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
