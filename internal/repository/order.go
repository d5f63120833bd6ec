package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawanestudio/storefront/internal/domain/order"
	"github.com/kawanestudio/storefront/internal/domain/payment"
	"github.com/kawanestudio/storefront/internal/domain/promo"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_id, address_id, total, status, channel, promo_code, whatsapp_phone, shipping_address, notes)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, product_name, quantity, size, unit_price, original_price, deal_id, deal_title, discount_amount, discount_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0), $9, $10, $11)`

	insertPaymentSQL = `INSERT INTO payments (id, order_id, method, amount, status)
		VALUES ($1, $2, $3, $4, $5)`

	insertInventoryLogSQL = `INSERT INTO inventory_logs (product_id, change, note)
		VALUES ($1, $2, $3)`

	// The decrement is guarded: it only succeeds when enough stock remains,
	// so concurrent checkouts race on the row and the loser matches nothing.
	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	decrementSizeStockSQL = `UPDATE product_sizes SET stock = stock - $3
		WHERE product_id = $1 AND size = $2 AND stock >= $3`

	restoreStockSQL = `UPDATE products SET stock = stock + $2 WHERE id = $1`

	restoreSizeStockSQL = `UPDATE product_sizes SET stock = stock + $3
		WHERE product_id = $1 AND size = $2`

	currentStockSQL = `SELECT stock FROM products WHERE id = $1`

	currentSizeStockSQL = `SELECT stock FROM product_sizes WHERE product_id = $1 AND size = $2`

	consumePromoSQL = `UPDATE promo_codes SET uses = uses + 1
		WHERE code = $1 AND active AND (max_uses = 0 OR uses < max_uses)`

	orderColumns = `id, user_id, COALESCE(address_id, ''), total, status, channel, promo_code, whatsapp_phone, shipping_address, notes, created_at, updated_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderForUserSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	listOrderItemsSQL = `SELECT product_id, product_name, quantity, size, unit_price, original_price, COALESCE(deal_id, 0), deal_title, discount_amount, discount_percentage
		FROM order_items WHERE order_id = $1 ORDER BY id`

	// The transition is guarded on the status the caller read, so of two
	// racing writers exactly one matches the row and runs the restore.
	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Order creation and
// cancellation run in a single transaction so the order, its items, the
// payment row, stock levels, inventory logs and promo usage move together or
// not at all.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// CreateOrder atomically persists the order, its items and payment row,
// decrements stock with a guard, writes one inventory log per item and
// consumes the promo code. A guard failure rolls the whole transaction back
// and surfaces as *order.InsufficientStockError with the stock seen inside
// the transaction.
func (s *OrderStore) CreateOrder(ctx context.Context, o *order.Order, pay *payment.Payment, promoCode string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.UserID, o.AddressID, o.Total, o.Status, o.Channel,
			o.PromoCode, o.WhatsAppPhone, o.ShippingAddress, o.Notes,
		)
		if err != nil {
			return fmt.Errorf("inserting order %q: %w", o.ID, err)
		}

		for _, item := range o.Items {
			if err := s.takeStock(ctx, tx, o.ID, item); err != nil {
				return err
			}

			_, err := tx.Exec(ctx, insertOrderItemSQL,
				o.ID, item.ProductID, item.ProductName, item.Quantity, item.Size,
				item.UnitPrice, item.OriginalPrice, item.DealID, item.DealTitle,
				item.DiscountAmount, item.DiscountPercentage,
			)
			if err != nil {
				return fmt.Errorf("inserting order item %q: %w", item.ProductID, err)
			}
		}

		_, err = tx.Exec(ctx, insertPaymentSQL,
			pay.ID, pay.OrderID, pay.Method, pay.Amount, pay.Status,
		)
		if err != nil {
			return fmt.Errorf("inserting payment for order %q: %w", o.ID, err)
		}

		if promoCode != "" {
			tag, err := tx.Exec(ctx, consumePromoSQL, promoCode)
			if err != nil {
				return fmt.Errorf("consuming promo code %q: %w", promoCode, err)
			}
			if tag.RowsAffected() == 0 {
				return promo.ErrExhausted
			}
		}

		return nil
	})
}

// takeStock performs the guarded decrement for one item and records the
// movement. On a guard miss it reads the stock still inside the transaction
// so the error reports what the customer raced against.
func (s *OrderStore) takeStock(ctx context.Context, tx pgx.Tx, orderID string, item order.Item) error {
	if item.Size != "" {
		tag, err := tx.Exec(ctx, decrementSizeStockSQL, item.ProductID, item.Size, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing size stock %q/%q: %w", item.ProductID, item.Size, err)
		}
		if tag.RowsAffected() == 0 {
			available := 0
			_ = tx.QueryRow(ctx, currentSizeStockSQL, item.ProductID, item.Size).Scan(&available)
			return &order.InsufficientStockError{
				ProductID: item.ProductID,
				Size:      item.Size,
				Available: available,
				Requested: item.Quantity,
			}
		}
	}

	tag, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock %q: %w", item.ProductID, err)
	}
	if tag.RowsAffected() == 0 {
		available := 0
		_ = tx.QueryRow(ctx, currentStockSQL, item.ProductID).Scan(&available)
		return &order.InsufficientStockError{
			ProductID: item.ProductID,
			Available: available,
			Requested: item.Quantity,
		}
	}

	_, err = tx.Exec(ctx, insertInventoryLogSQL,
		item.ProductID, -item.Quantity, fmt.Sprintf("order %s", orderID),
	)
	if err != nil {
		return fmt.Errorf("logging stock movement %q: %w", item.ProductID, err)
	}
	return nil
}

// GetByID returns an order with its items.
func (s *OrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return s.collectOrder(ctx, rows, id)
}

// GetForUser returns an order with its items, scoped to its owner.
func (s *OrderStore) GetForUser(ctx context.Context, id, userID string) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderForUserSQL, id, userID)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return s.collectOrder(ctx, rows, id)
}

func (s *OrderStore) collectOrder(ctx context.Context, rows pgx.Rows, id string) (*order.Order, error) {
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := s.pool.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus transitions an order's status, conditional on the row still
// holding the status the caller read. Transitioning into CANCELLED also
// restores stock for every item and records the restorations in the
// inventory log, all in the same transaction.
func (s *OrderStore) UpdateStatus(ctx context.Context, o *order.Order, next order.Status) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateOrderStatusSQL, o.ID, next, o.Status)
		if err != nil {
			return fmt.Errorf("updating order %q status: %w", o.ID, err)
		}
		if tag.RowsAffected() == 0 {
			exists := false
			if err := tx.QueryRow(ctx, orderExistsSQL, o.ID).Scan(&exists); err != nil {
				return fmt.Errorf("checking order %q: %w", o.ID, err)
			}
			if exists {
				return order.ErrStatusConflict
			}
			return order.ErrNotFound
		}

		if next != order.StatusCancelled || o.Status == order.StatusCancelled {
			return nil
		}

		for _, item := range o.Items {
			if _, err := tx.Exec(ctx, restoreStockSQL, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restoring stock %q: %w", item.ProductID, err)
			}
			if item.Size != "" {
				if _, err := tx.Exec(ctx, restoreSizeStockSQL, item.ProductID, item.Size, item.Quantity); err != nil {
					return fmt.Errorf("restoring size stock %q/%q: %w", item.ProductID, item.Size, err)
				}
			}
			_, err := tx.Exec(ctx, insertInventoryLogSQL,
				item.ProductID, item.Quantity, fmt.Sprintf("order %s cancelled", o.ID),
			)
			if err != nil {
				return fmt.Errorf("logging stock restoration %q: %w", item.ProductID, err)
			}
		}
		return nil
	})
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.AddressID, &o.Total, &o.Status, &o.Channel,
		&o.PromoCode, &o.WhatsAppPhone, &o.ShippingAddress, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var item order.Item
	err := row.Scan(
		&item.ProductID, &item.ProductName, &item.Quantity, &item.Size,
		&item.UnitPrice, &item.OriginalPrice, &item.DealID, &item.DealTitle,
		&item.DiscountAmount, &item.DiscountPercentage,
	)
	return item, err
}
