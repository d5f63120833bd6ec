package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kawanestudio/storefront/internal/domain/notification"
	"github.com/kawanestudio/storefront/internal/domain/product"
)

// Monitor raises staff notifications for products whose stock has fallen to
// or below their low-stock threshold. It runs best-effort after checkouts.
type Monitor struct {
	products product.Repository
	notes    notification.Repository
	lg       *zap.Logger
}

// NewMonitor creates a Monitor.
func NewMonitor(products product.Repository, notes notification.Repository, lg *zap.Logger) *Monitor {
	return &Monitor{products: products, notes: notes, lg: lg}
}

// CheckProducts inspects the given products and creates one staff
// notification per threshold breach. Errors are logged, never returned: a
// monitoring failure must not affect the checkout that triggered it.
func (m *Monitor) CheckProducts(ctx context.Context, productIDs []string) {
	low, err := m.products.ListBelowThreshold(ctx, productIDs)
	if err != nil {
		m.lg.Warn("low-stock check failed", zap.Error(err))
		return
	}

	for _, p := range low {
		n := &notification.Notification{
			Title: "⚠️ Low stock",
			Body: fmt.Sprintf("%s is down to %d unit(s) (threshold %d)",
				p.Name, p.Stock, p.LowStockThreshold),
		}
		if err := m.notes.Create(ctx, n); err != nil {
			m.lg.Warn("low-stock notification failed",
				zap.String("product_id", p.ID), zap.Error(err))
		}
	}
}
