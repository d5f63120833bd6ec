package inventory

import (
	"context"
	"time"
)

// Log is an append-only audit entry for a stock change. Negative changes are
// sales, positive changes are restocks or cancellations. Logs are never
// updated or deleted.
type Log struct {
	ID        int64
	ProductID string
	Change    int
	Note      string
	CreatedAt time.Time
}

// LogRepository reads the audit trail. Log rows are inserted inside the same
// transaction as the stock mutation they record.
type LogRepository interface {
	ListForProduct(ctx context.Context, productID string, limit int) ([]Log, error)
}
