package notification

import (
	"context"
	"time"
)

// Notification is a message shown to a customer, or to the staff dashboard
// when UserID is empty.
type Notification struct {
	ID        int64
	UserID    string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error)
}
