package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawanestudio/storefront/internal/domain/notification"
)

const (
	// Staff-facing notifications carry no user; an empty UserID is stored as
	// NULL to keep the foreign key honest.
	insertNotificationSQL = `INSERT INTO notifications (user_id, title, body)
		VALUES (NULLIF($1, ''), $2, $3)
		RETURNING id, created_at`

	listNotificationsForUserSQL = `SELECT id, COALESCE(user_id, ''), title, body, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`
)

var _ notification.Repository = (*NotificationRepository)(nil)

// NotificationRepository implements notification.Repository backed by
// PostgreSQL.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a NotificationRepository that uses the
// given pool.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create persists a notification and fills in its generated ID and timestamp.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	err := r.pool.QueryRow(ctx, insertNotificationSQL, n.UserID, n.Title, n.Body).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// ListForUser returns the user's most recent notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]notification.Notification, error) {
	rows, err := r.pool.Query(ctx, listNotificationsForUserSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanNotification)
}

func scanNotification(row pgx.CollectableRow) (notification.Notification, error) {
	var n notification.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Read, &n.CreatedAt)
	return n, err
}
