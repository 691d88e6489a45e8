package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"purchase_manager_backend/internal/models"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, exec SQLExecutor, n *models.Notification) error
	// ListNotifications returns one page newest first, the total row count and the unread count.
	ListNotifications(ctx context.Context, page, limit int) ([]models.Notification, int, int, error)
	MarkRead(ctx context.Context, id int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateNotification(ctx context.Context, exec SQLExecutor, n *models.Notification) error {
	if exec == nil {
		exec = r.db
	}
	query := `INSERT INTO notifications (type, title, message, is_read, action_url)
	          VALUES ($1, $2, $3, FALSE, $4)
	          RETURNING id, is_read, created_at, updated_at`
	err := exec.QueryRowContext(ctx, query, n.Type, n.Title, n.Message, n.ActionURL).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "creating notification")
	}
	return nil
}

func (r *notificationRepository) ListNotifications(ctx context.Context, page, limit int) ([]models.Notification, int, int, error) {
	qb := &queryBuilder{}
	total, err := qb.count(ctx, r.db, " FROM notifications")
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: counting notifications: %v", ErrDatabaseError, err)
	}
	query := `SELECT id, type, title, message, is_read, action_url, created_at, updated_at
	          FROM notifications
	          ORDER BY created_at DESC, id DESC` + qb.paginate(page, limit)

	rows, err := r.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: querying notifications: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.ActionURL, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: scanning notification: %v", ErrDatabaseError, err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: iterating notifications: %v", ErrDatabaseError, err)
	}

	var unread int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = FALSE`).Scan(&unread); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: counting unread notifications: %v", ErrDatabaseError, err)
	}
	return notifications, total, unread, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	n := &models.Notification{}
	query := `UPDATE notifications SET is_read = TRUE, updated_at = NOW()
	          WHERE id = $1
	          RETURNING id, type, title, message, is_read, action_url, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.ActionURL, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: marking notification %d read: %v", ErrDatabaseError, id, err)
	}
	return n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE, updated_at = NOW() WHERE is_read = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("%w: marking all notifications read: %v", ErrDatabaseError, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for mark all read: %v", ErrDatabaseError, err)
	}
	return n, nil
}
