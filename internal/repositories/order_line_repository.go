package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"purchase_manager_backend/internal/models"
)

// OrderLineRepository covers the batch-level queries used by expiration tracking.
type OrderLineRepository interface {
	// ListExpiredActiveLines returns lines with expiration_date <= now that
	// still hold stock and were not retired yet.
	ListExpiredActiveLines(ctx context.Context, now time.Time) ([]models.PurchaseOrderLine, error)

	// MarkLineExpired retires a line and returns the quantity it held.
	// It returns ErrNotFound when the line was already retired.
	MarkLineExpired(ctx context.Context, exec SQLExecutor, lineID int64) (int, error)

	ListExpiringLines(ctx context.Context, from, to time.Time) ([]models.ExpiringLine, error)
}

type orderLineRepository struct {
	db *sql.DB
}

func NewOrderLineRepository(db *sql.DB) OrderLineRepository {
	return &orderLineRepository{db: db}
}

func (r *orderLineRepository) ListExpiredActiveLines(ctx context.Context, now time.Time) ([]models.PurchaseOrderLine, error) {
	query := `SELECT l.id, l.order_id, l.product_id, l.quantity, l.unit_cost, l.expiration_date,
	                 l.remaining_quantity, l.is_expired, l.expired_quantity, l.created_at, l.updated_at
	          FROM purchase_order_lines l
	          WHERE l.expiration_date <= $1 AND l.is_expired = FALSE AND l.remaining_quantity > 0
	          ORDER BY l.expiration_date, l.id`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%w: querying expired lines: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	lines := []models.PurchaseOrderLine{}
	for rows.Next() {
		var l models.PurchaseOrderLine
		err := rows.Scan(
			&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitCost, &l.ExpirationDate,
			&l.RemainingQuantity, &l.IsExpired, &l.ExpiredQuantity, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning expired line: %v", ErrDatabaseError, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating expired lines: %v", ErrDatabaseError, err)
	}
	return lines, nil
}

func (r *orderLineRepository) MarkLineExpired(ctx context.Context, exec SQLExecutor, lineID int64) (int, error) {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE purchase_order_lines
	          SET is_expired = TRUE, expired_quantity = remaining_quantity, remaining_quantity = 0, updated_at = NOW()
	          WHERE id = $1 AND is_expired = FALSE AND remaining_quantity > 0
	          RETURNING expired_quantity`
	var expired int
	if err := exec.QueryRowContext(ctx, query, lineID).Scan(&expired); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: expiring line %d: %v", ErrDatabaseError, lineID, err)
	}
	return expired, nil
}

func (r *orderLineRepository) ListExpiringLines(ctx context.Context, from, to time.Time) ([]models.ExpiringLine, error) {
	query := `SELECT l.id, l.order_id, o.order_number, l.product_id, p.name, l.remaining_quantity, l.expiration_date
	          FROM purchase_order_lines l
	          JOIN purchase_orders o ON o.id = l.order_id
	          JOIN products p ON p.id = l.product_id
	          WHERE l.expiration_date > $1 AND l.expiration_date <= $2
	            AND l.is_expired = FALSE AND l.remaining_quantity > 0
	          ORDER BY l.expiration_date, l.id`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying expiring lines: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	lines := []models.ExpiringLine{}
	for rows.Next() {
		var e models.ExpiringLine
		if err := rows.Scan(&e.LineID, &e.OrderID, &e.OrderNumber, &e.ProductID, &e.ProductName, &e.RemainingQuantity, &e.ExpirationDate); err != nil {
			return nil, fmt.Errorf("%w: scanning expiring line: %v", ErrDatabaseError, err)
		}
		lines = append(lines, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating expiring lines: %v", ErrDatabaseError, err)
	}
	return lines, nil
}
