package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"purchase_manager_backend/internal/models"
)

// StockMovementRepository keeps the audit trail of stock changes.
type StockMovementRepository interface {
	CreateMovement(ctx context.Context, exec SQLExecutor, movement *models.StockMovement) error
	ListMovements(ctx context.Context, productID int64, movementType string, page, limit int) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(ctx context.Context, exec SQLExecutor, movement *models.StockMovement) error {
	if exec == nil {
		exec = r.db
	}
	query := `INSERT INTO stock_movements
	          (product_id, staff_id, movement_type, quantity_changed, stock_after, order_line_id, reason)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	err := exec.QueryRowContext(ctx, query,
		movement.ProductID, movement.StaffID, movement.MovementType, movement.QuantityChanged,
		movement.StockAfter, movement.OrderLineID, movement.Reason,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("recording %s movement for product %d", movement.MovementType, movement.ProductID))
	}
	return nil
}

func (r *stockMovementRepository) ListMovements(ctx context.Context, productID int64, movementType string, page, limit int) ([]models.StockMovement, int, error) {
	qb := &queryBuilder{}
	qb.add("m.product_id = $%d", productID)
	if movementType != "" {
		qb.add("m.movement_type = $%d", movementType)
	}
	const from = ` FROM stock_movements m LEFT JOIN users u ON u.id = m.staff_id`
	total, err := qb.count(ctx, r.db, from)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting stock movements: %v", ErrDatabaseError, err)
	}
	query := `SELECT m.id, m.product_id, m.staff_id, m.movement_type, m.quantity_changed, m.stock_after,
	                 m.order_line_id, m.reason, m.created_at, u.fullname` + from +
		qb.where() + ` ORDER BY m.created_at DESC, m.id DESC` + qb.paginate(page, limit)

	rows, err := r.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	movements := []models.StockMovement{}
	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.StaffID, &m.MovementType, &m.QuantityChanged, &m.StockAfter,
			&m.OrderLineID, &m.Reason, &m.CreatedAt, &m.StaffName,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, total, nil
}
