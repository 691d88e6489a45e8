package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"purchase_manager_backend/internal/models"
)

// OrderRepository defines the persistence operations on purchase orders and their lines.
type OrderRepository interface {
	ExistsOrderNumber(ctx context.Context, exec SQLExecutor, orderNumber string) (bool, error)
	CreateOrder(ctx context.Context, exec SQLExecutor, order *models.PurchaseOrder) error
	CreateOrderLine(ctx context.Context, exec SQLExecutor, line *models.PurchaseOrderLine) error
	GetOrderByID(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	GetOrderLines(ctx context.Context, orderID int64) ([]models.PurchaseOrderLine, error)
	ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.PurchaseOrder, int, error)
	UpdateOrder(ctx context.Context, exec SQLExecutor, order *models.PurchaseOrder) error
	GetStats(ctx context.Context, staffID *int64, monthStart, monthEnd time.Time) (*models.OrderStats, error)
	GetAnalytics(ctx context.Context, period string, buckets int) (*models.OrderAnalytics, error)
	GetCategorySpending(ctx context.Context, from, to time.Time) ([]models.CategorySpending, error)
	GetMonthlySpending(ctx context.Context, from, to time.Time) ([]models.MonthlySpending, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec == nil {
		return r.db
	}
	return exec
}

// --- Order methods ---

func (r *orderRepository) ExistsOrderNumber(ctx context.Context, exec SQLExecutor, orderNumber string) (bool, error) {
	var exists bool
	err := r.executor(exec).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM purchase_orders WHERE order_number = $1)`, orderNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking order number %s: %v", ErrDatabaseError, orderNumber, err)
	}
	return exists, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, exec SQLExecutor, order *models.PurchaseOrder) error {
	query := `INSERT INTO purchase_orders
	            (order_number, supplier_id, staff_id, status, total_amount, attachment, paid_date, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at, updated_at`
	err := r.executor(exec).QueryRowContext(ctx, query,
		order.OrderNumber, order.SupplierID, order.StaffID, order.Status, order.TotalAmount,
		order.Attachment, order.PaidDate, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "creating purchase order")
	}
	return nil
}

func (r *orderRepository) CreateOrderLine(ctx context.Context, exec SQLExecutor, line *models.PurchaseOrderLine) error {
	query := `INSERT INTO purchase_order_lines
	            (order_id, product_id, quantity, unit_cost, expiration_date, remaining_quantity, is_expired, expired_quantity)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at, updated_at`
	err := r.executor(exec).QueryRowContext(ctx, query,
		line.OrderID, line.ProductID, line.Quantity, line.UnitCost, line.ExpirationDate,
		line.RemainingQuantity, line.IsExpired, line.ExpiredQuantity,
	).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("creating line for product %d", line.ProductID))
	}
	return nil
}

const orderColumns = `o.id, o.order_number, o.supplier_id, o.staff_id, o.status, o.total_amount,
	o.attachment, o.paid_date, o.notes, o.created_at, o.updated_at,
	s.name, s.email, u.fullname, u.email`

const orderFrom = ` FROM purchase_orders o
	LEFT JOIN suppliers s ON s.id = o.supplier_id
	LEFT JOIN users u ON u.id = o.staff_id`

func scanOrder(sc scanner) (*models.PurchaseOrder, error) {
	o := &models.PurchaseOrder{}
	var supplierName, supplierEmail, staffName, staffEmail sql.NullString
	dest := []interface{}{
		&o.ID, &o.OrderNumber, &o.SupplierID, &o.StaffID, &o.Status, &o.TotalAmount,
		&o.Attachment, &o.PaidDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		&supplierName, &supplierEmail, &staffName, &staffEmail,
	}
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	if supplierName.Valid {
		o.Supplier = &models.Supplier{ID: o.SupplierID, Name: supplierName.String, Email: supplierEmail.String}
	}
	if staffName.Valid {
		o.Staff = &models.User{ID: o.StaffID, Fullname: staffName.String, Email: staffEmail.String}
	}
	o.Items = []models.PurchaseOrderLine{}
	return o, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + orderFrom + ` WHERE o.id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, id, err)
	}
	return o, nil
}

func (r *orderRepository) GetOrderLines(ctx context.Context, orderID int64) ([]models.PurchaseOrderLine, error) {
	query := `SELECT l.id, l.order_id, l.product_id, l.quantity, l.unit_cost, l.expiration_date,
	                 l.remaining_quantity, l.is_expired, l.expired_quantity, l.created_at, l.updated_at,
	                 p.name, p.unit, p.image_url
	          FROM purchase_order_lines l
	          LEFT JOIN products p ON p.id = l.product_id
	          WHERE l.order_id = $1
	          ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying lines for order %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	lines := []models.PurchaseOrderLine{}
	for rows.Next() {
		var l models.PurchaseOrderLine
		var productName, productUnit sql.NullString
		var productImage *string
		err := rows.Scan(
			&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitCost, &l.ExpirationDate,
			&l.RemainingQuantity, &l.IsExpired, &l.ExpiredQuantity, &l.CreatedAt, &l.UpdatedAt,
			&productName, &productUnit, &productImage,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning line for order %d: %v", ErrDatabaseError, orderID, err)
		}
		if productName.Valid {
			l.Product = &models.Product{ID: l.ProductID, Name: productName.String, Unit: productUnit.String, ImageURL: productImage}
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating lines for order %d: %v", ErrDatabaseError, orderID, err)
	}
	return lines, nil
}

var orderSortColumns = map[string]string{
	"createdAt":   "o.created_at",
	"updatedAt":   "o.updated_at",
	"orderNumber": "o.order_number",
	"totalAmount": "o.total_amount",
	"status":      "o.status",
	"paidDate":    "o.paid_date",
}

// orderFilterConditions maps the criteria that are present to SQL predicates.
func orderFilterConditions(filters models.OrderFilters) *queryBuilder {
	qb := &queryBuilder{}
	if filters.OrderNumber != "" {
		qb.add("o.order_number ILIKE $%d", "%"+escapeLike(filters.OrderNumber)+"%")
	}
	if filters.StaffID != nil {
		qb.add("o.staff_id = $%d", *filters.StaffID)
	}
	if filters.Status != "" {
		qb.add("o.status = $%d", string(filters.Status))
	}
	if len(filters.SupplierIDs) > 0 {
		qb.add("o.supplier_id = ANY($%d)", pq.Array(filters.SupplierIDs))
	}
	return qb
}

func (r *orderRepository) ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.PurchaseOrder, int, error) {
	qb := orderFilterConditions(filters)
	total, err := qb.count(ctx, r.db, orderFrom)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting orders: %v", ErrDatabaseError, err)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + orderColumns + orderFrom)
	sb.WriteString(qb.where())
	sb.WriteString(orderClause(filters.SortBy, filters.Order, orderSortColumns, "o.created_at", "o.id"))
	sb.WriteString(qb.paginate(filters.Page, filters.Limit))

	rows, err := r.db.QueryContext(ctx, sb.String(), qb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.PurchaseOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, exec SQLExecutor, order *models.PurchaseOrder) error {
	query := `UPDATE purchase_orders
	          SET status = $1, attachment = $2, paid_date = $3, notes = $4, updated_at = NOW()
	          WHERE id = $5
	          RETURNING updated_at`
	err := r.executor(exec).QueryRowContext(ctx, query,
		order.Status, order.Attachment, order.PaidDate, order.Notes, order.ID,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: updating order %d: %v", ErrDatabaseError, order.ID, err)
	}
	return nil
}

// GetStats counts pending and confirmed orders overall and paid orders
// created inside [monthStart, monthEnd), with their summed value.
func (r *orderRepository) GetStats(ctx context.Context, staffID *int64, monthStart, monthEnd time.Time) (*models.OrderStats, error) {
	query := `SELECT
	              COUNT(*) FILTER (WHERE status = 'pending'),
	              COUNT(*) FILTER (WHERE status = 'confirmed'),
	              COUNT(*) FILTER (WHERE status = 'paid' AND created_at >= $1 AND created_at < $2),
	              COALESCE(SUM(total_amount) FILTER (WHERE status = 'paid' AND created_at >= $1 AND created_at < $2), 0)
	          FROM purchase_orders
	          WHERE ($3::BIGINT IS NULL OR staff_id = $3)`
	stats := &models.OrderStats{}
	err := r.db.QueryRowContext(ctx, query, monthStart, monthEnd, staffID).
		Scan(&stats.PendingOrders, &stats.ConfirmedOrders, &stats.PaidOrders, &stats.TotalValue)
	if err != nil {
		return nil, fmt.Errorf("%w: computing order stats: %v", ErrDatabaseError, err)
	}
	stats.TotalValue = stats.TotalValue.Round(2)
	return stats, nil
}

var analyticsLabels = map[string]string{
	"week":  `to_char(created_at, 'IYYY-"W"IW')`,
	"month": `to_char(created_at, 'YYYY-MM')`,
	"year":  `to_char(created_at, 'YYYY')`,
}

// GetAnalytics returns the overall summary plus the most recent buckets
// for the given period, oldest first.
func (r *orderRepository) GetAnalytics(ctx context.Context, period string, buckets int) (*models.OrderAnalytics, error) {
	label, ok := analyticsLabels[period]
	if !ok {
		return nil, fmt.Errorf("unsupported analytics period %q", period)
	}

	result := &models.OrderAnalytics{Period: period, Data: []models.AnalyticsBucket{}}
	summaryQuery := `SELECT COUNT(*),
	                        COUNT(*) FILTER (WHERE status = 'pending'),
	                        COUNT(*) FILTER (WHERE status = 'paid'),
	                        COALESCE(SUM(total_amount) FILTER (WHERE status = 'paid'), 0)
	                 FROM purchase_orders`
	err := r.db.QueryRowContext(ctx, summaryQuery).Scan(
		&result.Summary.TotalOrders, &result.Summary.PendingOrders,
		&result.Summary.PaidOrders, &result.Summary.TotalSpent,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: computing analytics summary: %v", ErrDatabaseError, err)
	}

	bucketQuery := `SELECT * FROM (
	                    SELECT ` + label + ` AS period_label,
	                           COUNT(*),
	                           COALESCE(SUM(total_amount) FILTER (WHERE status = 'paid'), 0),
	                           COUNT(*) FILTER (WHERE status = 'pending'),
	                           COUNT(*) FILTER (WHERE status = 'paid')
	                    FROM purchase_orders
	                    GROUP BY period_label
	                    ORDER BY period_label DESC
	                    LIMIT $1
	                ) recent ORDER BY period_label ASC`
	rows, err := r.db.QueryContext(ctx, bucketQuery, buckets)
	if err != nil {
		return nil, fmt.Errorf("%w: querying analytics buckets: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.AnalyticsBucket
		var spent decimal.Decimal
		if err := rows.Scan(&b.PeriodLabel, &b.TotalOrders, &spent, &b.PendingOrders, &b.PaidOrders); err != nil {
			return nil, fmt.Errorf("%w: scanning analytics bucket: %v", ErrDatabaseError, err)
		}
		b.TotalSpent = spent
		result.Data = append(result.Data, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating analytics buckets: %v", ErrDatabaseError, err)
	}
	return result, nil
}

// paidLinesFrom and paidInWindow select the lines of paid orders. An order counts on its
// paid date, or on its creation date when the paid date is missing.
const (
	paidLinesFrom = ` FROM purchase_orders o
	JOIN purchase_order_lines l ON l.order_id = o.id`
	paidInWindow = ` WHERE o.status = 'paid'
	  AND COALESCE(o.paid_date, o.created_at) BETWEEN $1 AND $2`
)

// GetCategorySpending sums paid line cost per category, highest spend first.
func (r *orderRepository) GetCategorySpending(ctx context.Context, from, to time.Time) ([]models.CategorySpending, error) {
	query := `SELECT c.id, c.name, SUM(l.quantity * l.unit_cost) AS spent, COUNT(DISTINCT o.id)` + paidLinesFrom + `
	          JOIN products p ON p.id = l.product_id
	          JOIN categories c ON c.id = p.category_id` + paidInWindow + `
	          GROUP BY c.id, c.name
	          ORDER BY spent DESC, c.id ASC`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying category spending: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.CategorySpending{}
	for rows.Next() {
		var cs models.CategorySpending
		if err := rows.Scan(&cs.CategoryID, &cs.CategoryName, &cs.TotalSpent, &cs.OrderCount); err != nil {
			return nil, fmt.Errorf("%w: scanning category spending: %v", ErrDatabaseError, err)
		}
		cs.TotalSpent = cs.TotalSpent.Round(2)
		result = append(result, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating category spending: %v", ErrDatabaseError, err)
	}
	return result, nil
}

// GetMonthlySpending returns paid spend per calendar month, oldest first.
// Months without paid orders are omitted.
func (r *orderRepository) GetMonthlySpending(ctx context.Context, from, to time.Time) ([]models.MonthlySpending, error) {
	query := `SELECT date_trunc('month', COALESCE(o.paid_date, o.created_at)) AS month_start,
	                 SUM(l.quantity * l.unit_cost), COUNT(DISTINCT o.id)` + paidLinesFrom + paidInWindow + `
	          GROUP BY month_start
	          ORDER BY month_start ASC`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying monthly spending: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.MonthlySpending{}
	for rows.Next() {
		var monthStart time.Time
		var spent decimal.Decimal
		var orders int
		if err := rows.Scan(&monthStart, &spent, &orders); err != nil {
			return nil, fmt.Errorf("%w: scanning monthly spending: %v", ErrDatabaseError, err)
		}
		ms := models.NewMonthlySpending(monthStart)
		ms.TotalSpent = spent.Round(2)
		ms.OrderCount = orders
		result = append(result, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating monthly spending: %v", ErrDatabaseError, err)
	}
	return result, nil
}
