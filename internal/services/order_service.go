package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/repositories"
	"purchase_manager_backend/pkg/utils"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidOrderStatus      = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("order status cannot move backward")
	ErrOrderNumberExhausted    = errors.New("could not generate a unique order number")
	ErrInvalidPeriod           = errors.New("Invalid period. Use 'week', 'month', or 'year'")
	ErrInvalidSpendingPeriod   = errors.New("Invalid period. Use 'week', 'month', '6month', or 'year'")
	ErrInvalidMonths           = errors.New("Invalid months parameter. Use 6 or 12")
)

const (
	maxOrderNumberAttempts = 5
	defaultOrderLimit      = 10
)

// analyticsBuckets is the number of periods shown per analytics granularity.
var analyticsBuckets = map[string]int{
	"week":  8,
	"month": 12,
	"year":  5,
}

// spendingWindows maps a category analytics period to its look-back window.
var spendingWindows = map[string]func(time.Time) time.Time{
	"week":   func(t time.Time) time.Time { return t.AddDate(0, 0, -7) },
	"month":  func(t time.Time) time.Time { return t.AddDate(0, -1, 0) },
	"6month": func(t time.Time) time.Time { return t.AddDate(0, -6, 0) },
	"year":   func(t time.Time) time.Time { return t.AddDate(-1, 0, 0) },
}

// --- DTOs ---

type CreateOrderItemRequest struct {
	ProductID      int64           `json:"productId" binding:"required"`
	Quantity       int             `json:"quantity" binding:"required,gt=0"`
	UnitCost       decimal.Decimal `json:"unitCost" binding:"gte=0"`
	ExpirationDate *time.Time      `json:"expirationDate"`
}

type CreateOrderRequest struct {
	SupplierID int64                    `json:"supplierId" binding:"required"`
	Notes      *string                  `json:"notes"`
	Items      []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	Status string `json:"status"`
}

type OrderPage struct {
	Orders []models.PurchaseOrder `json:"orders"`
	Total  int                    `json:"total"`
	Pages  int                    `json:"pages"`
}

// --- OrderService Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest, attachment *string) (*models.PurchaseOrder, error)
	GetOrder(ctx context.Context, actor Actor, id int64) (*models.PurchaseOrder, error)
	ListOrders(ctx context.Context, actor Actor, filters models.OrderFilters) (*OrderPage, error)
	UpdateOrder(ctx context.Context, actor Actor, id int64, req UpdateOrderRequest, attachment *string) (*models.PurchaseOrder, error)
	Stats(ctx context.Context, actor Actor) (*models.OrderStats, error)
	Analytics(ctx context.Context, period string) (*models.OrderAnalytics, error)
	CategoryAnalytics(ctx context.Context, period string) (*models.CategoryAnalytics, error)
	MonthlyAnalytics(ctx context.Context, months int) (*models.MonthlyAnalytics, error)
	Export(ctx context.Context, actor Actor, filters models.OrderFilters, w io.Writer) error
}

// OrderOption customises an orderService.
type OrderOption func(*orderService)

// WithOrderClock replaces time.Now.
func WithOrderClock(c Clock) OrderOption {
	return func(s *orderService) { s.now = clockOrDefault(c) }
}

// WithOrderNumberSource replaces the random suffix generator. It receives n
// and must return a value in [0, n).
func WithOrderNumberSource(intN func(n int) int) OrderOption {
	return func(s *orderService) { s.intN = intN }
}

type orderService struct {
	orderRepo    repositories.OrderRepository
	productRepo  repositories.ProductRepository
	supplierRepo repositories.SupplierRepository
	movementRepo repositories.StockMovementRepository
	tx           repositories.Transactor
	now          Clock
	intN         func(n int) int
}

func NewOrderService(
	or repositories.OrderRepository,
	pr repositories.ProductRepository,
	sr repositories.SupplierRepository,
	mr repositories.StockMovementRepository,
	tx repositories.Transactor,
	opts ...OrderOption,
) OrderService {
	s := &orderService{
		orderRepo:    or,
		productRepo:  pr,
		supplierRepo: sr,
		movementRepo: mr,
		tx:           tx,
		now:          time.Now,
		intN:         rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Method Implementations ---

func validateOrderItems(items []CreateOrderItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for i, item := range items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: item %d: productId is required", ErrValidation, i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be greater than 0", ErrValidation, i+1)
		}
		if item.UnitCost.IsNegative() {
			return fmt.Errorf("%w: item %d: unitCost cannot be negative", ErrValidation, i+1)
		}
	}
	return nil
}

// OrderTotal sums quantity x unitCost over items, rounded to cents.
func OrderTotal(items []CreateOrderItemRequest) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

func (s *orderService) nextOrderNumber(ctx context.Context, exec repositories.SQLExecutor) (string, error) {
	day := s.now().Format("20060102")
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		candidate := fmt.Sprintf("ORD-%s-%04d", day, 1000+s.intN(9000))
		exists, err := s.orderRepo.ExistsOrderNumber(ctx, exec, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check order number %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		utils.LogDebug("Order number collision, retrying", map[string]interface{}{"order_number": candidate})
	}
	return "", ErrOrderNumberExhausted
}

func (s *orderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest, attachment *string) (*models.PurchaseOrder, error) {
	if err := validateOrderItems(req.Items); err != nil {
		return nil, err
	}
	if _, err := s.supplierRepo.GetSupplierByID(ctx, req.SupplierID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to load supplier %d: %w", req.SupplierID, err)
	}

	order := &models.PurchaseOrder{
		SupplierID:  req.SupplierID,
		StaffID:     actor.UserID,
		Status:      models.OrderStatusPending,
		TotalAmount: OrderTotal(req.Items),
		Attachment:  attachment,
		Notes:       req.Notes,
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		number, err := s.nextOrderNumber(ctx, exec)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		if err := s.orderRepo.CreateOrder(ctx, exec, order); err != nil {
			return fmt.Errorf("failed to create order record: %w", err)
		}

		for _, item := range req.Items {
			stock, err := s.productRepo.AdjustStock(ctx, exec, item.ProductID, item.Quantity)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
				}
				return fmt.Errorf("failed to add stock for product %d: %w", item.ProductID, err)
			}

			line := &models.PurchaseOrderLine{
				OrderID:           order.ID,
				ProductID:         item.ProductID,
				Quantity:          item.Quantity,
				UnitCost:          item.UnitCost,
				ExpirationDate:    item.ExpirationDate,
				RemainingQuantity: item.Quantity,
			}
			if err := s.orderRepo.CreateOrderLine(ctx, exec, line); err != nil {
				return fmt.Errorf("failed to create line for product %d: %w", item.ProductID, err)
			}

			staffID := actor.UserID
			movement := &models.StockMovement{
				ProductID:       item.ProductID,
				StaffID:         &staffID,
				MovementType:    models.MovementTypePurchase,
				QuantityChanged: item.Quantity,
				StockAfter:      stock,
				OrderLineID:     &line.ID,
				Reason:          utils.NewNullString("Purchase order " + order.OrderNumber),
			}
			if err := s.movementRepo.CreateMovement(ctx, exec, movement); err != nil {
				return fmt.Errorf("failed to record purchase of product %d: %w", item.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Purchase order created", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"items":        len(req.Items),
		"total":        order.TotalAmount.StringFixed(2),
	})
	return s.GetOrder(ctx, actor, order.ID)
}

func (s *orderService) GetOrder(ctx context.Context, actor Actor, id int64) (*models.PurchaseOrder, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	// Orders of other staff members look like missing ones.
	if !actor.IsAdmin() && order.StaffID != actor.UserID {
		return nil, ErrOrderNotFound
	}

	lines, err := s.orderRepo.GetOrderLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines of order %d: %w", id, err)
	}
	order.Items = lines
	return order, nil
}

func (s *orderService) scopeFilters(actor Actor, filters models.OrderFilters) (models.OrderFilters, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return filters, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, filters.Status)
	}
	if !actor.IsAdmin() {
		staffID := actor.UserID
		filters.StaffID = &staffID
	}
	return filters, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor Actor, filters models.OrderFilters) (*OrderPage, error) {
	page, limit, err := normalizePage(filters.Page, filters.Limit, defaultOrderLimit)
	if err != nil {
		return nil, err
	}
	filters.Page, filters.Limit = page, limit
	if filters, err = s.scopeFilters(actor, filters); err != nil {
		return nil, err
	}

	orders, total, err := s.orderRepo.ListOrders(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &OrderPage{Orders: orders, Total: total, Pages: utils.TotalPages(total, limit)}, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, actor Actor, id int64, req UpdateOrderRequest, attachment *string) (*models.PurchaseOrder, error) {
	var next models.OrderStatus
	if req.Status != "" {
		next = models.OrderStatus(req.Status)
		if !next.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, req.Status)
		}
	}

	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if next != "" {
		if !order.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, next)
		}
		if next == models.OrderStatusPaid && order.Status != models.OrderStatusPaid {
			paid := s.now()
			order.PaidDate = &paid
		}
		order.Status = next
	}
	if attachment != nil {
		order.Attachment = attachment
	}

	if err := s.orderRepo.UpdateOrder(ctx, nil, order); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	utils.LogInfo("Purchase order updated", map[string]interface{}{"order_id": id, "status": order.Status})
	return s.GetOrder(ctx, actor, id)
}

// MonthWindow returns the first instant of t's calendar month and of the next one.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

func (s *orderService) Stats(ctx context.Context, actor Actor) (*models.OrderStats, error) {
	var staffID *int64
	if !actor.IsAdmin() {
		id := actor.UserID
		staffID = &id
	}
	start, end := MonthWindow(s.now())
	stats, err := s.orderRepo.GetStats(ctx, staffID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order stats: %w", err)
	}
	return stats, nil
}

func (s *orderService) Analytics(ctx context.Context, period string) (*models.OrderAnalytics, error) {
	buckets, ok := analyticsBuckets[period]
	if !ok {
		return nil, ErrInvalidPeriod
	}
	analytics, err := s.orderRepo.GetAnalytics(ctx, period, buckets)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s analytics: %w", period, err)
	}
	return analytics, nil
}

func (s *orderService) CategoryAnalytics(ctx context.Context, period string) (*models.CategoryAnalytics, error) {
	window, ok := spendingWindows[period]
	if !ok {
		return nil, ErrInvalidSpendingPeriod
	}
	now := s.now()
	start := window(now)
	data, err := s.orderRepo.GetCategorySpending(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category spending: %w", err)
	}
	return &models.CategoryAnalytics{
		Period:    period,
		DateRange: models.DateRange{StartDate: start, EndDate: now},
		Data:      data,
	}, nil
}

// MonthlyAnalytics covers the current month and the preceding months,
// starting on the first day of the month months ago.
func (s *orderService) MonthlyAnalytics(ctx context.Context, months int) (*models.MonthlyAnalytics, error) {
	if months != 6 && months != 12 {
		return nil, ErrInvalidMonths
	}
	now := s.now()
	start, _ := MonthWindow(now.AddDate(0, -months, 0))
	found, err := s.orderRepo.GetMonthlySpending(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly spending: %w", err)
	}

	byPeriod := make(map[string]models.MonthlySpending, len(found))
	for _, m := range found {
		byPeriod[m.Period] = m
	}
	result := &models.MonthlyAnalytics{
		Months:    months,
		DateRange: models.DateRange{StartDate: start, EndDate: now},
		Data:      []models.MonthlySpending{},
	}
	total := decimal.Zero
	for month := start; !month.After(now); month = month.AddDate(0, 1, 0) {
		entry := models.NewMonthlySpending(month)
		if m, ok := byPeriod[entry.Period]; ok {
			entry = m
		}
		total = total.Add(entry.TotalSpent)
		result.Data = append(result.Data, entry)
	}

	result.Summary.TotalSpent = total.Round(2)
	result.Summary.AverageMonthlySpending = total.Div(decimal.NewFromInt(int64(len(result.Data)))).Round(2)
	for i := range result.Data {
		if result.Summary.HighestSpendingMonth == nil || result.Data[i].TotalSpent.GreaterThan(result.Summary.HighestSpendingMonth.TotalSpent) {
			highest := result.Data[i]
			result.Summary.HighestSpendingMonth = &highest
		}
	}
	return result, nil
}
