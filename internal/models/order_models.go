package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the purchase order lifecycle state. It only moves forward.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
)

func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPending:
		return 1
	case OrderStatusConfirmed:
		return 2
	case OrderStatusPaid:
		return 3
	}
	return 0
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s.rank() > 0
}

// CanTransitionTo allows staying in place or moving forward, never backward.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

// PurchaseOrderLine is one purchased batch of a product.
// Quantity never changes; RemainingQuantity drops to zero when the batch expires.
type PurchaseOrderLine struct {
	ID                int64           `json:"id" db:"id"`
	OrderID           int64           `json:"orderId" db:"order_id"`
	ProductID         int64           `json:"productId" db:"product_id"`
	Quantity          int             `json:"quantity" db:"quantity"`
	UnitCost          decimal.Decimal `json:"unitCost" db:"unit_cost"`
	ExpirationDate    *time.Time      `json:"expirationDate,omitempty" db:"expiration_date"`
	RemainingQuantity int             `json:"remainingQuantity" db:"remaining_quantity"`
	IsExpired         bool            `json:"isExpired" db:"is_expired"`
	ExpiredQuantity   int             `json:"expiredQuantity" db:"expired_quantity"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
	Product           *Product        `json:"product,omitempty"`
}

// PurchaseOrder aggregates lines bought from one supplier.
// TotalAmount is a snapshot taken at creation.
type PurchaseOrder struct {
	ID          int64               `json:"id" db:"id"`
	OrderNumber string              `json:"orderNumber" db:"order_number"`
	SupplierID  int64               `json:"supplierId" db:"supplier_id"`
	StaffID     int64               `json:"staffId" db:"staff_id"`
	Status      OrderStatus         `json:"status" db:"status"`
	TotalAmount decimal.Decimal     `json:"totalAmount" db:"total_amount"`
	Attachment  *string             `json:"attachment,omitempty" db:"attachment"`
	PaidDate    *time.Time          `json:"paidDate,omitempty" db:"paid_date"`
	Notes       *string             `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time           `json:"updatedAt" db:"updated_at"`
	Items       []PurchaseOrderLine `json:"items"`
	Supplier    *Supplier           `json:"supplier,omitempty"`
	Staff       *User               `json:"staff,omitempty"`
}

// OrderFilters are the optional criteria of the order listing.
// Zero values mean "not filtered".
type OrderFilters struct {
	OrderNumber string
	StaffID     *int64
	Status      OrderStatus
	SupplierIDs []int64
	SortBy      string
	Order       string
	Page        int
	Limit       int
}

// OrderStats is the dashboard counter block.
type OrderStats struct {
	PendingOrders   int             `json:"pendingOrders"`
	ConfirmedOrders int             `json:"confirmedOrders"`
	PaidOrders      int             `json:"paidOrders"`
	TotalValue      decimal.Decimal `json:"totalValue"`
}

type AnalyticsSummary struct {
	TotalOrders   int             `json:"totalOrders"`
	PendingOrders int             `json:"pendingOrders"`
	PaidOrders    int             `json:"paidOrders"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
}

type AnalyticsBucket struct {
	PeriodLabel   string          `json:"periodLabel"`
	TotalOrders   int             `json:"totalOrders"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	PendingOrders int             `json:"pendingOrders"`
	PaidOrders    int             `json:"paidOrders"`
}

// OrderAnalytics is the response of the analytics endpoint, buckets oldest first.
type OrderAnalytics struct {
	Summary AnalyticsSummary  `json:"summary"`
	Period  string            `json:"period"`
	Data    []AnalyticsBucket `json:"data"`
}

// CategorySpending is the paid spend attributed to one category.
type CategorySpending struct {
	CategoryID   int64           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	OrderCount   int             `json:"orderCount"`
}

type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// CategoryAnalytics lists category spend over a window, highest spend first.
type CategoryAnalytics struct {
	Period    string             `json:"period"`
	DateRange DateRange          `json:"dateRange"`
	Data      []CategorySpending `json:"data"`
}

// MonthlySpending is the paid spend of one calendar month. Period is "YYYY-MM".
type MonthlySpending struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	MonthName  string          `json:"monthName"`
	Period     string          `json:"period"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	OrderCount int             `json:"orderCount"`
}

type MonthlySummary struct {
	TotalSpent             decimal.Decimal  `json:"totalSpent"`
	AverageMonthlySpending decimal.Decimal  `json:"averageMonthlySpending"`
	HighestSpendingMonth   *MonthlySpending `json:"highestSpendingMonth"`
}

// MonthlyAnalytics has one entry per month in the window, oldest first,
// with zero entries for months without paid orders.
type MonthlyAnalytics struct {
	Months    int               `json:"months"`
	DateRange DateRange         `json:"dateRange"`
	Data      []MonthlySpending `json:"data"`
	Summary   MonthlySummary    `json:"summary"`
}

// NewMonthlySpending builds an empty entry for the month containing t.
func NewMonthlySpending(t time.Time) MonthlySpending {
	return MonthlySpending{
		Year:       t.Year(),
		Month:      int(t.Month()),
		MonthName:  t.Month().String(),
		Period:     t.Format("2006-01"),
		TotalSpent: decimal.Zero,
	}
}
