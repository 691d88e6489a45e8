package models

import "time"

// Units a product can be counted in.
const (
	UnitLiter    = "liter"
	UnitKilogram = "kilogram"
	UnitBox      = "box"
	UnitPiece    = "piece"
	UnitMeter    = "meter"
	UnitPack     = "pack"
)

// IsValidUnit reports whether u is one of the known units of measure.
func IsValidUnit(u string) bool {
	switch u {
	case UnitLiter, UnitKilogram, UnitBox, UnitPiece, UnitMeter, UnitPack:
		return true
	}
	return false
}

type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Image       *string   `json:"image,omitempty" db:"image"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Product is an inventory ledger entry. CurrentStock is the live on-hand count.
type Product struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Barcode      *string   `json:"barcode,omitempty" db:"barcode"`
	Unit         string    `json:"unit" db:"unit"`
	CategoryID   int64     `json:"categoryId" db:"category_id"`
	ImageURL     *string   `json:"imageUrl,omitempty" db:"image_url"`
	CurrentStock int       `json:"currentStock" db:"current_stock"`
	MinQty       int       `json:"minQty" db:"min_qty"`
	MaxQty       int       `json:"maxQty" db:"max_qty"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	Category     *Category `json:"category,omitempty"`
}

// ProductFilters holds the optional criteria of the product listing.
type ProductFilters struct {
	Name       string
	CategoryID *int64
	SortBy     string
	Order      string
	Page       int
	Limit      int
}

// Low stock urgency levels.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
)

type LowStockSummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Total    int `json:"total"`
}

// LowStockReport groups products under their minimum quantity by urgency.
type LowStockReport struct {
	Summary  LowStockSummary `json:"summary"`
	Critical []Product       `json:"critical"`
	High     []Product       `json:"high"`
	Medium   []Product       `json:"medium"`
}

// ExpiringLine is an active purchase order line whose expiration date is near.
type ExpiringLine struct {
	LineID            int64     `json:"lineId"`
	OrderID           int64     `json:"orderId"`
	OrderNumber       string    `json:"orderNumber"`
	ProductID         int64     `json:"productId"`
	ProductName       string    `json:"productName"`
	RemainingQuantity int       `json:"remainingQuantity"`
	ExpirationDate    time.Time `json:"expirationDate"`
	DaysLeft          int       `json:"daysLeft"`
}

// Stock movement kinds.
const (
	MovementTypePurchase   = "purchase"
	MovementTypeExpiration = "expiration"
	MovementTypeAdjustment = "adjustment"
)

// StockMovement records one change of a product's current stock.
type StockMovement struct {
	ID              int64     `json:"id" db:"id"`
	ProductID       int64     `json:"productId" db:"product_id"`
	StaffID         *int64    `json:"staffId,omitempty" db:"staff_id"`
	MovementType    string    `json:"movementType" db:"movement_type"`
	QuantityChanged int       `json:"quantityChanged" db:"quantity_changed"`
	StockAfter      int       `json:"stockAfter" db:"stock_after"`
	OrderLineID     *int64    `json:"orderLineId,omitempty" db:"order_line_id"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	StaffName       *string   `json:"staffName,omitempty"`
}
