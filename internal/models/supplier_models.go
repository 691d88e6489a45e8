package models

import "time"

type Supplier struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	ContactPerson *string   `json:"contactPerson,omitempty" db:"contact_person"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone" db:"phone"`
	Address       *string   `json:"address,omitempty" db:"address"`
	CategoryIDs   []int64   `json:"categoryIds" db:"category_ids"`
	Image         *string   `json:"image,omitempty" db:"image"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	IsActive      bool      `json:"isActive" db:"is_active"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type SupplierFilters struct {
	Name        string
	Status      string // active | inactive
	CategoryIDs []int64
	SortBy      string
	Order       string
	Page        int
	Limit       int
}
