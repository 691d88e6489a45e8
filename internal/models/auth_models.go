package models

import "time"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is a back-office account. Staff members and admins share the table.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Fullname     string    `json:"fullname" db:"fullname"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Address      *string   `json:"address,omitempty" db:"address"`
	Avatar       *string   `json:"avatar,omitempty" db:"avatar"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// StaffFilters narrows the admin staff listing.
type StaffFilters struct {
	Name   string
	Status string // active | inactive
	Page   int
	Limit  int
}
