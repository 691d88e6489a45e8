package services

import (
	"errors"
	"fmt"
	"time"

	"purchase_manager_backend/internal/models"
)

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
)

// Actor is the authenticated caller of a service method.
type Actor struct {
	UserID int64
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// normalizePage applies the listing defaults and rejects values below 1.
func normalizePage(page, limit, defaultLimit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if page < 1 || limit < 1 {
		return 0, 0, fmt.Errorf("%w: Page and limit must be greater than 0", ErrValidation)
	}
	return page, limit, nil
}
