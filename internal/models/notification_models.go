package models

import "time"

type NotificationType string

const (
	NotificationLowStock      NotificationType = "low_stock"
	NotificationBudgetAlert   NotificationType = "budget_alert"
	NotificationExpiryWarning NotificationType = "expiry_warning"
	NotificationCompletedTask NotificationType = "completed_task"
)

// Notification is an append-only event record. Only IsRead ever changes.
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	ActionURL *string          `json:"actionUrl,omitempty" db:"action_url"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}
