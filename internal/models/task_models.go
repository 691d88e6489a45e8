package models

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCanceled  TaskStatus = "canceled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusCanceled:
		return true
	}
	return false
}

type TaskItem struct {
	ID        int64    `json:"id" db:"id"`
	TaskID    int64    `json:"taskId" db:"task_id"`
	ProductID int64    `json:"productId" db:"product_id"`
	Quantity  int      `json:"quantity" db:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

// Task is a restocking assignment given to a staff member.
type Task struct {
	ID         int64      `json:"id" db:"id"`
	TaskNumber string     `json:"taskNumber" db:"task_number"`
	StaffID    int64      `json:"staffId" db:"staff_id"`
	Deadline   time.Time  `json:"deadline" db:"deadline"`
	Status     TaskStatus `json:"status" db:"status"`
	Items      []TaskItem `json:"items"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
	Staff      *User      `json:"staff,omitempty"`
}

type TaskFilters struct {
	TaskNumber string
	StaffID    *int64
	Status     TaskStatus
	SortBy     string
	Order      string
	Page       int
	Limit      int
}
