package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"purchase_manager_backend/internal/models"
)

type TaskRepository interface {
	ExistsTaskNumber(ctx context.Context, exec SQLExecutor, taskNumber string) (bool, error)
	CreateTask(ctx context.Context, exec SQLExecutor, task *models.Task) error
	CreateTaskItem(ctx context.Context, exec SQLExecutor, item *models.TaskItem) error
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	GetTaskItems(ctx context.Context, taskID int64) ([]models.TaskItem, error)
	ListTasks(ctx context.Context, filters models.TaskFilters) ([]models.Task, int, error)
	UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec == nil {
		return r.db
	}
	return exec
}

func (r *taskRepository) ExistsTaskNumber(ctx context.Context, exec SQLExecutor, taskNumber string) (bool, error) {
	var exists bool
	err := r.executor(exec).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE task_number = $1)`, taskNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking task number %s: %v", ErrDatabaseError, taskNumber, err)
	}
	return exists, nil
}

func (r *taskRepository) CreateTask(ctx context.Context, exec SQLExecutor, task *models.Task) error {
	query := `INSERT INTO tasks (task_number, staff_id, deadline, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at, updated_at`
	err := r.executor(exec).QueryRowContext(ctx, query, task.TaskNumber, task.StaffID, task.Deadline, task.Status).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "creating task")
	}
	return nil
}

func (r *taskRepository) CreateTaskItem(ctx context.Context, exec SQLExecutor, item *models.TaskItem) error {
	query := `INSERT INTO task_items (task_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id`
	err := r.executor(exec).QueryRowContext(ctx, query, item.TaskID, item.ProductID, item.Quantity).Scan(&item.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("creating task item for product %d", item.ProductID))
	}
	return nil
}

const taskColumns = `t.id, t.task_number, t.staff_id, t.deadline, t.status, t.created_at, t.updated_at, u.fullname, u.email`

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	var staffName, staffEmail sql.NullString
	dest := []interface{}{&t.ID, &t.TaskNumber, &t.StaffID, &t.Deadline, &t.Status, &t.CreatedAt, &t.UpdatedAt, &staffName, &staffEmail}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if staffName.Valid {
		t.Staff = &models.User{ID: t.StaffID, Fullname: staffName.String, Email: staffEmail.String}
	}
	t.Items = []models.TaskItem{}
	return t, nil
}

func (r *taskRepository) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t LEFT JOIN users u ON u.id = t.staff_id WHERE t.id = $1`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting task by ID %d: %v", ErrDatabaseError, id, err)
	}
	return t, nil
}

func (r *taskRepository) GetTaskItems(ctx context.Context, taskID int64) ([]models.TaskItem, error) {
	query := `SELECT ti.id, ti.task_id, ti.product_id, ti.quantity, p.name, p.unit, p.current_stock
	          FROM task_items ti
	          LEFT JOIN products p ON p.id = ti.product_id
	          WHERE ti.task_id = $1
	          ORDER BY ti.id`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying items of task %d: %v", ErrDatabaseError, taskID, err)
	}
	defer rows.Close()

	items := []models.TaskItem{}
	for rows.Next() {
		var it models.TaskItem
		var name, unit sql.NullString
		var stock sql.NullInt64
		if err := rows.Scan(&it.ID, &it.TaskID, &it.ProductID, &it.Quantity, &name, &unit, &stock); err != nil {
			return nil, fmt.Errorf("%w: scanning task item: %v", ErrDatabaseError, err)
		}
		if name.Valid {
			it.Product = &models.Product{ID: it.ProductID, Name: name.String, Unit: unit.String, CurrentStock: int(stock.Int64)}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating task items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

var taskSortColumns = map[string]string{
	"createdAt":  "t.created_at",
	"deadline":   "t.deadline",
	"taskNumber": "t.task_number",
	"status":     "t.status",
}

func (r *taskRepository) ListTasks(ctx context.Context, filters models.TaskFilters) ([]models.Task, int, error) {
	qb := &queryBuilder{}
	if filters.TaskNumber != "" {
		qb.add("t.task_number ILIKE $%d", "%"+escapeLike(filters.TaskNumber)+"%")
	}
	if filters.StaffID != nil {
		qb.add("t.staff_id = $%d", *filters.StaffID)
	}
	if filters.Status != "" {
		qb.add("t.status = $%d", string(filters.Status))
	}

	const from = ` FROM tasks t LEFT JOIN users u ON u.id = t.staff_id`
	total, err := qb.count(ctx, r.db, from)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting tasks: %v", ErrDatabaseError, err)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + from)
	sb.WriteString(qb.where())
	sb.WriteString(orderClause(filters.SortBy, filters.Order, taskSortColumns, "t.created_at", "t.id"))
	sb.WriteString(qb.paginate(filters.Page, filters.Limit))

	rows, err := r.db.QueryContext(ctx, sb.String(), qb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying tasks: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning task: %v", ErrDatabaseError, err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating task rows: %v", ErrDatabaseError, err)
	}
	return tasks, total, nil
}

func (r *taskRepository) UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%w: updating status of task %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, "task status update")
}
