package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/repositories"
	"purchase_manager_backend/pkg/utils"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrInvalidTaskStatus   = errors.New("invalid task status")
	ErrTaskClosed          = errors.New("task is already closed")
	ErrTaskNumberExhausted = errors.New("could not generate a unique task number")
)

const defaultTaskLimit = 10

type TaskItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gte=1"`
}

type CreateTaskRequest struct {
	StaffID  int64             `json:"staffId" binding:"required"`
	Items    []TaskItemRequest `json:"items" binding:"required,min=1,dive"`
	Deadline time.Time         `json:"deadline" binding:"required"`
}

type UpdateTaskRequest struct {
	Status string `json:"status" binding:"required"`
}

type TaskPage struct {
	Tasks []models.Task `json:"tasks"`
	Total int           `json:"total"`
	Pages int           `json:"pages"`
}

type TaskService interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error)
	GetTask(ctx context.Context, actor Actor, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, actor Actor, filters models.TaskFilters) (*TaskPage, error)
	UpdateTaskStatus(ctx context.Context, actor Actor, id int64, req UpdateTaskRequest) (*models.Task, error)
}

type taskService struct {
	taskRepo      repositories.TaskRepository
	userRepo      repositories.AuthRepository
	productRepo   repositories.ProductRepository
	notifications NotificationService
	tx            repositories.Transactor
	now           Clock
}

func NewTaskService(
	tr repositories.TaskRepository,
	ur repositories.AuthRepository,
	pr repositories.ProductRepository,
	ns NotificationService,
	tx repositories.Transactor,
	now Clock,
) TaskService {
	return &taskService{
		taskRepo:      tr,
		userRepo:      ur,
		productRepo:   pr,
		notifications: ns,
		tx:            tx,
		now:           clockOrDefault(now),
	}
}

func (s *taskService) nextTaskNumber(ctx context.Context, exec repositories.SQLExecutor) (string, error) {
	day := s.now().Format("20060102")
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		candidate := fmt.Sprintf("TSK-%s-%04d", day, 1000+rand.IntN(9000))
		exists, err := s.taskRepo.ExistsTaskNumber(ctx, exec, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrTaskNumberExhausted
}

func (s *taskService) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	if req.Deadline.IsZero() {
		return nil, fmt.Errorf("%w: deadline is required", ErrValidation)
	}
	staff, err := s.userRepo.FindUserByID(ctx, req.StaffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to load staff member %d: %w", req.StaffID, err)
	}
	if staff.Role != models.RoleStaff || !staff.IsActive {
		return nil, fmt.Errorf("%w: tasks can only be assigned to active staff members", ErrValidation)
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		if _, err := s.productRepo.GetProductByID(ctx, nil, item.ProductID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
			}
			return nil, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
		}
	}

	task := &models.Task{StaffID: req.StaffID, Deadline: req.Deadline, Status: models.TaskStatusPending}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		number, err := s.nextTaskNumber(ctx, exec)
		if err != nil {
			return err
		}
		task.TaskNumber = number
		if err := s.taskRepo.CreateTask(ctx, exec, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		for _, item := range req.Items {
			ti := &models.TaskItem{TaskID: task.ID, ProductID: item.ProductID, Quantity: item.Quantity}
			if err := s.taskRepo.CreateTaskItem(ctx, exec, ti); err != nil {
				return fmt.Errorf("failed to create task item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Task created", map[string]interface{}{"task_id": task.ID, "task_number": task.TaskNumber, "staff_id": task.StaffID})
	return s.GetTask(ctx, Actor{Role: models.RoleAdmin}, task.ID)
}

func (s *taskService) GetTask(ctx context.Context, actor Actor, id int64) (*models.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	if !actor.IsAdmin() && task.StaffID != actor.UserID {
		return nil, ErrForbidden
	}
	items, err := s.taskRepo.GetTaskItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get items of task %d: %w", id, err)
	}
	task.Items = items
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, actor Actor, filters models.TaskFilters) (*TaskPage, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTaskStatus, filters.Status)
	}
	page, limit, err := normalizePage(filters.Page, filters.Limit, defaultTaskLimit)
	if err != nil {
		return nil, err
	}
	filters.Page, filters.Limit = page, limit
	if !actor.IsAdmin() {
		staffID := actor.UserID
		filters.StaffID = &staffID
	}

	tasks, total, err := s.taskRepo.ListTasks(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return &TaskPage{Tasks: tasks, Total: total, Pages: utils.TotalPages(total, limit)}, nil
}

func (s *taskService) UpdateTaskStatus(ctx context.Context, actor Actor, id int64, req UpdateTaskRequest) (*models.Task, error) {
	status := models.TaskStatus(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTaskStatus, req.Status)
	}
	task, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if status == models.TaskStatusCanceled && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if task.Status != models.TaskStatusPending {
		return nil, fmt.Errorf("%w: %s", ErrTaskClosed, task.Status)
	}
	if status == task.Status {
		return task, nil
	}

	if err := s.taskRepo.UpdateTaskStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task %d: %w", id, err)
	}

	if status == models.TaskStatusCompleted && task.StaffID == actor.UserID {
		staffName := "A staff member"
		if task.Staff != nil {
			staffName = task.Staff.Fullname
		}
		if _, err := s.notifications.Push(ctx, nil, models.NotificationCompletedTask,
			"Task Completed",
			fmt.Sprintf("%s completed task %s", staffName, task.TaskNumber),
			s.notifications.TaskURL(task.ID),
		); err != nil {
			utils.LogError(err, "TaskService: failed to push completion notification", map[string]interface{}{"task_id": id})
		}
	}
	utils.LogInfo("Task status updated", map[string]interface{}{"task_id": id, "status": status})
	return s.GetTask(ctx, actor, id)
}
