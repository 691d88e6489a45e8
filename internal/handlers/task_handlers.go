package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/services"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(ts services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: ts}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req services.CreateTaskRequest
	if !bindPayload(c, &req) {
		return
	}
	task, err := h.taskService.CreateTask(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateTask: Error from taskService.CreateTask")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully", "task": task})
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	filters := models.TaskFilters{
		TaskNumber: c.Query("taskNumber"),
		Status:     models.TaskStatus(c.Query("status")),
		SortBy:     c.Query("sortBy"),
		Order:      c.Query("order"),
	}
	var ok bool
	if filters.StaffID, ok = queryInt64Ptr(c, "staffId"); !ok {
		return
	}
	if filters.Page, ok = queryInt(c, "page"); !ok {
		return
	}
	if filters.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}

	page, err := h.taskService.ListTasks(c.Request.Context(), actorFromContext(c), filters)
	if err != nil {
		respondServiceError(c, err, "GetTasks: Error from taskService.ListTasks")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := idParam(c, "taskId")
	if !ok {
		return
	}
	task, err := h.taskService.GetTask(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondServiceError(c, err, "GetTaskByID: Error from taskService.GetTask")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := idParam(c, "taskId")
	if !ok {
		return
	}
	var req services.UpdateTaskRequest
	if !bindPayload(c, &req) {
		return
	}
	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateTask: Error from taskService.UpdateTaskStatus")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully", "task": task})
}
