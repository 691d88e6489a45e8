package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
)

// StaffHandler serves the admin staff directory.
type StaffHandler struct {
	staffService services.StaffService
	store        storage.Store
}

func NewStaffHandler(ss services.StaffService, store storage.Store) *StaffHandler {
	return &StaffHandler{staffService: ss, store: store}
}

func (h *StaffHandler) CreateStaffMember(c *gin.Context) {
	var req services.CreateStaffRequest
	if !bindPayload(c, &req) {
		return
	}
	avatar, ok := saveUpload(c, h.store, "avatars")
	if !ok {
		return
	}
	staff, err := h.staffService.CreateStaff(c.Request.Context(), req, avatar)
	if err != nil {
		discardUpload(c, h.store, avatar)
		respondServiceError(c, err, "CreateStaffMember: Error from staffService.CreateStaff")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Staff created successfully", "staff": staff})
}

// GetStaffMembers supports name, status (active|inactive), page and limit.
func (h *StaffHandler) GetStaffMembers(c *gin.Context) {
	filters := models.StaffFilters{
		Name:   c.Query("name"),
		Status: c.Query("status"),
	}
	var ok bool
	if filters.Page, ok = queryInt(c, "page"); !ok {
		return
	}
	if filters.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}

	page, err := h.staffService.ListStaff(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetStaffMembers: Error from staffService.ListStaff")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *StaffHandler) UpdateStaffMember(c *gin.Context) {
	id, ok := idParam(c, "staffId")
	if !ok {
		return
	}
	var req services.UpdateStaffRequest
	if !bindPayload(c, &req) {
		return
	}
	avatar, ok := saveUpload(c, h.store, "avatars")
	if !ok {
		return
	}
	staff, err := h.staffService.UpdateStaff(c.Request.Context(), id, req, avatar)
	if err != nil {
		discardUpload(c, h.store, avatar)
		respondServiceError(c, err, "UpdateStaffMember: Error from staffService.UpdateStaff")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff updated successfully", "staff": staff})
}
