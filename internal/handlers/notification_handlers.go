package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(ns services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	result, err := h.notificationService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondServiceError(c, err, "GetNotifications: Error from notificationService.List")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := idParam(c, "notificationId")
	if !ok {
		return
	}
	notification, err := h.notificationService.MarkRead(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "MarkNotificationRead: Error from notificationService.MarkRead")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read", "notification": notification})
}

func (h *NotificationHandler) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := h.notificationService.MarkAllRead(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "MarkAllNotificationsRead: Error from notificationService.MarkAllRead")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": updated})
}
