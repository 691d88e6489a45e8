package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderHandler serves the purchase order endpoints.
type OrderHandler struct {
	orderService services.OrderService
	store        storage.Store
}

func NewOrderHandler(os services.OrderService, store storage.Store) *OrderHandler {
	return &OrderHandler{orderService: os, store: store}
}

// CreateOrder accepts JSON, or multipart with the JSON in "data" and an optional "image" attachment.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if !bindPayload(c, &req) {
		return
	}
	attachment, ok := saveUpload(c, h.store, "orders")
	if !ok {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actorFromContext(c), req, attachment)
	if err != nil {
		discardUpload(c, h.store, attachment)
		respondServiceError(c, err, "CreateOrder: Error from orderService.CreateOrder")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order": order})
}

// orderFilters reads the listing query shared by GetOrders and ExportOrders.
func orderFilters(c *gin.Context) (models.OrderFilters, bool) {
	filters := models.OrderFilters{
		OrderNumber: c.Query("orderNumber"),
		Status:      models.OrderStatus(c.Query("status")),
		SortBy:      c.Query("sortBy"),
		Order:       c.Query("order"),
	}
	var ok bool
	if filters.StaffID, ok = queryInt64Ptr(c, "staffId"); !ok {
		return filters, false
	}
	if filters.SupplierIDs, ok = queryIDList(c, "supplierIds"); !ok {
		return filters, false
	}
	if filters.Page, ok = queryInt(c, "page"); !ok {
		return filters, false
	}
	if filters.Limit, ok = queryInt(c, "limit"); !ok {
		return filters, false
	}
	return filters, true
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	filters, ok := orderFilters(c)
	if !ok {
		return
	}
	page, err := h.orderService.ListOrders(c.Request.Context(), actorFromContext(c), filters)
	if err != nil {
		respondServiceError(c, err, "GetOrders: Error from orderService.ListOrders")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondServiceError(c, err, "GetOrderByID: Error from orderService.GetOrder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrder changes the status and/or replaces the attachment.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var req services.UpdateOrderRequest
	if !bindPayload(c, &req) {
		return
	}
	attachment, ok := saveUpload(c, h.store, "orders")
	if !ok {
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), actorFromContext(c), id, req, attachment)
	if err != nil {
		discardUpload(c, h.store, attachment)
		respondServiceError(c, err, "UpdateOrder: Error from orderService.UpdateOrder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order updated successfully", "order": order})
}

func (h *OrderHandler) GetOrderStats(c *gin.Context) {
	stats, err := h.orderService.Stats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "GetOrderStats: Error from orderService.Stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *OrderHandler) GetOrderAnalytics(c *gin.Context) {
	analytics, err := h.orderService.Analytics(c.Request.Context(), c.DefaultQuery("period", "month"))
	if err != nil {
		respondServiceError(c, err, "GetOrderAnalytics: Error from orderService.Analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *OrderHandler) GetCategoryAnalytics(c *gin.Context) {
	analytics, err := h.orderService.CategoryAnalytics(c.Request.Context(), c.DefaultQuery("period", "week"))
	if err != nil {
		respondServiceError(c, err, "GetCategoryAnalytics: Error from orderService.CategoryAnalytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// GetMonthlyAnalytics takes months=6 or months=12. Anything else, including
// a non-number, is rejected by the service.
func (h *OrderHandler) GetMonthlyAnalytics(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "6"))
	if err != nil {
		months = 0
	}
	analytics, err := h.orderService.MonthlyAnalytics(c.Request.Context(), months)
	if err != nil {
		respondServiceError(c, err, "GetMonthlyAnalytics: Error from orderService.MonthlyAnalytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// ExportOrders answers with the filtered orders as an Excel workbook.
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	filters, ok := orderFilters(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.orderService.Export(c.Request.Context(), actorFromContext(c), filters, &buf); err != nil {
		respondServiceError(c, err, "ExportOrders: Error from orderService.Export")
		return
	}
	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
