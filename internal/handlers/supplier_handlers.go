package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
)

type SupplierHandler struct {
	supplierService services.SupplierService
	store           storage.Store
}

func NewSupplierHandler(ss services.SupplierService, store storage.Store) *SupplierHandler {
	return &SupplierHandler{supplierService: ss, store: store}
}

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req services.CreateSupplierRequest
	if !bindPayload(c, &req) {
		return
	}
	image, ok := saveUpload(c, h.store, "suppliers")
	if !ok {
		return
	}
	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), req, image)
	if err != nil {
		discardUpload(c, h.store, image)
		respondServiceError(c, err, "CreateSupplier: Error from supplierService.CreateSupplier")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Supplier created successfully", "supplier": supplier})
}

// GetSuppliers supports name, status (active|inactive), categoryIds, sortBy,
// order, page and limit.
func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	filters := models.SupplierFilters{
		Name:   c.Query("name"),
		Status: c.Query("status"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}
	var ok bool
	if filters.CategoryIDs, ok = queryIDList(c, "categoryIds"); !ok {
		return
	}
	if filters.Page, ok = queryInt(c, "page"); !ok {
		return
	}
	if filters.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}

	page, err := h.supplierService.ListSuppliers(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetSuppliers: Error from supplierService.ListSuppliers")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *SupplierHandler) GetSupplierByID(c *gin.Context) {
	id, ok := idParam(c, "supplierId")
	if !ok {
		return
	}
	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetSupplierByID: Error from supplierService.GetSupplier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"supplier": supplier})
}

func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	id, ok := idParam(c, "supplierId")
	if !ok {
		return
	}
	var req services.UpdateSupplierRequest
	if !bindPayload(c, &req) {
		return
	}
	image, ok := saveUpload(c, h.store, "suppliers")
	if !ok {
		return
	}
	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), id, req, image)
	if err != nil {
		discardUpload(c, h.store, image)
		respondServiceError(c, err, "UpdateSupplier: Error from supplierService.UpdateSupplier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier updated successfully", "supplier": supplier})
}
