package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
)

// ProductHandler serves the inventory ledger: products and their stock views.
type ProductHandler struct {
	productService    services.ProductService
	expirationService services.ExpirationService
	store             storage.Store
}

func NewProductHandler(ps services.ProductService, es services.ExpirationService, store storage.Store) *ProductHandler {
	return &ProductHandler{productService: ps, expirationService: es, store: store}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindPayload(c, &req) {
		return
	}
	image, ok := saveUpload(c, h.store, "products")
	if !ok {
		return
	}
	product, err := h.productService.CreateProduct(c.Request.Context(), req, image)
	if err != nil {
		discardUpload(c, h.store, image)
		respondServiceError(c, err, "CreateProduct: Error from productService.CreateProduct")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": product})
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	filters := models.ProductFilters{
		Name:   c.Query("name"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}
	var ok bool
	if filters.CategoryID, ok = queryInt64Ptr(c, "categoryId"); !ok {
		return
	}
	if filters.Page, ok = queryInt(c, "page"); !ok {
		return
	}
	if filters.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}

	page, err := h.productService.ListProducts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetProducts: Error from productService.ListProducts")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := idParam(c, "productId")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetProductByID: Error from productService.GetProduct")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "productId")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if !bindPayload(c, &req) {
		return
	}
	image, ok := saveUpload(c, h.store, "products")
	if !ok {
		return
	}
	product, err := h.productService.UpdateProduct(c.Request.Context(), actorFromContext(c), id, req, image)
	if err != nil {
		discardUpload(c, h.store, image)
		respondServiceError(c, err, "UpdateProduct: Error from productService.UpdateProduct")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "productId")
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteProduct: Error from productService.DeleteProduct")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetLowStock groups products under their minimum by urgency.
func (h *ProductHandler) GetLowStock(c *gin.Context) {
	report, err := h.productService.LowStock(c.Request.Context(), c.Query("name"), c.Query("status"))
	if err != nil {
		respondServiceError(c, err, "GetLowStock: Error from productService.LowStock")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ProductHandler) GetOverStock(c *gin.Context) {
	products, err := h.productService.OverStock(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondServiceError(c, err, "GetOverStock: Error from productService.OverStock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

// GetExpiring lists active batches expiring within daysAhead days (default 7).
func (h *ProductHandler) GetExpiring(c *gin.Context) {
	days, ok := queryInt(c, "daysAhead")
	if !ok {
		return
	}
	lines, err := h.expirationService.GetExpiringSoon(c.Request.Context(), days)
	if err != nil {
		respondServiceError(c, err, "GetExpiring: Error from expirationService.GetExpiringSoon")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": lines, "total": len(lines)})
}
