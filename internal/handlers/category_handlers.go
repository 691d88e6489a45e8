package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
)

type CategoryHandler struct {
	categoryService services.CategoryService
	store           storage.Store
}

func NewCategoryHandler(cs services.CategoryService, store storage.Store) *CategoryHandler {
	return &CategoryHandler{categoryService: cs, store: store}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryRequest
	if !bindPayload(c, &req) {
		return
	}
	image, ok := saveUpload(c, h.store, "categories")
	if !ok {
		return
	}
	category, err := h.categoryService.CreateCategory(c.Request.Context(), req, image)
	if err != nil {
		discardUpload(c, h.store, image)
		respondServiceError(c, err, "CreateCategory: Error from categoryService.CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "category": category})
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categoryService.ListCategories(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondServiceError(c, err, "GetCategories: Error from categoryService.ListCategories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "categoryId")
	if !ok {
		return
	}
	var req services.CategoryRequest
	if !bindPayload(c, &req) {
		return
	}
	image, ok := saveUpload(c, h.store, "categories")
	if !ok {
		return
	}
	category, err := h.categoryService.UpdateCategory(c.Request.Context(), id, req, image)
	if err != nil {
		discardUpload(c, h.store, image)
		respondServiceError(c, err, "UpdateCategory: Error from categoryService.UpdateCategory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": category})
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "categoryId")
	if !ok {
		return
	}
	if err := h.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteCategory: Error from categoryService.DeleteCategory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
