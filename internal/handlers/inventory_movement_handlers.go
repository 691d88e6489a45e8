package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/services"
)

// GetStockMovements lists the stock history of one product, newest first.
// Optional query: type (purchase|expiration|adjustment), page, limit.
func (h *ProductHandler) GetStockMovements(c *gin.Context) {
	id, ok := idParam(c, "productId")
	if !ok {
		return
	}
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	movements, err := h.productService.ListMovements(c.Request.Context(), id, c.Query("type"), page, limit)
	if err != nil {
		respondServiceError(c, err, "GetStockMovements: Error from productService.ListMovements")
		return
	}
	c.JSON(http.StatusOK, movements)
}

// RunExpirationSweep triggers an immediate sweep. Admin only.
func (h *ExpirationHandler) RunExpirationSweep(c *gin.Context) {
	result, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "RunExpirationSweep: sweep failed")
		return
	}
	if result == nil {
		c.JSON(http.StatusAccepted, gin.H{"message": "A sweep is already running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expiration sweep finished", "result": result})
}

// SweepRunner is satisfied by the expiration scheduler.
type SweepRunner interface {
	RunOnce(ctx context.Context) (*services.SweepResult, error)
}

type ExpirationHandler struct {
	runner SweepRunner
}

func NewExpirationHandler(runner SweepRunner) *ExpirationHandler {
	return &ExpirationHandler{runner: runner}
}
