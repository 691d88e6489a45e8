package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
)

func TestRespondServiceError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{services.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
		{fmt.Errorf("loading: %w", services.ErrSupplierNotFound), http.StatusNotFound, "Supplier not found"},
		{fmt.Errorf("%w: Quantity must be greater than 0", services.ErrValidation), http.StatusBadRequest, "Quantity must be greater than 0"},
		{services.ErrValidation, http.StatusBadRequest, "Invalid request"},
		{services.ErrInvalidCredentials, http.StatusBadRequest, "Invalid email or password"},
		{services.ErrAccountInactive, http.StatusForbidden, "Account is inactive"},
		{services.ErrForbidden, http.StatusForbidden, "You do not have permission to perform this action"},
		{services.ErrSupplierEmailExists, http.StatusConflict, "Supplier with this email already exists"},
		{services.ErrCategoryInUse, http.StatusConflict, "Category still has products"},
		{storage.ErrFileTooLarge, http.StatusBadRequest, "File too large. Maximum size is 5MB"},
		{errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondServiceError(c, tc.err, "test")

		if w.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: decode body: %v", tc.err, err)
		}
		if body["message"] != tc.message {
			t.Fatalf("%v: expected message %q, got %v", tc.err, tc.message, body["message"])
		}
		if !c.IsAborted() {
			t.Fatalf("%v: context should be aborted", tc.err)
		}
	}
}
