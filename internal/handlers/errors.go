package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
	"purchase_manager_backend/pkg/utils"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps service sentinels to responses. The first match wins.
var serviceErrors = []errorMapping{
	{services.ErrOrderNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Order not found"},
	{services.ErrProductNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Product not found"},
	{services.ErrSupplierNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Supplier not found"},
	{services.ErrCategoryNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Category not found"},
	{services.ErrNotificationNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Notification not found"},
	{services.ErrTaskNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Task not found"},
	{services.ErrStaffNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Staff member not found"},
	{services.ErrUserNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "User not found"},

	{services.ErrInvalidOrderStatus, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status. Use 'pending', 'confirmed', or 'paid'"},
	{services.ErrInvalidStatusTransition, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Order status cannot move backward"},
	{services.ErrInvalidTaskStatus, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status. Use 'pending', 'completed', or 'canceled'"},
	{services.ErrTaskClosed, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Task is already closed"},
	{services.ErrInvalidPeriod, http.StatusBadRequest, utils.ErrCodeValidationFailed, services.ErrInvalidPeriod.Error()},
	{services.ErrInvalidSpendingPeriod, http.StatusBadRequest, utils.ErrCodeValidationFailed, services.ErrInvalidSpendingPeriod.Error()},
	{services.ErrInvalidMonths, http.StatusBadRequest, utils.ErrCodeValidationFailed, services.ErrInvalidMonths.Error()},
	{services.ErrInvalidPhone, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid phone number"},
	{services.ErrInvalidCredentials, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid email or password"},
	{storage.ErrFileTooLarge, http.StatusBadRequest, utils.ErrCodeValidationFailed, "File too large. Maximum size is 5MB"},
	{storage.ErrUnsupportedFileType, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Only image files are allowed"},

	{services.ErrForbidden, http.StatusForbidden, utils.ErrCodeForbidden, "You do not have permission to perform this action"},
	{services.ErrAccountInactive, http.StatusForbidden, utils.ErrCodeForbidden, "Account is inactive"},

	{services.ErrCategoryExists, http.StatusConflict, utils.ErrCodeConflict, "Category already exists"},
	{services.ErrCategoryInUse, http.StatusConflict, utils.ErrCodeConflict, "Category still has products"},
	{services.ErrProductInUse, http.StatusConflict, utils.ErrCodeConflict, "Product is used by orders or tasks"},
	{services.ErrBarcodeExists, http.StatusConflict, utils.ErrCodeConflict, "Barcode already exists"},
	{services.ErrSupplierEmailExists, http.StatusConflict, utils.ErrCodeConflict, "Supplier with this email already exists"},
	{services.ErrEmailExists, http.StatusConflict, utils.ErrCodeConflict, "Email already exists"},
	{services.ErrOrderNumberExhausted, http.StatusConflict, utils.ErrCodeConflict, "Could not allocate an order number, please retry"},
	{services.ErrTaskNumberExhausted, http.StatusConflict, utils.ErrCodeConflict, "Could not allocate a task number, please retry"},
}

// respondServiceError logs err and writes the matching API error, falling
// back to 500 for anything unexpected.
func respondServiceError(c *gin.Context, err error, op string) {
	utils.LogError(err, op)

	if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, validationMessage(err), err.Error())
		return
	}
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			utils.RespondWithError(c, utils.NewAPIError(m.status, m.code, m.message, err.Error()))
			return
		}
	}
	utils.RespondInternalError(c, err)
}

// validationMessage strips the sentinel prefix so clients see only the reason.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
	if msg == "" || msg == services.ErrValidation.Error() {
		return "Invalid request"
	}
	return msg
}
