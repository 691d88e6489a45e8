package services

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/pkg/utils"
)

const (
	exportSheet    = "Orders"
	exportPageSize = 500
)

var exportHeader = []interface{}{
	"Order Number", "Status", "Supplier", "Staff", "Total Amount", "Paid Date", "Notes", "Created At",
}

// Export writes every order matching filters as an XLSX workbook.
// Pagination fields of filters are ignored.
func (s *orderService) Export(ctx context.Context, actor Actor, filters models.OrderFilters, w io.Writer) error {
	filters, err := s.scopeFilters(actor, filters)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			utils.LogWarn("Failed to close export workbook", map[string]interface{}{"error": cerr.Error()})
		}
	}()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name export sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	row := 2
	filters.Limit = exportPageSize
	for page := 1; ; page++ {
		filters.Page = page
		orders, total, err := s.orderRepo.ListOrders(ctx, filters)
		if err != nil {
			return fmt.Errorf("failed to list orders for export: %w", err)
		}
		for _, o := range orders {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := exportRow(o)
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write export row %d: %w", row, err)
			}
			row++
		}
		if len(orders) == 0 || page*exportPageSize >= total {
			break
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "H", 18); err != nil {
		return fmt.Errorf("failed to size export columns: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write export workbook: %w", err)
	}
	utils.LogInfo("Orders exported", map[string]interface{}{"rows": row - 2})
	return nil
}

func exportRow(o models.PurchaseOrder) []interface{} {
	supplier, staff, paid := "", "", ""
	if o.Supplier != nil {
		supplier = o.Supplier.Name
	}
	if o.Staff != nil {
		staff = o.Staff.Fullname
	}
	if o.PaidDate != nil {
		paid = o.PaidDate.Format("2006-01-02")
	}
	total, _ := o.TotalAmount.Float64()
	return []interface{}{
		o.OrderNumber,
		string(o.Status),
		supplier,
		staff,
		total,
		paid,
		utils.StringValue(o.Notes),
		o.CreatedAt.Format("2006-01-02 15:04"),
	}
}
