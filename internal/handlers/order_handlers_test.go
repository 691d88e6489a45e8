package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
)

type fakeOrderService struct {
	orders      map[int64]*models.PurchaseOrder
	nextID      int64
	lastFilters models.OrderFilters
	createErr   error
}

func newFakeOrderService() *fakeOrderService {
	return &fakeOrderService{orders: map[int64]*models.PurchaseOrder{}}
}

func (f *fakeOrderService) CreateOrder(_ context.Context, actor services.Actor, req services.CreateOrderRequest, attachment *string) (*models.PurchaseOrder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	order := &models.PurchaseOrder{
		ID:          f.nextID,
		OrderNumber: fmt.Sprintf("ORD-20260101-%04d", 1000+f.nextID),
		SupplierID:  req.SupplierID,
		StaffID:     actor.UserID,
		Status:      models.OrderStatusPending,
		Attachment:  attachment,
		Notes:       req.Notes,
	}
	total := decimal.Zero
	for _, it := range req.Items {
		total = total.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
		order.Items = append(order.Items, models.PurchaseOrderLine{
			ProductID: it.ProductID, Quantity: it.Quantity, RemainingQuantity: it.Quantity, UnitCost: it.UnitCost,
		})
	}
	order.TotalAmount = total
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrderService) GetOrder(_ context.Context, actor services.Actor, id int64) (*models.PurchaseOrder, error) {
	order, ok := f.orders[id]
	if !ok || (!actor.IsAdmin() && order.StaffID != actor.UserID) {
		return nil, services.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderService) ListOrders(_ context.Context, actor services.Actor, filters models.OrderFilters) (*services.OrderPage, error) {
	f.lastFilters = filters
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, services.ErrInvalidOrderStatus
	}
	page := &services.OrderPage{Orders: []models.PurchaseOrder{}}
	for _, o := range f.orders {
		page.Orders = append(page.Orders, *o)
	}
	page.Total = len(page.Orders)
	page.Pages = 1
	return page, nil
}

func (f *fakeOrderService) UpdateOrder(ctx context.Context, actor services.Actor, id int64, req services.UpdateOrderRequest, attachment *string) (*models.PurchaseOrder, error) {
	order, err := f.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Status != "" {
		next := models.OrderStatus(req.Status)
		if !next.Valid() {
			return nil, services.ErrInvalidOrderStatus
		}
		if !order.Status.CanTransitionTo(next) {
			return nil, services.ErrInvalidStatusTransition
		}
		order.Status = next
	}
	if attachment != nil {
		order.Attachment = attachment
	}
	return order, nil
}

func (f *fakeOrderService) Stats(context.Context, services.Actor) (*models.OrderStats, error) {
	return &models.OrderStats{PendingOrders: len(f.orders)}, nil
}

func (f *fakeOrderService) Analytics(_ context.Context, period string) (*models.OrderAnalytics, error) {
	if period != "week" && period != "month" && period != "year" {
		return nil, services.ErrInvalidPeriod
	}
	return &models.OrderAnalytics{Period: period}, nil
}

func (f *fakeOrderService) CategoryAnalytics(_ context.Context, period string) (*models.CategoryAnalytics, error) {
	if period != "week" && period != "month" && period != "6month" && period != "year" {
		return nil, services.ErrInvalidSpendingPeriod
	}
	return &models.CategoryAnalytics{Period: period, Data: []models.CategorySpending{}}, nil
}

func (f *fakeOrderService) MonthlyAnalytics(_ context.Context, months int) (*models.MonthlyAnalytics, error) {
	if months != 6 && months != 12 {
		return nil, services.ErrInvalidMonths
	}
	return &models.MonthlyAnalytics{Months: months, Data: []models.MonthlySpending{}}, nil
}

func (f *fakeOrderService) Export(_ context.Context, _ services.Actor, _ models.OrderFilters, w io.Writer) error {
	_, err := w.Write([]byte("PK-fake-workbook"))
	return err
}

func newOrderEngine(svc services.OrderService, userID int64, role string) *gin.Engine {
	h := NewOrderHandler(svc, nil)
	r := gin.New()
	r.Use(withActor(userID, role))
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.GetOrders)
	r.GET("/orders/stats", h.GetOrderStats)
	r.GET("/orders/analytics", h.GetOrderAnalytics)
	r.GET("/orders/export", h.ExportOrders)
	r.GET("/admin/analytics/category", h.GetCategoryAnalytics)
	r.GET("/admin/analytics/monthly", h.GetMonthlyAnalytics)
	r.GET("/orders/:orderId", h.GetOrderByID)
	r.PUT("/orders/:orderId", h.UpdateOrder)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateThenGetOrder(t *testing.T) {
	svc := newFakeOrderService()
	r := newOrderEngine(svc, 7, models.RoleStaff)

	body := `{"supplierId":3,"notes":"weekly","items":[{"productId":1,"quantity":5,"unitCost":2.00}]}`
	w := doJSON(t, r, http.MethodPost, "/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Message string               `json:"message"`
		Order   models.PurchaseOrder `json:"order"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.Order.Status != models.OrderStatusPending || !created.Order.TotalAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected order: %+v", created.Order)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/orders/%d", created.Order.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got struct {
		Order models.PurchaseOrder `json:"order"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if got.Order.OrderNumber != created.Order.OrderNumber || got.Order.StaffID != 7 {
		t.Fatalf("round trip mismatch: %+v", got.Order)
	}
	if len(got.Order.Items) != 1 || got.Order.Items[0].RemainingQuantity != 5 {
		t.Fatalf("unexpected items: %+v", got.Order.Items)
	}
}

func TestCreateOrderRejectsBadPayload(t *testing.T) {
	r := newOrderEngine(newFakeOrderService(), 1, models.RoleAdmin)
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"supplierId":`},
		{"no items", `{"supplierId":1,"items":[]}`},
		{"zero quantity", `{"supplierId":1,"items":[{"productId":1,"quantity":0,"unitCost":1}]}`},
		{"negative cost", `{"supplierId":1,"items":[{"productId":1,"quantity":1,"unitCost":-1}]}`},
		{"missing supplier", `{"items":[{"productId":1,"quantity":1,"unitCost":1}]}`},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodPost, "/orders", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", tc.name, w.Code, w.Body.String())
		}
	}
}

func TestCreateOrderMultipartData(t *testing.T) {
	svc := newFakeOrderService()
	r := newOrderEngine(svc, 2, models.RoleStaff)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("data", `{"supplierId":4,"items":[{"productId":9,"quantity":2,"unitCost":"1.25"}]}`)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/orders", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	order := svc.orders[1]
	if order == nil || order.SupplierID != 4 || !order.TotalAmount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected stored order: %+v", order)
	}
	if order.Attachment != nil {
		t.Fatalf("no file was sent, attachment should be nil")
	}
}

func TestOrderErrorMapping(t *testing.T) {
	svc := newFakeOrderService()
	svc.orders[1] = &models.PurchaseOrder{ID: 1, StaffID: 99, Status: models.OrderStatusPaid}
	staff := newOrderEngine(svc, 7, models.RoleStaff)
	admin := newOrderEngine(svc, 1, models.RoleAdmin)

	cases := []struct {
		name   string
		r      http.Handler
		method string
		path   string
		body   string
		want   int
	}{
		{"other staff order is hidden", staff, http.MethodGet, "/orders/1", "", http.StatusNotFound},
		{"missing order", admin, http.MethodGet, "/orders/42", "", http.StatusNotFound},
		{"bad id", admin, http.MethodGet, "/orders/abc", "", http.StatusBadRequest},
		{"unknown status", admin, http.MethodPut, "/orders/1", `{"status":"shipped"}`, http.StatusBadRequest},
		{"backward move", admin, http.MethodPut, "/orders/1", `{"status":"pending"}`, http.StatusBadRequest},
		{"same status", admin, http.MethodPut, "/orders/1", `{"status":"paid"}`, http.StatusOK},
		{"bad list status", admin, http.MethodGet, "/orders?status=lost", "", http.StatusBadRequest},
		{"bad period", admin, http.MethodGet, "/orders/analytics?period=decade", "", http.StatusBadRequest},
		{"default period", admin, http.MethodGet, "/orders/analytics", "", http.StatusOK},
	}
	for _, tc := range cases {
		w := doJSON(t, tc.r, tc.method, tc.path, tc.body)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestCreateOrderProductNotFound(t *testing.T) {
	svc := newFakeOrderService()
	svc.createErr = fmt.Errorf("item 2: %w", services.ErrProductNotFound)
	r := newOrderEngine(svc, 1, models.RoleAdmin)

	w := doJSON(t, r, http.MethodPost, "/orders", `{"supplierId":1,"items":[{"productId":1,"quantity":1,"unitCost":1}]}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["message"] != "Product not found" {
		t.Fatalf("unexpected message: %v", body)
	}
}

func TestGetOrdersParsesFilters(t *testing.T) {
	svc := newFakeOrderService()
	r := newOrderEngine(svc, 1, models.RoleAdmin)

	w := doJSON(t, r, http.MethodGet, "/orders?orderNumber=ord-2026&supplierIds=1,2&supplierIds=3&staffId=5&page=2&limit=5&sortBy=totalAmount&order=asc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	f := svc.lastFilters
	if f.OrderNumber != "ord-2026" || len(f.SupplierIDs) != 3 || f.StaffID == nil || *f.StaffID != 5 {
		t.Fatalf("filters not parsed: %+v", f)
	}
	if f.Page != 2 || f.Limit != 5 || f.SortBy != "totalAmount" || f.Order != "asc" {
		t.Fatalf("paging not parsed: %+v", f)
	}

	w = doJSON(t, r, http.MethodGet, "/orders?page=two", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric page, got %d", w.Code)
	}
}

func TestExportOrdersWritesWorkbook(t *testing.T) {
	r := newOrderEngine(newFakeOrderService(), 1, models.RoleAdmin)
	w := doJSON(t, r, http.MethodGet, "/orders/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("missing attachment filename: %q", w.Header().Get("Content-Disposition"))
	}
}

func TestSpendingAnalytics(t *testing.T) {
	r := newOrderEngine(newFakeOrderService(), 1, models.RoleAdmin)

	cases := []struct {
		name       string
		path       string
		want       int
		wantPeriod string
		wantMonths float64
	}{
		{name: "category default period", path: "/admin/analytics/category", want: http.StatusOK, wantPeriod: "week"},
		{name: "category six months", path: "/admin/analytics/category?period=6month", want: http.StatusOK, wantPeriod: "6month"},
		{name: "category bad period", path: "/admin/analytics/category?period=decade", want: http.StatusBadRequest},
		{name: "monthly default", path: "/admin/analytics/monthly", want: http.StatusOK, wantMonths: 6},
		{name: "monthly twelve", path: "/admin/analytics/monthly?months=12", want: http.StatusOK, wantMonths: 12},
		{name: "monthly unsupported count", path: "/admin/analytics/monthly?months=3", want: http.StatusBadRequest},
		{name: "monthly not a number", path: "/admin/analytics/monthly?months=six", want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodGet, tc.path, "")
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
		if tc.want != http.StatusOK {
			continue
		}
		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if tc.wantPeriod != "" && body["period"] != tc.wantPeriod {
			t.Fatalf("%s: period = %v, want %s", tc.name, body["period"], tc.wantPeriod)
		}
		if tc.wantMonths != 0 && body["months"] != tc.wantMonths {
			t.Fatalf("%s: months = %v, want %v", tc.name, body["months"], tc.wantMonths)
		}
	}
}

func orderUploadRequest(t *testing.T) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("data", `{"supplierId":4,"items":[{"productId":9,"quantity":1,"unitCost":"3"}]}`)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="invoice.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	_, _ = part.Write([]byte("png"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/orders", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func storedFiles(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("ReadDir: %v", err)
	}
	return entries
}

func TestCreateOrderUploadLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantCode  int
		wantFiles int
	}{
		{name: "kept when the order is created", wantCode: http.StatusCreated, wantFiles: 1},
		{name: "removed when the order is rejected", createErr: services.ErrProductNotFound, wantCode: http.StatusNotFound, wantFiles: 0},
		{name: "removed when the supplier is unknown", createErr: services.ErrSupplierNotFound, wantCode: http.StatusNotFound, wantFiles: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			svc := newFakeOrderService()
			svc.createErr = tt.createErr
			h := NewOrderHandler(svc, storage.NewLocalStore(root))
			r := gin.New()
			r.Use(withActor(2, models.RoleStaff))
			r.POST("/orders", h.CreateOrder)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, orderUploadRequest(t))
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if got := len(storedFiles(t, filepath.Join(root, "orders"))); got != tt.wantFiles {
				t.Fatalf("stored files = %d, want %d", got, tt.wantFiles)
			}
		})
	}
}
