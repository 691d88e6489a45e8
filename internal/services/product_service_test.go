package services

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"purchase_manager_backend/internal/models"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestUrgency(t *testing.T) {
	tests := []struct {
		stock, min int
		want       string
	}{
		{0, 10, models.UrgencyCritical},
		{0, 0, models.UrgencyCritical},
		{1, 10, models.UrgencyHigh},
		{4, 10, models.UrgencyHigh},
		{5, 10, models.UrgencyMedium},
		{6, 10, models.UrgencyMedium},
		{9, 10, models.UrgencyMedium},
		{10, 10, ""},
		{2, 5, models.UrgencyHigh},
		{3, 5, models.UrgencyMedium},
	}
	for _, tt := range tests {
		got := Urgency(models.Product{CurrentStock: tt.stock, MinQty: tt.min})
		if got != tt.want {
			t.Fatalf("stock %d / min %d: got %q, want %q", tt.stock, tt.min, got, tt.want)
		}
	}
}

func TestClassifyLowStockFilterKeepsSummary(t *testing.T) {
	products := []models.Product{
		{ID: 1, CurrentStock: 0, MinQty: 10},
		{ID: 2, CurrentStock: 1, MinQty: 10},
		{ID: 3, CurrentStock: 6, MinQty: 10},
		{ID: 4, CurrentStock: 7, MinQty: 10},
	}

	report := ClassifyLowStock(products, "")
	if report.Summary != (models.LowStockSummary{Critical: 1, High: 1, Medium: 2, Total: 4}) {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}

	filtered := ClassifyLowStock(products, models.UrgencyHigh)
	if filtered.Summary != report.Summary {
		t.Fatalf("summary changed by filter: %+v", filtered.Summary)
	}
	if len(filtered.Critical) != 0 || len(filtered.Medium) != 0 || len(filtered.High) != 1 || filtered.High[0].ID != 2 {
		t.Fatalf("unexpected filtered buckets %+v", filtered)
	}
}

func TestLowStockRejectsUnknownStatus(t *testing.T) {
	db := newMemDB()
	svc := NewProductService(db, db, db, db)
	if _, err := svc.LowStock(context.Background(), "", "urgent"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUpdateProductStockRecordsAdjustment(t *testing.T) {
	db := newMemDB()
	svc := NewProductService(db, db, db, db)
	ctx := context.Background()
	category := models.Category{Name: "Dairy"}
	_ = db.CreateCategory(ctx, &category)

	p, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Yogurt", Unit: models.UnitPack, CategoryID: category.ID, CurrentStock: 4, MinQty: 2, MaxQty: 20}, nil)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	stock := 10
	admin := Actor{UserID: 1, Role: models.RoleAdmin}
	updated, err := svc.UpdateProduct(ctx, admin, p.ID, UpdateProductRequest{CurrentStock: &stock}, nil)
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.CurrentStock != 10 {
		t.Fatalf("stock = %d, want 10", updated.CurrentStock)
	}
	if len(db.movements) != 1 || db.movements[0].QuantityChanged != 6 || db.movements[0].MovementType != models.MovementTypeAdjustment {
		t.Fatalf("unexpected movements %+v", db.movements)
	}

	bad := "bucket"
	if _, err := svc.UpdateProduct(ctx, admin, p.ID, UpdateProductRequest{Unit: &bad}, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad unit: err = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateProduct(ctx, admin, 999, UpdateProductRequest{}, nil); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing: err = %v, want ErrProductNotFound", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	db := newMemDB()
	svc := NewProductService(db, db, db, db)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Rice", Unit: "sack", CategoryID: 1}, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad unit: err = %v", err)
	}
	if _, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Rice", Unit: models.UnitKilogram, CategoryID: 77}, nil); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("missing category: err = %v", err)
	}
}

func TestListMovements(t *testing.T) {
	db := newMemDB()
	svc := NewProductService(db, db, db, db)
	ctx := context.Background()
	category := models.Category{Name: "Bakery"}
	_ = db.CreateCategory(ctx, &category)
	p, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Flour", Unit: models.UnitKilogram, CategoryID: category.ID, MinQty: 5, MaxQty: 50}, nil)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	db.movements = append(db.movements,
		models.StockMovement{ProductID: p.ID, MovementType: models.MovementTypePurchase, QuantityChanged: 10},
		models.StockMovement{ProductID: p.ID, MovementType: models.MovementTypeExpiration, QuantityChanged: -3},
		models.StockMovement{ProductID: p.ID + 100, MovementType: models.MovementTypePurchase, QuantityChanged: 1},
	)

	page, err := svc.ListMovements(ctx, p.ID, "", 0, 0)
	if err != nil || page.Total != 2 || page.Pages != 1 {
		t.Fatalf("all movements: page=%+v err=%v", page, err)
	}
	page, err = svc.ListMovements(ctx, p.ID, models.MovementTypeExpiration, 1, 10)
	if err != nil || page.Total != 1 || page.Movements[0].QuantityChanged != -3 {
		t.Fatalf("expiration movements: page=%+v err=%v", page, err)
	}
	if _, err := svc.ListMovements(ctx, p.ID, "theft", 1, 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown type: err = %v, want ErrValidation", err)
	}
	if _, err := svc.ListMovements(ctx, 999, "", 1, 10); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product: err = %v, want ErrProductNotFound", err)
	}
}

func TestOverStock(t *testing.T) {
	db := newMemDB()
	svc := NewProductService(db, db, db, db)
	db.products[1] = models.Product{ID: 1, Name: "Oil", CurrentStock: 60, MaxQty: 50}
	db.products[2] = models.Product{ID: 2, Name: "Salt", CurrentStock: 10, MaxQty: 50}

	products, err := svc.OverStock(context.Background(), "")
	if err != nil {
		t.Fatalf("OverStock: %v", err)
	}
	if len(products) != 1 || products[0].ID != 1 {
		t.Fatalf("unexpected over stock products %+v", products)
	}
}
