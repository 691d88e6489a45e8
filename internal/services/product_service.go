package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/repositories"
	"purchase_manager_backend/pkg/utils"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductInUse    = errors.New("product is referenced by orders or tasks")
	ErrBarcodeExists   = errors.New("product with this barcode already exists")
)

const defaultProductLimit = 20

// CreateProductRequest is the payload of POST /products.
type CreateProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	Barcode      *string `json:"barcode"`
	Unit         string  `json:"unit" binding:"required"`
	CategoryID   int64   `json:"categoryId" binding:"required"`
	CurrentStock int     `json:"currentStock" binding:"gte=0"`
	MinQty       int     `json:"minQty" binding:"gte=0"`
	MaxQty       int     `json:"maxQty" binding:"gte=0"`
}

// UpdateProductRequest is the payload of PUT /products/:productId.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name         *string `json:"name"`
	Barcode      *string `json:"barcode"`
	Unit         *string `json:"unit"`
	CategoryID   *int64  `json:"categoryId"`
	CurrentStock *int    `json:"currentStock" binding:"omitempty,gte=0"`
	MinQty       *int    `json:"minQty" binding:"omitempty,gte=0"`
	MaxQty       *int    `json:"maxQty" binding:"omitempty,gte=0"`
}

type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
	Pages    int              `json:"pages"`
}

type MovementPage struct {
	Movements []models.StockMovement `json:"movements"`
	Total     int                    `json:"total"`
	Pages     int                    `json:"pages"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest, imageURL *string) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filters models.ProductFilters) (*ProductPage, error)
	UpdateProduct(ctx context.Context, actor Actor, id int64, req UpdateProductRequest, imageURL *string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	LowStock(ctx context.Context, name, status string) (*models.LowStockReport, error)
	OverStock(ctx context.Context, name string) ([]models.Product, error)
	ListMovements(ctx context.Context, productID int64, movementType string, page, limit int) (*MovementPage, error)
}

type productService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
	movementRepo repositories.StockMovementRepository
	tx           repositories.Transactor
}

func NewProductService(
	pr repositories.ProductRepository,
	cr repositories.CategoryRepository,
	mr repositories.StockMovementRepository,
	tx repositories.Transactor,
) ProductService {
	return &productService{productRepo: pr, categoryRepo: cr, movementRepo: mr, tx: tx}
}

func (s *productService) checkCategory(ctx context.Context, id int64) error {
	if _, err := s.categoryRepo.GetCategoryByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to load category %d: %w", id, err)
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest, imageURL *string) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !models.IsValidUnit(req.Unit) {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, req.Unit)
	}
	if req.CurrentStock < 0 || req.MinQty < 0 || req.MaxQty < 0 {
		return nil, fmt.Errorf("%w: quantities cannot be negative", ErrValidation)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:         req.Name,
		Barcode:      req.Barcode,
		Unit:         req.Unit,
		CategoryID:   req.CategoryID,
		ImageURL:     imageURL,
		CurrentStock: req.CurrentStock,
		MinQty:       req.MinQty,
		MaxQty:       req.MaxQty,
	}
	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrBarcodeExists
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	utils.LogInfo("Product created", map[string]interface{}{"product_id": product.ID, "name": product.Name})
	return s.GetProduct(ctx, product.ID)
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.productRepo.GetProductByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

func (s *productService) ListProducts(ctx context.Context, filters models.ProductFilters) (*ProductPage, error) {
	page, limit, err := normalizePage(filters.Page, filters.Limit, defaultProductLimit)
	if err != nil {
		return nil, err
	}
	filters.Page, filters.Limit = page, limit

	products, total, err := s.productRepo.ListProducts(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &ProductPage{Products: products, Total: total, Pages: utils.TotalPages(total, limit)}, nil
}

func (s *productService) UpdateProduct(ctx context.Context, actor Actor, id int64, req UpdateProductRequest, imageURL *string) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		product.Name = name
	}
	if req.Barcode != nil {
		product.Barcode = utils.NewNullString(strings.TrimSpace(*req.Barcode))
	}
	if req.Unit != nil {
		if !models.IsValidUnit(*req.Unit) {
			return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, *req.Unit)
		}
		product.Unit = *req.Unit
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if req.MinQty != nil {
		product.MinQty = *req.MinQty
	}
	if req.MaxQty != nil {
		product.MaxQty = *req.MaxQty
	}
	if product.MinQty < 0 || product.MaxQty < 0 {
		return nil, fmt.Errorf("%w: quantities cannot be negative", ErrValidation)
	}
	if imageURL != nil {
		product.ImageURL = imageURL
	}

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrBarcodeExists
		}
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}

	if req.CurrentStock != nil {
		if *req.CurrentStock < 0 {
			return nil, fmt.Errorf("%w: currentStock cannot be negative", ErrValidation)
		}
		if delta := *req.CurrentStock - product.CurrentStock; delta != 0 {
			if err := s.adjust(ctx, actor, id, delta); err != nil {
				return nil, err
			}
		}
	}
	return s.GetProduct(ctx, id)
}

// adjust applies a manual stock correction and records it as a movement.
func (s *productService) adjust(ctx context.Context, actor Actor, id int64, delta int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		stock, err := s.productRepo.AdjustStock(ctx, exec, id, delta)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to adjust stock of product %d: %w", id, err)
		}
		staffID := actor.UserID
		movement := &models.StockMovement{
			ProductID:       id,
			StaffID:         &staffID,
			MovementType:    models.MovementTypeAdjustment,
			QuantityChanged: delta,
			StockAfter:      stock,
			Reason:          utils.NewNullString("Manual stock correction"),
		}
		if err := s.movementRepo.CreateMovement(ctx, exec, movement); err != nil {
			return fmt.Errorf("failed to record adjustment of product %d: %w", id, err)
		}
		return nil
	})
}

func (s *productService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrProductNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	utils.LogInfo("Product deleted", map[string]interface{}{"product_id": id})
	return nil
}

func (s *productService) LowStock(ctx context.Context, name, status string) (*models.LowStockReport, error) {
	if status != "" && status != models.UrgencyCritical && status != models.UrgencyHigh && status != models.UrgencyMedium {
		return nil, fmt.Errorf("%w: status must be one of critical, high, medium", ErrValidation)
	}
	products, err := s.productRepo.ListBelowMinimum(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return ClassifyLowStock(products, status), nil
}

// Urgency returns the low stock level of p, or "" when p is not low.
func Urgency(p models.Product) string {
	switch {
	case p.CurrentStock == 0:
		return models.UrgencyCritical
	case p.CurrentStock >= p.MinQty:
		return ""
	case 2*p.CurrentStock < p.MinQty:
		return models.UrgencyHigh
	default:
		return models.UrgencyMedium
	}
}

// ClassifyLowStock buckets products by urgency. The summary always counts
// every bucket; status, when set, keeps only that bucket's list.
func ClassifyLowStock(products []models.Product, status string) *models.LowStockReport {
	report := &models.LowStockReport{
		Critical: []models.Product{},
		High:     []models.Product{},
		Medium:   []models.Product{},
	}
	for _, p := range products {
		switch Urgency(p) {
		case models.UrgencyCritical:
			report.Critical = append(report.Critical, p)
		case models.UrgencyHigh:
			report.High = append(report.High, p)
		case models.UrgencyMedium:
			report.Medium = append(report.Medium, p)
		}
	}
	report.Summary = models.LowStockSummary{
		Critical: len(report.Critical),
		High:     len(report.High),
		Medium:   len(report.Medium),
	}
	report.Summary.Total = report.Summary.Critical + report.Summary.High + report.Summary.Medium

	if status != "" {
		if status != models.UrgencyCritical {
			report.Critical = []models.Product{}
		}
		if status != models.UrgencyHigh {
			report.High = []models.Product{}
		}
		if status != models.UrgencyMedium {
			report.Medium = []models.Product{}
		}
	}
	return report
}

func (s *productService) OverStock(ctx context.Context, name string) ([]models.Product, error) {
	products, err := s.productRepo.ListOverStock(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list over stock products: %w", err)
	}
	return products, nil
}

func (s *productService) ListMovements(ctx context.Context, productID int64, movementType string, page, limit int) (*MovementPage, error) {
	switch movementType {
	case "", models.MovementTypePurchase, models.MovementTypeExpiration, models.MovementTypeAdjustment:
	default:
		return nil, fmt.Errorf("%w: unknown movement type %q", ErrValidation, movementType)
	}
	page, limit, err := normalizePage(page, limit, defaultProductLimit)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	movements, total, err := s.movementRepo.ListMovements(ctx, productID, movementType, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements of product %d: %w", productID, err)
	}
	return &MovementPage{Movements: movements, Total: total, Pages: utils.TotalPages(total, limit)}, nil
}
