package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/repositories"
	"purchase_manager_backend/pkg/utils"
)

var (
	ErrSupplierNotFound    = errors.New("supplier not found")
	ErrSupplierEmailExists = errors.New("supplier with this email already exists")
	ErrInvalidPhone        = errors.New("invalid phone number")
)

const defaultSupplierLimit = 20

type CreateSupplierRequest struct {
	Name          string  `json:"name" binding:"required"`
	ContactPerson *string `json:"contactPerson"`
	Email         string  `json:"email" binding:"required,email"`
	Phone         string  `json:"phone" binding:"required"`
	Address       *string `json:"address"`
	CategoryIDs   []int64 `json:"categoryIds"`
	Notes         *string `json:"notes"`
}

type UpdateSupplierRequest struct {
	Name          *string  `json:"name"`
	ContactPerson *string  `json:"contactPerson"`
	Email         *string  `json:"email" binding:"omitempty,email"`
	Phone         *string  `json:"phone"`
	Address       *string  `json:"address"`
	CategoryIDs   *[]int64 `json:"categoryIds"`
	Notes         *string  `json:"notes"`
	IsActive      *bool    `json:"isActive"`
}

type SupplierPage struct {
	Suppliers []models.Supplier `json:"suppliers"`
	Total     int               `json:"total"`
	Pages     int               `json:"pages"`
}

type SupplierService interface {
	CreateSupplier(ctx context.Context, req CreateSupplierRequest, image *string) (*models.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, filters models.SupplierFilters) (*SupplierPage, error)
	UpdateSupplier(ctx context.Context, id int64, req UpdateSupplierRequest, image *string) (*models.Supplier, error)
}

type supplierService struct {
	repo          repositories.SupplierRepository
	categoryRepo  repositories.CategoryRepository
	defaultRegion string
}

// NewSupplierService normalises phone numbers without a country prefix
// against defaultRegion (ISO 3166 alpha-2).
func NewSupplierService(repo repositories.SupplierRepository, cr repositories.CategoryRepository, defaultRegion string) SupplierService {
	return &supplierService{repo: repo, categoryRepo: cr, defaultRegion: strings.ToUpper(defaultRegion)}
}

// NormalizePhone parses raw and formats it as E.164.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	num, err := libphonenumber.Parse(strings.TrimSpace(raw), defaultRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

func (s *supplierService) checkCategories(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if _, err := s.categoryRepo.GetCategoryByID(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: category %d does not exist", ErrValidation, id)
			}
			return fmt.Errorf("failed to load category %d: %w", id, err)
		}
	}
	return nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, req CreateSupplierRequest, image *string) (*models.Supplier, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: name and a valid email are required", ErrValidation)
	}
	phone, err := NormalizePhone(req.Phone, s.defaultRegion)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategories(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}
	categoryIDs := req.CategoryIDs
	if categoryIDs == nil {
		categoryIDs = []int64{}
	}

	supplier := &models.Supplier{
		Name:          name,
		ContactPerson: req.ContactPerson,
		Email:         email,
		Phone:         phone,
		Address:       req.Address,
		CategoryIDs:   categoryIDs,
		Image:         image,
		Notes:         req.Notes,
		IsActive:      true,
	}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrSupplierEmailExists
		}
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	utils.LogInfo("Supplier created", map[string]interface{}{"supplier_id": supplier.ID})
	return supplier, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier, err := s.repo.GetSupplierByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier %d: %w", id, err)
	}
	return supplier, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, filters models.SupplierFilters) (*SupplierPage, error) {
	switch filters.Status {
	case "", "active", "inactive":
	default:
		return nil, fmt.Errorf("%w: status must be active or inactive", ErrValidation)
	}
	page, limit, err := normalizePage(filters.Page, filters.Limit, defaultSupplierLimit)
	if err != nil {
		return nil, err
	}
	filters.Page, filters.Limit = page, limit

	suppliers, total, err := s.repo.ListSuppliers(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return &SupplierPage{Suppliers: suppliers, Total: total, Pages: utils.TotalPages(total, limit)}, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id int64, req UpdateSupplierRequest, image *string) (*models.Supplier, error) {
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			supplier.Name = name
		}
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = req.ContactPerson
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !utils.IsValidEmail(email) {
			return nil, fmt.Errorf("%w: invalid email", ErrValidation)
		}
		supplier.Email = email
	}
	if req.Phone != nil {
		phone, err := NormalizePhone(*req.Phone, s.defaultRegion)
		if err != nil {
			return nil, err
		}
		supplier.Phone = phone
	}
	if req.Address != nil {
		supplier.Address = req.Address
	}
	if req.CategoryIDs != nil {
		if err := s.checkCategories(ctx, *req.CategoryIDs); err != nil {
			return nil, err
		}
		supplier.CategoryIDs = *req.CategoryIDs
	}
	if req.Notes != nil {
		supplier.Notes = req.Notes
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	if image != nil {
		supplier.Image = image
	}

	if err := s.repo.UpdateSupplier(ctx, supplier); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrSupplierNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrSupplierEmailExists
		}
		return nil, fmt.Errorf("failed to update supplier %d: %w", id, err)
	}
	return supplier, nil
}
