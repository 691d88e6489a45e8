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

var ErrStaffNotFound = errors.New("staff member not found")

const defaultStaffLimit = 20

// --- Staff DTOs ---

type CreateStaffRequest struct {
	Fullname string  `json:"fullname" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

type UpdateStaffRequest struct {
	Fullname *string `json:"fullname"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"isActive"`
}

type StaffPage struct {
	Staff []models.User `json:"staff"`
	Total int           `json:"total"`
	Pages int           `json:"pages"`
}

// --- StaffService Interface ---
type StaffService interface {
	ListStaff(ctx context.Context, filters models.StaffFilters) (*StaffPage, error)
	CreateStaff(ctx context.Context, req CreateStaffRequest, avatar *string) (*models.User, error)
	UpdateStaff(ctx context.Context, id int64, req UpdateStaffRequest, avatar *string) (*models.User, error)
}

type staffService struct {
	userRepo repositories.AuthRepository
}

func NewStaffService(userRepo repositories.AuthRepository) StaffService {
	return &staffService{userRepo: userRepo}
}

func (s *staffService) ListStaff(ctx context.Context, filters models.StaffFilters) (*StaffPage, error) {
	switch filters.Status {
	case "", "active", "inactive":
	default:
		return nil, fmt.Errorf("%w: status must be active or inactive", ErrValidation)
	}
	page, limit, err := normalizePage(filters.Page, filters.Limit, defaultStaffLimit)
	if err != nil {
		return nil, err
	}
	filters.Page, filters.Limit = page, limit

	staff, total, err := s.userRepo.ListStaff(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return &StaffPage{Staff: staff, Total: total, Pages: utils.TotalPages(total, limit)}, nil
}

func (s *staffService) CreateStaff(ctx context.Context, req CreateStaffRequest, avatar *string) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullname := strings.TrimSpace(req.Fullname)
	if fullname == "" || !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: fullname and a valid email are required", ErrValidation)
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Fullname:     fullname,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleStaff,
		Phone:        req.Phone,
		Address:      req.Address,
		Avatar:       avatar,
		IsActive:     true,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}
	utils.LogInfo("Staff member created", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

func (s *staffService) UpdateStaff(ctx context.Context, id int64, req UpdateStaffRequest, avatar *string) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member %d: %w", id, err)
	}
	if user.Role != models.RoleStaff {
		return nil, ErrStaffNotFound
	}

	if req.Fullname != nil {
		if name := strings.TrimSpace(*req.Fullname); name != "" {
			user.Fullname = name
		}
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !utils.IsValidEmail(email) {
			return nil, fmt.Errorf("%w: invalid email", ErrValidation)
		}
		user.Email = email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if avatar != nil {
		user.Avatar = avatar
	}
	hashed := ""
	if req.Password != nil {
		if hashed, err = hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrStaffNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to update staff member %d: %w", id, err)
	}
	if hashed != "" {
		if err := s.userRepo.UpdatePassword(ctx, id, hashed); err != nil {
			return nil, fmt.Errorf("failed to reset password of staff member %d: %w", id, err)
		}
	}
	return user, nil
}
