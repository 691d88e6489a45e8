package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/repositories"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category with this name already exists")
	ErrCategoryInUse    = errors.New("category still has products")
)

type CategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type CategoryService interface {
	CreateCategory(ctx context.Context, req CategoryRequest, image *string) (*models.Category, error)
	ListCategories(ctx context.Context, name string) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id int64, req CategoryRequest, image *string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type categoryService struct {
	repo repositories.CategoryRepository
}

func NewCategoryService(repo repositories.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func mapCategoryWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrCategoryExists
	case errors.Is(err, repositories.ErrForeignKey):
		return ErrCategoryInUse
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func (s *categoryService) CreateCategory(ctx context.Context, req CategoryRequest, image *string) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	category := &models.Category{Name: name, Description: req.Description, Image: image}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, mapCategoryWriteError(err, "create category")
	}
	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context, name string) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id int64, req CategoryRequest, image *string) (*models.Category, error) {
	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		category.Name = name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if image != nil {
		category.Image = image
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, mapCategoryWriteError(err, "update category")
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return mapCategoryWriteError(err, "delete category")
	}
	return nil
}
