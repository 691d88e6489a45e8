package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"purchase_manager_backend/internal/models"
)

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context, name string) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `INSERT INTO categories (name, description, image)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, category.Name, category.Description, category.Image).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "creating category")
	}
	return nil
}

func (r *categoryRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	c := &models.Category{}
	query := `SELECT id, name, description, image, created_at, updated_at FROM categories WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting category by ID %d: %v", ErrDatabaseError, id, err)
	}
	return c, nil
}

func (r *categoryRepository) ListCategories(ctx context.Context, name string) ([]models.Category, error) {
	qb := &queryBuilder{}
	if name != "" {
		qb.add("name ILIKE $%d", "%"+escapeLike(name)+"%")
	}
	query := `SELECT id, name, description, image, created_at, updated_at FROM categories` + qb.where() + ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating category rows: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	query := `UPDATE categories SET name = $1, description = $2, image = $3, updated_at = NOW()
	          WHERE id = $4 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, category.Name, category.Description, category.Image, category.ID).
		Scan(&category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapWriteError(err, fmt.Sprintf("updating category %d", category.ID))
	}
	return nil
}

// DeleteCategory fails with ErrForeignKey while products still reference the category.
func (r *categoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting category %d", id))
	}
	return expectOneRow(result, "category delete")
}
