package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"purchase_manager_backend/internal/models"
)

// ProductRepository defines the persistence operations on the inventory ledger.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	// UpdateProduct changes catalogue fields only; stock moves through AdjustStock.
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	// AdjustStock adds delta to current_stock in a single statement and
	// returns the new level. The result never goes below zero.
	AdjustStock(ctx context.Context, exec SQLExecutor, id int64, delta int) (int, error)

	ListBelowMinimum(ctx context.Context, name string) ([]models.Product, error)
	ListOverStock(ctx context.Context, name string) ([]models.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.name, p.barcode, p.unit, p.category_id, p.image_url,
	p.current_stock, p.min_qty, p.max_qty, p.created_at, p.updated_at, c.name`

const productFrom = ` FROM products p LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(s scanner) (*models.Product, error) {
	p := &models.Product{}
	var categoryName sql.NullString
	dest := []interface{}{
		&p.ID, &p.Name, &p.Barcode, &p.Unit, &p.CategoryID, &p.ImageURL,
		&p.CurrentStock, &p.MinQty, &p.MaxQty, &p.CreatedAt, &p.UpdatedAt, &categoryName,
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if categoryName.Valid {
		p.Category = &models.Category{ID: p.CategoryID, Name: categoryName.String}
	}
	return p, nil
}

func (r *productRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec == nil {
		return r.db
	}
	return exec
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `INSERT INTO products (name, barcode, unit, category_id, image_url, current_stock, min_qty, max_qty)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		product.Name, product.Barcode, product.Unit, product.CategoryID, product.ImageURL,
		product.CurrentStock, product.MinQty, product.MaxQty,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "creating product")
	}
	return nil
}

func (r *productRepository) GetProductByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = $1`
	p, err := scanProduct(r.executor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return p, nil
}

var productSortColumns = map[string]string{
	"name":         "p.name",
	"currentStock": "p.current_stock",
	"minQty":       "p.min_qty",
	"createdAt":    "p.created_at",
	"updatedAt":    "p.updated_at",
}

func (r *productRepository) ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	qb := &queryBuilder{}
	if filters.Name != "" {
		qb.add("p.name ILIKE $%d", "%"+escapeLike(filters.Name)+"%")
	}
	if filters.CategoryID != nil {
		qb.add("p.category_id = $%d", *filters.CategoryID)
	}

	total, err := qb.count(ctx, r.db, productFrom)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting products: %v", ErrDatabaseError, err)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + productColumns + productFrom)
	sb.WriteString(qb.where())
	sb.WriteString(orderClause(filters.SortBy, filters.Order, productSortColumns, "p.created_at", "p.id"))
	sb.WriteString(qb.paginate(filters.Page, filters.Limit))

	rows, err := r.db.QueryContext(ctx, sb.String(), qb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, total, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `UPDATE products
	          SET name = $1, barcode = $2, unit = $3, category_id = $4, image_url = $5,
	              min_qty = $6, max_qty = $7, updated_at = NOW()
	          WHERE id = $8
	          RETURNING current_stock, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		product.Name, product.Barcode, product.Unit, product.CategoryID, product.ImageURL,
		product.MinQty, product.MaxQty, product.ID,
	).Scan(&product.CurrentStock, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapWriteError(err, fmt.Sprintf("updating product %d", product.ID))
	}
	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting product %d", id))
	}
	return expectOneRow(result, "product delete")
}

func (r *productRepository) AdjustStock(ctx context.Context, exec SQLExecutor, id int64, delta int) (int, error) {
	query := `UPDATE products
	          SET current_stock = GREATEST(current_stock + $1, 0), updated_at = NOW()
	          WHERE id = $2
	          RETURNING current_stock`
	var stock int
	err := r.executor(exec).QueryRowContext(ctx, query, delta, id).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: adjusting stock of product %d by %d: %v", ErrDatabaseError, id, delta, err)
	}
	return stock, nil
}

func (r *productRepository) ListBelowMinimum(ctx context.Context, name string) ([]models.Product, error) {
	return r.listWhere(ctx, "(p.current_stock = 0 OR p.current_stock < p.min_qty)", name, "p.current_stock ASC")
}

func (r *productRepository) ListOverStock(ctx context.Context, name string) ([]models.Product, error) {
	return r.listWhere(ctx, "p.current_stock >= p.max_qty", name, "p.current_stock DESC")
}

func (r *productRepository) listWhere(ctx context.Context, condition, name, order string) ([]models.Product, error) {
	qb := &queryBuilder{conditions: []string{condition}}
	if name != "" {
		qb.add("p.name ILIKE $%d", "%"+escapeLike(name)+"%")
	}
	query := `SELECT ` + productColumns + productFrom + qb.where() + ` ORDER BY ` + order + `, p.name`

	rows, err := r.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
