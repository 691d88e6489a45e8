package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"purchase_manager_backend/internal/models"
)

type SupplierRepository interface {
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, filters models.SupplierFilters) ([]models.Supplier, int, error)
	UpdateSupplier(ctx context.Context, supplier *models.Supplier) error
}

type supplierRepository struct {
	db *sql.DB
}

func NewSupplierRepository(db *sql.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

const supplierColumns = `id, name, contact_person, email, phone, address, category_ids,
	image, notes, is_active, created_at, updated_at`

func scanSupplier(s scanner) (*models.Supplier, error) {
	sup := &models.Supplier{}
	var categoryIDs pq.Int64Array
	dest := []interface{}{
		&sup.ID, &sup.Name, &sup.ContactPerson, &sup.Email, &sup.Phone, &sup.Address, &categoryIDs,
		&sup.Image, &sup.Notes, &sup.IsActive, &sup.CreatedAt, &sup.UpdatedAt,
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	sup.CategoryIDs = []int64(categoryIDs)
	if sup.CategoryIDs == nil {
		sup.CategoryIDs = []int64{}
	}
	return sup, nil
}

func (r *supplierRepository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	query := `INSERT INTO suppliers (name, contact_person, email, phone, address, category_ids, image, notes, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		supplier.Name, supplier.ContactPerson, supplier.Email, supplier.Phone, supplier.Address,
		pq.Array(supplier.CategoryIDs), supplier.Image, supplier.Notes, supplier.IsActive,
	).Scan(&supplier.ID, &supplier.CreatedAt, &supplier.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "creating supplier")
	}
	return nil
}

func (r *supplierRepository) GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`
	sup, err := scanSupplier(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting supplier by ID %d: %v", ErrDatabaseError, id, err)
	}
	return sup, nil
}

var supplierSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func (r *supplierRepository) ListSuppliers(ctx context.Context, filters models.SupplierFilters) ([]models.Supplier, int, error) {
	qb := &queryBuilder{}
	if filters.Name != "" {
		qb.add("name ILIKE $%d", "%"+escapeLike(filters.Name)+"%")
	}
	switch filters.Status {
	case "active":
		qb.add("is_active = $%d", true)
	case "inactive":
		qb.add("is_active = $%d", false)
	}
	if len(filters.CategoryIDs) > 0 {
		qb.add("category_ids && $%d", pq.Array(filters.CategoryIDs))
	}

	total, err := qb.count(ctx, r.db, " FROM suppliers")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting suppliers: %v", ErrDatabaseError, err)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + supplierColumns + ` FROM suppliers`)
	sb.WriteString(qb.where())
	sb.WriteString(orderClause(filters.SortBy, filters.Order, supplierSortColumns, "created_at", "id"))
	sb.WriteString(qb.paginate(filters.Page, filters.Limit))

	rows, err := r.db.QueryContext(ctx, sb.String(), qb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying suppliers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	suppliers := []models.Supplier{}
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier: %v", ErrDatabaseError, err)
		}
		suppliers = append(suppliers, *sup)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating supplier rows: %v", ErrDatabaseError, err)
	}
	return suppliers, total, nil
}

func (r *supplierRepository) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	query := `UPDATE suppliers
	          SET name = $1, contact_person = $2, email = $3, phone = $4, address = $5,
	              category_ids = $6, image = $7, notes = $8, is_active = $9, updated_at = NOW()
	          WHERE id = $10
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		supplier.Name, supplier.ContactPerson, supplier.Email, supplier.Phone, supplier.Address,
		pq.Array(supplier.CategoryIDs), supplier.Image, supplier.Notes, supplier.IsActive, supplier.ID,
	).Scan(&supplier.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapWriteError(err, fmt.Sprintf("updating supplier %d", supplier.ID))
	}
	return nil
}
