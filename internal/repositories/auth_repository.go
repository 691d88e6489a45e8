package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"purchase_manager_backend/internal/models"
)

// AuthRepository defines the persistence operations on user accounts.
type AuthRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	ListStaff(ctx context.Context, filters models.StaffFilters) ([]models.User, int, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const userColumns = `id, fullname, email, password_hash, role, phone, address, avatar, is_active, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	dest := []interface{}{
		&u.ID, &u.Fullname, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.Address, &u.Avatar,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a user. PasswordHash must already be a bcrypt hash.
func (r *authRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (fullname, email, password_hash, role, phone, address, avatar, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.Fullname, user.Email, user.PasswordHash, user.Role, user.Phone, user.Address, user.Avatar, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "creating user")
	}
	return nil
}

func (r *authRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by email: %v", ErrDatabaseError, err)
	}
	return u, nil
}

func (r *authRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, id, err)
	}
	return u, nil
}

func (r *authRepository) ListStaff(ctx context.Context, filters models.StaffFilters) ([]models.User, int, error) {
	qb := &queryBuilder{}
	qb.add("role = $%d", models.RoleStaff)
	if filters.Name != "" {
		qb.add("fullname ILIKE $%d", "%"+escapeLike(filters.Name)+"%")
	}
	switch filters.Status {
	case "active":
		qb.add("is_active = $%d", true)
	case "inactive":
		qb.add("is_active = $%d", false)
	}
	total, err := qb.count(ctx, r.db, " FROM users")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting staff: %v", ErrDatabaseError, err)
	}
	query := `SELECT ` + userColumns + ` FROM users` + qb.where() +
		` ORDER BY created_at DESC, id DESC` + qb.paginate(filters.Page, filters.Limit)

	rows, err := r.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying staff: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning staff member: %v", ErrDatabaseError, err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating staff rows: %v", ErrDatabaseError, err)
	}
	return users, total, nil
}

func (r *authRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `UPDATE users
	          SET fullname = $1, email = $2, phone = $3, address = $4, avatar = $5, is_active = $6, updated_at = NOW()
	          WHERE id = $7
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.Fullname, user.Email, user.Phone, user.Address, user.Avatar, user.IsActive, user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapWriteError(err, fmt.Sprintf("updating user %d", user.ID))
	}
	return nil
}

func (r *authRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("%w: updating password for user %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, "password update")
}
