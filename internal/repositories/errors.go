package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrForeignKey is returned when a referenced row is missing or still referenced.
	ErrForeignKey = errors.New("foreign key constraint violation")
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx, so repository methods
// run the same way inside or outside a transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// Transactor runs fn inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}

// wrapWriteError maps driver constraint errors to the package sentinels.
func wrapWriteError(err error, action string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, action, pqErr.Constraint)
		case "foreign_key_violation":
			return fmt.Errorf("%w: %s (constraint: %s)", ErrForeignKey, action, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, action, err)
}

// expectOneRow turns a zero RowsAffected into ErrNotFound.
func expectOneRow(result sql.Result, action string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for %s: %v", ErrDatabaseError, action, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// orderClause whitelists sort columns so user input never reaches SQL text.
// idColumn breaks ties so offset paging stays stable on non-unique keys.
func orderClause(sortBy, order string, allowed map[string]string, fallback, idColumn string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = fallback
	}
	direction := "DESC"
	if order == "asc" {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s %s", column, direction, idColumn, direction)
}

// queryBuilder accumulates WHERE conditions with numbered placeholders.
type queryBuilder struct {
	conditions []string
	args       []interface{}
}

func (b *queryBuilder) add(format string, value interface{}) {
	b.args = append(b.args, value)
	b.conditions = append(b.conditions, fmt.Sprintf(format, len(b.args)))
}

func (b *queryBuilder) where() string {
	if len(b.conditions) == 0 {
		return ""
	}
	s := " WHERE " + b.conditions[0]
	for _, c := range b.conditions[1:] {
		s += " AND " + c
	}
	return s
}

// count runs SELECT COUNT(*) over from with the current conditions. Call it
// before paginate: the total must not depend on the requested page.
func (b *queryBuilder) count(ctx context.Context, exec SQLExecutor, from string) (int, error) {
	var total int
	if err := exec.QueryRowContext(ctx, b.countQuery(from), b.args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (b *queryBuilder) countQuery(from string) string {
	return "SELECT COUNT(*)" + from + b.where()
}

func (b *queryBuilder) paginate(page, limit int) string {
	if limit <= 0 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	b.args = append(b.args, limit)
	s := fmt.Sprintf(" LIMIT $%d", len(b.args))
	b.args = append(b.args, (page-1)*limit)
	return s + fmt.Sprintf(" OFFSET $%d", len(b.args))
}
