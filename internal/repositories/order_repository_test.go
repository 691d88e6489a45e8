package repositories

import (
	"strings"
	"testing"

	"purchase_manager_backend/internal/models"
)

func TestOrderFilterConditions(t *testing.T) {
	staff := int64(9)

	tests := []struct {
		name     string
		filters  models.OrderFilters
		wantSQL  []string
		wantArgs int
	}{
		{name: "no criteria", filters: models.OrderFilters{}, wantSQL: nil, wantArgs: 0},
		{
			name:     "order number is a case-insensitive contains",
			filters:  models.OrderFilters{OrderNumber: "ORD-2024"},
			wantSQL:  []string{"o.order_number ILIKE $1"},
			wantArgs: 1,
		},
		{
			name: "all criteria",
			filters: models.OrderFilters{
				OrderNumber: "0001",
				StaffID:     &staff,
				Status:      models.OrderStatusPaid,
				SupplierIDs: []int64{1, 2},
			},
			wantSQL:  []string{"o.order_number ILIKE $1", "o.staff_id = $2", "o.status = $3", "o.supplier_id = ANY($4)"},
			wantArgs: 4,
		},
		{
			name:     "empty supplier list is ignored",
			filters:  models.OrderFilters{SupplierIDs: []int64{}},
			wantArgs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qb := orderFilterConditions(tt.filters)
			if len(qb.args) != tt.wantArgs {
				t.Fatalf("expected %d args, got %d", tt.wantArgs, len(qb.args))
			}
			if len(qb.conditions) != len(tt.wantSQL) {
				t.Fatalf("expected conditions %v, got %v", tt.wantSQL, qb.conditions)
			}
			for i, want := range tt.wantSQL {
				if qb.conditions[i] != want {
					t.Fatalf("condition %d: got %q, want %q", i, qb.conditions[i], want)
				}
			}
		})
	}
}

func TestOrderNumberPatternEscapesWildcards(t *testing.T) {
	qb := orderFilterConditions(models.OrderFilters{OrderNumber: "50%_off"})
	pattern, ok := qb.args[0].(string)
	if !ok {
		t.Fatalf("expected string arg, got %T", qb.args[0])
	}
	if pattern != `%50\%\_off%` {
		t.Fatalf("unexpected pattern %q", pattern)
	}
}

func TestPaginateAndWhere(t *testing.T) {
	qb := &queryBuilder{}
	qb.add("a = $%d", 1)
	qb.add("b = $%d", 2)
	where := qb.where()
	if where != " WHERE a = $1 AND b = $2" {
		t.Fatalf("unexpected where %q", where)
	}
	limit := qb.paginate(3, 10)
	if limit != " LIMIT $3 OFFSET $4" {
		t.Fatalf("unexpected pagination %q", limit)
	}
	if qb.args[2] != 10 || qb.args[3] != 20 {
		t.Fatalf("unexpected pagination args %v", qb.args[2:])
	}
}

func TestOrderClauseWhitelist(t *testing.T) {
	got := orderClause("totalAmount", "asc", orderSortColumns, "o.created_at", "o.id")
	if got != " ORDER BY o.total_amount ASC, o.id ASC" {
		t.Fatalf("unexpected clause %q", got)
	}
	got = orderClause("created_at; DROP TABLE x", "sideways", orderSortColumns, "o.created_at", "o.id")
	if got != " ORDER BY o.created_at DESC, o.id DESC" {
		t.Fatalf("unknown sort column should fall back, got %q", got)
	}
}

func TestCountQueryIgnoresPagination(t *testing.T) {
	qb := orderFilterConditions(models.OrderFilters{Status: models.OrderStatusPaid})
	query := qb.countQuery(orderFrom)
	if !strings.HasPrefix(query, "SELECT COUNT(*) FROM purchase_orders o") {
		t.Fatalf("unexpected count query %q", query)
	}
	if !strings.HasSuffix(query, " WHERE o.status = $1") {
		t.Fatalf("count query should carry filters, got %q", query)
	}
	argsBefore := len(qb.args)
	qb.paginate(5, 10)
	if strings.Contains(qb.countQuery(orderFrom), "LIMIT") {
		t.Fatalf("count query must not include pagination")
	}
	if len(qb.args) != argsBefore+2 {
		t.Fatalf("paginate should append limit and offset args, got %v", qb.args)
	}
}
