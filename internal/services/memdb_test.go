package services

import (
	"context"
	"errors"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/repositories"
)

// memDB is an in-memory stand-in for every repository the services use.
// WithinTx snapshots the tables and restores them when fn fails.
type memDB struct {
	seq int64

	users         map[int64]models.User
	categories    map[int64]models.Category
	products      map[int64]models.Product
	suppliers     map[int64]models.Supplier
	orders        map[int64]models.PurchaseOrder
	lines         map[int64]models.PurchaseOrderLine
	movements     []models.StockMovement
	notifications []models.Notification
	tasks         map[int64]models.Task
	taskItems     []models.TaskItem

	takenNumbers map[string]bool
	failAdjust   map[int64]error
	txCount      int
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[int64]models.User{},
		categories:   map[int64]models.Category{},
		products:     map[int64]models.Product{},
		suppliers:    map[int64]models.Supplier{},
		orders:       map[int64]models.PurchaseOrder{},
		lines:        map[int64]models.PurchaseOrderLine{},
		tasks:        map[int64]models.Task{},
		takenNumbers: map[string]bool{},
		failAdjust:   map[int64]error{},
	}
}

func (m *memDB) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *memDB) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.txCount++
	products, orders, lines := maps.Clone(m.products), maps.Clone(m.orders), maps.Clone(m.lines)
	tasks, numbers := maps.Clone(m.tasks), maps.Clone(m.takenNumbers)
	movements := append([]models.StockMovement(nil), m.movements...)
	notifications := append([]models.Notification(nil), m.notifications...)
	items := append([]models.TaskItem(nil), m.taskItems...)

	if err := fn(nil); err != nil {
		m.products, m.orders, m.lines = products, orders, lines
		m.tasks, m.takenNumbers = tasks, numbers
		m.movements, m.notifications, m.taskItems = movements, notifications, items
		return err
	}
	return nil
}

// --- users ---

func (m *memDB) CreateUser(ctx context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateKey
		}
	}
	user.ID = m.nextID()
	user.CreatedAt, user.UpdatedAt = time.Now(), time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *memDB) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memDB) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (m *memDB) ListStaff(ctx context.Context, filters models.StaffFilters) ([]models.User, int, error) {
	out := []models.User{}
	for _, u := range m.users {
		if u.Role == models.RoleStaff {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *memDB) UpdateUser(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memDB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

// --- categories ---

func (m *memDB) CreateCategory(ctx context.Context, c *models.Category) error {
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return repositories.ErrDuplicateKey
		}
	}
	c.ID = m.nextID()
	m.categories[c.ID] = *c
	return nil
}

func (m *memDB) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (m *memDB) ListCategories(ctx context.Context, name string) ([]models.Category, error) {
	out := []models.Category{}
	for _, c := range m.categories {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memDB) UpdateCategory(ctx context.Context, c *models.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *memDB) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, p := range m.products {
		if p.CategoryID == id {
			return repositories.ErrForeignKey
		}
	}
	delete(m.categories, id)
	return nil
}

// --- products ---

func (m *memDB) CreateProduct(ctx context.Context, p *models.Product) error {
	p.ID = m.nextID()
	m.products[p.ID] = *p
	return nil
}

func (m *memDB) GetProductByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (m *memDB) ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	out := []models.Product{}
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memDB) UpdateProduct(ctx context.Context, p *models.Product) error {
	existing, ok := m.products[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.CurrentStock = existing.CurrentStock
	m.products[p.ID] = *p
	return nil
}

func (m *memDB) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memDB) AdjustStock(ctx context.Context, exec repositories.SQLExecutor, id int64, delta int) (int, error) {
	if err := m.failAdjust[id]; err != nil {
		return 0, err
	}
	p, ok := m.products[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	p.CurrentStock += delta
	if p.CurrentStock < 0 {
		p.CurrentStock = 0
	}
	m.products[id] = p
	return p.CurrentStock, nil
}

func (m *memDB) ListBelowMinimum(ctx context.Context, name string) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range m.products {
		if p.CurrentStock == 0 || p.CurrentStock < p.MinQty {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memDB) ListOverStock(ctx context.Context, name string) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range m.products {
		if p.CurrentStock >= p.MaxQty {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- suppliers ---

func (m *memDB) CreateSupplier(ctx context.Context, s *models.Supplier) error {
	for _, existing := range m.suppliers {
		if existing.Email == s.Email {
			return repositories.ErrDuplicateKey
		}
	}
	s.ID = m.nextID()
	m.suppliers[s.ID] = *s
	return nil
}

func (m *memDB) GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (m *memDB) ListSuppliers(ctx context.Context, filters models.SupplierFilters) ([]models.Supplier, int, error) {
	out := []models.Supplier{}
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *memDB) UpdateSupplier(ctx context.Context, s *models.Supplier) error {
	if _, ok := m.suppliers[s.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.suppliers[s.ID] = *s
	return nil
}

// --- orders ---

func (m *memDB) ExistsOrderNumber(ctx context.Context, exec repositories.SQLExecutor, number string) (bool, error) {
	return m.takenNumbers[number], nil
}

func (m *memDB) CreateOrder(ctx context.Context, exec repositories.SQLExecutor, o *models.PurchaseOrder) error {
	if m.takenNumbers[o.OrderNumber] {
		return repositories.ErrDuplicateKey
	}
	o.ID = m.nextID()
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	m.takenNumbers[o.OrderNumber] = true
	m.orders[o.ID] = *o
	return nil
}

func (m *memDB) CreateOrderLine(ctx context.Context, exec repositories.SQLExecutor, l *models.PurchaseOrderLine) error {
	l.ID = m.nextID()
	m.lines[l.ID] = *l
	return nil
}

func (m *memDB) GetOrderByID(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &o, nil
}

func (m *memDB) GetOrderLines(ctx context.Context, orderID int64) ([]models.PurchaseOrderLine, error) {
	out := []models.PurchaseOrderLine{}
	for _, l := range m.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.PurchaseOrder, int, error) {
	out := []models.PurchaseOrder{}
	for _, o := range m.orders {
		if filters.StaffID != nil && o.StaffID != *filters.StaffID {
			continue
		}
		if filters.Status != "" && o.Status != filters.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memDB) UpdateOrder(ctx context.Context, exec repositories.SQLExecutor, o *models.PurchaseOrder) error {
	if _, ok := m.orders[o.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memDB) GetStats(ctx context.Context, staffID *int64, monthStart, monthEnd time.Time) (*models.OrderStats, error) {
	stats := &models.OrderStats{}
	for _, o := range m.orders {
		if staffID != nil && o.StaffID != *staffID {
			continue
		}
		switch o.Status {
		case models.OrderStatusPending:
			stats.PendingOrders++
		case models.OrderStatusConfirmed:
			stats.ConfirmedOrders++
		case models.OrderStatusPaid:
			if !o.CreatedAt.Before(monthStart) && o.CreatedAt.Before(monthEnd) {
				stats.PaidOrders++
				stats.TotalValue = stats.TotalValue.Add(o.TotalAmount)
			}
		}
	}
	return stats, nil
}

func (m *memDB) GetAnalytics(ctx context.Context, period string, buckets int) (*models.OrderAnalytics, error) {
	return &models.OrderAnalytics{Period: period, Data: make([]models.AnalyticsBucket, 0, buckets)}, nil
}

// paidLines yields the lines of paid orders dated inside [from, to].
func (m *memDB) paidLines(from, to time.Time, fn func(o models.PurchaseOrder, l models.PurchaseOrderLine, at time.Time)) {
	for _, l := range m.lines {
		o, ok := m.orders[l.OrderID]
		if !ok || o.Status != models.OrderStatusPaid {
			continue
		}
		at := o.CreatedAt
		if o.PaidDate != nil {
			at = *o.PaidDate
		}
		if at.Before(from) || at.After(to) {
			continue
		}
		fn(o, l, at)
	}
}

func (m *memDB) GetCategorySpending(ctx context.Context, from, to time.Time) ([]models.CategorySpending, error) {
	byCategory := map[int64]*models.CategorySpending{}
	orders := map[int64]map[int64]bool{}
	m.paidLines(from, to, func(o models.PurchaseOrder, l models.PurchaseOrderLine, _ time.Time) {
		p := m.products[l.ProductID]
		cs, ok := byCategory[p.CategoryID]
		if !ok {
			cs = &models.CategorySpending{CategoryID: p.CategoryID, CategoryName: m.categories[p.CategoryID].Name}
			byCategory[p.CategoryID] = cs
			orders[p.CategoryID] = map[int64]bool{}
		}
		cs.TotalSpent = cs.TotalSpent.Add(l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity))))
		orders[p.CategoryID][o.ID] = true
	})
	out := []models.CategorySpending{}
	for id, cs := range byCategory {
		cs.OrderCount = len(orders[id])
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TotalSpent.Equal(out[j].TotalSpent) {
			return out[i].TotalSpent.GreaterThan(out[j].TotalSpent)
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (m *memDB) GetMonthlySpending(ctx context.Context, from, to time.Time) ([]models.MonthlySpending, error) {
	byMonth := map[string]*models.MonthlySpending{}
	orders := map[string]map[int64]bool{}
	m.paidLines(from, to, func(o models.PurchaseOrder, l models.PurchaseOrderLine, at time.Time) {
		key := at.Format("2006-01")
		ms, ok := byMonth[key]
		if !ok {
			entry := models.NewMonthlySpending(at)
			ms = &entry
			byMonth[key] = ms
			orders[key] = map[int64]bool{}
		}
		ms.TotalSpent = ms.TotalSpent.Add(l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity))))
		orders[key][o.ID] = true
	})
	out := []models.MonthlySpending{}
	for key, ms := range byMonth {
		ms.OrderCount = len(orders[key])
		out = append(out, *ms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

// --- order lines ---

func (m *memDB) ListExpiredActiveLines(ctx context.Context, now time.Time) ([]models.PurchaseOrderLine, error) {
	out := []models.PurchaseOrderLine{}
	for _, l := range m.lines {
		if l.ExpirationDate != nil && !l.ExpirationDate.After(now) && !l.IsExpired && l.RemainingQuantity > 0 {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) MarkLineExpired(ctx context.Context, exec repositories.SQLExecutor, lineID int64) (int, error) {
	l, ok := m.lines[lineID]
	if !ok || l.IsExpired || l.RemainingQuantity <= 0 {
		return 0, repositories.ErrNotFound
	}
	l.IsExpired = true
	l.ExpiredQuantity = l.RemainingQuantity
	l.RemainingQuantity = 0
	m.lines[lineID] = l
	return l.ExpiredQuantity, nil
}

func (m *memDB) ListExpiringLines(ctx context.Context, from, to time.Time) ([]models.ExpiringLine, error) {
	out := []models.ExpiringLine{}
	for _, l := range m.lines {
		if l.ExpirationDate == nil || l.IsExpired || l.RemainingQuantity <= 0 {
			continue
		}
		if l.ExpirationDate.After(from) && !l.ExpirationDate.After(to) {
			out = append(out, models.ExpiringLine{
				LineID:            l.ID,
				OrderID:           l.OrderID,
				ProductID:         l.ProductID,
				RemainingQuantity: l.RemainingQuantity,
				ExpirationDate:    *l.ExpirationDate,
			})
		}
	}
	return out, nil
}

// --- movements ---

func (m *memDB) CreateMovement(ctx context.Context, exec repositories.SQLExecutor, mv *models.StockMovement) error {
	mv.ID = m.nextID()
	m.movements = append(m.movements, *mv)
	return nil
}

func (m *memDB) ListMovements(ctx context.Context, productID int64, movementType string, page, limit int) ([]models.StockMovement, int, error) {
	out := []models.StockMovement{}
	for _, mv := range m.movements {
		if mv.ProductID == productID && (movementType == "" || mv.MovementType == movementType) {
			out = append(out, mv)
		}
	}
	return out, len(out), nil
}

// --- notifications ---

func (m *memDB) CreateNotification(ctx context.Context, exec repositories.SQLExecutor, n *models.Notification) error {
	n.ID = m.nextID()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memDB) ListNotifications(ctx context.Context, page, limit int) ([]models.Notification, int, int, error) {
	unread := 0
	for _, n := range m.notifications {
		if !n.IsRead {
			unread++
		}
	}
	return m.notifications, len(m.notifications), unread, nil
}

func (m *memDB) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].IsRead = true
			n := m.notifications[i]
			return &n, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memDB) MarkAllRead(ctx context.Context) (int64, error) {
	var n int64
	for i := range m.notifications {
		if !m.notifications[i].IsRead {
			m.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memDB) notificationsOfType(t models.NotificationType) []models.Notification {
	out := []models.Notification{}
	for _, n := range m.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// --- tasks ---

func (m *memDB) ExistsTaskNumber(ctx context.Context, exec repositories.SQLExecutor, number string) (bool, error) {
	return m.takenNumbers[number], nil
}

func (m *memDB) CreateTask(ctx context.Context, exec repositories.SQLExecutor, t *models.Task) error {
	t.ID = m.nextID()
	m.takenNumbers[t.TaskNumber] = true
	m.tasks[t.ID] = *t
	return nil
}

func (m *memDB) CreateTaskItem(ctx context.Context, exec repositories.SQLExecutor, it *models.TaskItem) error {
	it.ID = m.nextID()
	m.taskItems = append(m.taskItems, *it)
	return nil
}

func (m *memDB) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if u, ok := m.users[t.StaffID]; ok {
		t.Staff = &u
	}
	return &t, nil
}

func (m *memDB) GetTaskItems(ctx context.Context, taskID int64) ([]models.TaskItem, error) {
	out := []models.TaskItem{}
	for _, it := range m.taskItems {
		if it.TaskID == taskID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memDB) ListTasks(ctx context.Context, filters models.TaskFilters) ([]models.Task, int, error) {
	out := []models.Task{}
	for _, t := range m.tasks {
		if filters.StaffID != nil && t.StaffID != *filters.StaffID {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *memDB) UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) error {
	t, ok := m.tasks[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = status
	m.tasks[id] = t
	return nil
}

// --- seeding helpers ---

var errInjected = errors.New("injected failure")

func (m *memDB) addProduct(name string, stock, minQty int) int64 {
	p := models.Product{Name: name, Unit: models.UnitPiece, CurrentStock: stock, MinQty: minQty, MaxQty: minQty * 4}
	_ = m.CreateProduct(context.Background(), &p)
	return p.ID
}

func (m *memDB) addSupplier(name string) int64 {
	s := models.Supplier{Name: name, Email: strings.ToLower(name) + "@example.com", IsActive: true}
	_ = m.CreateSupplier(context.Background(), &s)
	return s.ID
}

func (m *memDB) addUser(name, role string) int64 {
	u := models.User{Fullname: name, Email: strings.ToLower(name) + "@example.com", Role: role, IsActive: true}
	_ = m.CreateUser(context.Background(), &u)
	return u.ID
}
