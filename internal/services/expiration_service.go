package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/repositories"
	"purchase_manager_backend/pkg/utils"
)

const defaultExpiringDays = 7

// SweepResult summarises one pass of the expiration sweep.
type SweepResult struct {
	Scanned        int `json:"scanned"`
	Expired        int `json:"expired"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
	LowStockAlerts int `json:"lowStockAlerts"`
}

type ExpirationService interface {
	// ProcessExpired retires every active line whose expiration date has
	// passed. A failing line is logged and does not stop the pass.
	ProcessExpired(ctx context.Context) (*SweepResult, error)
	GetExpiringSoon(ctx context.Context, daysAhead int) ([]models.ExpiringLine, error)
}

type expirationService struct {
	lineRepo      repositories.OrderLineRepository
	productRepo   repositories.ProductRepository
	movementRepo  repositories.StockMovementRepository
	notifications NotificationService
	tx            repositories.Transactor
	now           Clock
}

func NewExpirationService(
	lr repositories.OrderLineRepository,
	pr repositories.ProductRepository,
	mr repositories.StockMovementRepository,
	ns NotificationService,
	tx repositories.Transactor,
	now Clock,
) ExpirationService {
	return &expirationService{
		lineRepo:      lr,
		productRepo:   pr,
		movementRepo:  mr,
		notifications: ns,
		tx:            tx,
		now:           clockOrDefault(now),
	}
}

var errLineAlreadyExpired = errors.New("line already expired")

func (s *expirationService) ProcessExpired(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	lines, err := s.lineRepo.ListExpiredActiveLines(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired lines: %w", err)
	}

	result := &SweepResult{Scanned: len(lines)}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		alerted, err := s.expireLine(ctx, line)
		switch {
		case errors.Is(err, errLineAlreadyExpired):
			result.Skipped++
		case err != nil:
			result.Failed++
			utils.LogError(err, "ExpirationService: failed to expire line", map[string]interface{}{
				"line_id":    line.ID,
				"product_id": line.ProductID,
			})
		default:
			result.Expired++
			if alerted {
				result.LowStockAlerts++
			}
		}
	}

	utils.LogInfo("Expiration sweep finished", map[string]interface{}{
		"scanned":          result.Scanned,
		"expired":          result.Expired,
		"skipped":          result.Skipped,
		"failed":           result.Failed,
		"low_stock_alerts": result.LowStockAlerts,
	})
	return result, nil
}

// expireLine runs the whole retirement of one line in its own transaction
// and reports whether a low stock alert was raised.
func (s *expirationService) expireLine(ctx context.Context, line models.PurchaseOrderLine) (bool, error) {
	alerted := false
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		expired, err := s.lineRepo.MarkLineExpired(ctx, exec, line.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return errLineAlreadyExpired
			}
			return fmt.Errorf("failed to mark line %d expired: %w", line.ID, err)
		}

		product, err := s.productRepo.GetProductByID(ctx, exec, line.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load product %d: %w", line.ProductID, err)
		}

		if _, err := s.notifications.Push(ctx, exec, models.NotificationExpiryWarning,
			"Product Expired",
			fmt.Sprintf("%d %s of %s expired and were removed from stock", expired, product.Unit, product.Name),
			s.notifications.ProductURL(product.ID),
		); err != nil {
			return err
		}

		stock, err := s.productRepo.AdjustStock(ctx, exec, product.ID, -expired)
		if err != nil {
			return fmt.Errorf("failed to remove expired stock of product %d: %w", product.ID, err)
		}

		lineID := line.ID
		movement := &models.StockMovement{
			ProductID:       product.ID,
			MovementType:    models.MovementTypeExpiration,
			QuantityChanged: -expired,
			StockAfter:      stock,
			OrderLineID:     &lineID,
			Reason:          utils.NewNullString("Batch expired"),
		}
		if err := s.movementRepo.CreateMovement(ctx, exec, movement); err != nil {
			return fmt.Errorf("failed to record expiration of line %d: %w", line.ID, err)
		}

		if stock < product.MinQty {
			if _, err := s.notifications.Push(ctx, exec, models.NotificationLowStock,
				product.Name+" Stock Alert",
				fmt.Sprintf("%s is running low after expiration: %d %s left, minimum is %d", product.Name, stock, product.Unit, product.MinQty),
				s.notifications.ProductURL(product.ID),
			); err != nil {
				return err
			}
			alerted = true
		}
		return nil
	})
	return alerted, err
}

func (s *expirationService) GetExpiringSoon(ctx context.Context, daysAhead int) ([]models.ExpiringLine, error) {
	if daysAhead == 0 {
		daysAhead = defaultExpiringDays
	}
	if daysAhead < 0 {
		return nil, fmt.Errorf("%w: daysAhead must be positive", ErrValidation)
	}
	now := s.now()
	lines, err := s.lineRepo.ListExpiringLines(ctx, now, now.AddDate(0, 0, daysAhead))
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring lines: %w", err)
	}
	for i := range lines {
		lines[i].DaysLeft = daysUntil(now, lines[i].ExpirationDate)
	}
	return lines, nil
}

// daysUntil rounds the time left up to whole days.
func daysUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
