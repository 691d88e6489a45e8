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

var ErrNotificationNotFound = errors.New("notification not found")

const defaultNotificationLimit = 20

// NotificationPage is one page of the admin notification feed.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	Pages         int                   `json:"pages"`
	Unread        int                   `json:"unread"`
}

// NotificationService is the write side used by event producers and the
// read side used by the admin feed.
type NotificationService interface {
	Push(ctx context.Context, exec repositories.SQLExecutor, notificationType models.NotificationType, title, message, actionURL string) (*models.Notification, error)
	List(ctx context.Context, page, limit int) (*NotificationPage, error)
	MarkRead(ctx context.Context, id int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)

	ProductURL(productID int64) string
	TaskURL(taskID int64) string
}

type notificationService struct {
	repo         repositories.NotificationRepository
	clientOrigin string
}

// NewNotificationService builds action links from clientOrigin.
func NewNotificationService(repo repositories.NotificationRepository, clientOrigin string) NotificationService {
	return &notificationService{repo: repo, clientOrigin: strings.TrimRight(clientOrigin, "/")}
}

func (s *notificationService) Push(ctx context.Context, exec repositories.SQLExecutor, notificationType models.NotificationType, title, message, actionURL string) (*models.Notification, error) {
	n := &models.Notification{
		Type:      notificationType,
		Title:     title,
		Message:   message,
		ActionURL: utils.NewNullString(actionURL),
	}
	if err := s.repo.CreateNotification(ctx, exec, n); err != nil {
		return nil, fmt.Errorf("failed to push %s notification: %w", notificationType, err)
	}
	utils.LogDebug("Notification pushed", map[string]interface{}{"type": notificationType, "title": title})
	return n, nil
}

func (s *notificationService) List(ctx context.Context, page, limit int) (*NotificationPage, error) {
	page, limit, err := normalizePage(page, limit, defaultNotificationLimit)
	if err != nil {
		return nil, err
	}
	notifications, total, unread, err := s.repo.ListNotifications(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return &NotificationPage{
		Notifications: notifications,
		Total:         total,
		Pages:         utils.TotalPages(total, limit),
		Unread:        unread,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationService) ProductURL(productID int64) string {
	return fmt.Sprintf("%s/api/products/%d", s.clientOrigin, productID)
}

func (s *notificationService) TaskURL(taskID int64) string {
	return fmt.Sprintf("%s/api/tasks/%d", s.clientOrigin, taskID)
}
