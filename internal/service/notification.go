package service

import (
	"context"
	"fmt"

	"github.com/flicky/hortifruti-api/internal/model"
	"github.com/flicky/hortifruti-api/internal/repository"
)

const defaultNotificationLimit = 20

type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the newest notifications first.
func (s *NotificationService) List(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	items, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return items, nil
}
