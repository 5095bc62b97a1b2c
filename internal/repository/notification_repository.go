package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	// MarkRead returns gorm.ErrRecordNotFound when the notification does not belong to userID.
	MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (*model.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
			return err
		}
		n.ReadAt = &at
		return tx.Model(&n).Update("read_at", at).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}
