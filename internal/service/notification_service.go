package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const notificationListLimit = 50

type NotificationService interface {
	CreateFromSystem(ctx context.Context, req dto.CreateNotificationRequest) (*dto.NotificationResponse, error)
	ListMine(ctx context.Context, p model.Principal) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, p model.Principal, id uuid.UUID) (*dto.NotificationResponse, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	events        EventPublisher
}

func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, events EventPublisher) NotificationService {
	return &notificationService{notifications: notifications, users: users, events: events}
}

func (s *notificationService) CreateFromSystem(ctx context.Context, req dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, validationError("userId inválido")
	}
	kind := model.NotificationType(req.Type)
	if !kind.Valid() {
		return nil, validationError("tipo de notificación inválido: %s", req.Type)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	n := &model.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   req.Title,
		Message: req.Message,
		Meta:    req.Meta,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	resp := toNotificationResponse(n)
	if s.events != nil {
		s.events.Publish(userID, EventNotification, resp)
	}
	log.Info().Str("notificationID", n.ID.String()).Str("userID", userID.String()).Str("type", req.Type).Msg("NotificationService: notification created")
	return &resp, nil
}

func (s *notificationService) ListMine(ctx context.Context, p model.Principal) ([]dto.NotificationResponse, error) {
	list, err := s.notifications.ListByUser(ctx, p.ID, notificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		out = append(out, toNotificationResponse(&list[i]))
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, p model.Principal, id uuid.UUID) (*dto.NotificationResponse, error) {
	n, err := s.notifications.MarkRead(ctx, id, p.ID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: notificación no encontrada", ErrNotFound)
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	resp := toNotificationResponse(n)
	return &resp, nil
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	var resp dto.NotificationResponse
	if err := copier.Copy(&resp, n); err != nil {
		log.Warn().Err(err).Msg("toNotificationResponse: copier failed")
	}
	resp.Type = string(n.Type)
	resp.Meta = n.Meta
	return resp
}
