package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationRecordatorio NotificationType = "recordatorio"
	NotificationRendimiento  NotificationType = "rendimiento"
	NotificationSistema      NotificationType = "sistema"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationRecordatorio, NotificationRendimiento, NotificationSistema:
		return true
	}
	return false
}

type Notification struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"userId"`
	Type      NotificationType  `gorm:"type:varchar(20);not null" json:"type"`
	Title     string            `gorm:"not null" json:"title"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Meta      datatypes.JSONMap `gorm:"type:jsonb" json:"meta,omitempty"`
	ReadAt    *time.Time        `json:"readAt,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
