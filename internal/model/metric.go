package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MetricKind string

const (
	MetricReminderSent     MetricKind = "reminder_sent"
	MetricPerformanceAlert MetricKind = "performance_alert"
)

func (k MetricKind) Valid() bool {
	return k == MetricReminderSent || k == MetricPerformanceAlert
}

// Metric is an append-only record written by external automation.
type Metric struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Kind         MetricKind        `gorm:"type:varchar(32);not null;index" json:"kind"`
	UserID       *uuid.UUID        `gorm:"type:uuid;index" json:"userId,omitempty"`
	AssignmentID *uuid.UUID        `gorm:"type:uuid;index" json:"assignmentId,omitempty"`
	ReadingID    *uuid.UUID        `gorm:"type:uuid;index" json:"readingId,omitempty"`
	Meta         datatypes.JSONMap `gorm:"type:jsonb" json:"meta,omitempty"`
	Source       string            `gorm:"not null;default:n8n" json:"source"`
	CreatedAt    time.Time         `gorm:"index" json:"createdAt"`
}

func (m *Metric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Source == "" {
		m.Source = "n8n"
	}
	return nil
}
