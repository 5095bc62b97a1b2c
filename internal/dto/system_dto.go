package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateMetricRequest struct {
	Kind         string                 `json:"kind" binding:"required,oneof=reminder_sent performance_alert"`
	UserID       string                 `json:"userId" binding:"omitempty,uuid"`
	AssignmentID string                 `json:"assignmentId" binding:"omitempty,uuid"`
	ReadingID    string                 `json:"readingId" binding:"omitempty,uuid"`
	Meta         map[string]interface{} `json:"meta"`
	Source       string                 `json:"source" binding:"max=50"`
}

type MetricResponse struct {
	ID           uuid.UUID              `json:"id"`
	Kind         string                 `json:"kind"`
	UserID       *uuid.UUID             `json:"userId,omitempty"`
	AssignmentID *uuid.UUID             `json:"assignmentId,omitempty"`
	ReadingID    *uuid.UUID             `json:"readingId,omitempty"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
	Source       string                 `json:"source"`
	CreatedAt    time.Time              `json:"createdAt"`
}

type MetricCreatedResponse struct {
	OK     bool           `json:"ok"`
	Metric MetricResponse `json:"metric"`
}

type MetricListResponse struct {
	OK      bool             `json:"ok"`
	Metrics []MetricResponse `json:"metrics"`
}

type CreateNotificationRequest struct {
	UserID  string                 `json:"userId" binding:"required,uuid"`
	Type    string                 `json:"type" binding:"required,oneof=recordatorio rendimiento sistema"`
	Title   string                 `json:"title" binding:"required,max=200"`
	Message string                 `json:"message" binding:"required,max=2000"`
	Meta    map[string]interface{} `json:"meta"`
}

type NotificationResponse struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"userId"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	ReadAt    *time.Time             `json:"readAt,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type NotificationCreatedResponse struct {
	OK           bool                 `json:"ok"`
	Notification NotificationResponse `json:"notification"`
}

type NotificationListResponse struct {
	OK            bool                   `json:"ok"`
	Notifications []NotificationResponse `json:"notifications"`
}

type PreviewQuestionsRequest struct {
	Text        string `json:"text" binding:"required"`
	Title       string `json:"title" binding:"max=300"`
	Literal     *int   `json:"literal" binding:"omitempty,min=1,max=20"`
	Inferential *int   `json:"inferential" binding:"omitempty,min=1,max=20"`
	Critical    *int   `json:"critical" binding:"omitempty,min=1,max=20"`
}

type PreviewQuestionsResponse struct {
	OK        bool                `json:"ok"`
	Questions QuestionSetResponse `json:"questions"`
}
