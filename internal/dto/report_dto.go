package dto

import (
	"time"

	"github.com/google/uuid"
)

type ReminderSummaryRow struct {
	ReadingID uuid.UUID `json:"readingId"`
	StudentID uuid.UUID `json:"studentId"`
	Count     int       `json:"count"`
	FirstAt   time.Time `json:"firstAt"`
	LastAt    time.Time `json:"lastAt"`
}

type ReminderSummaryResponse struct {
	OK   bool                 `json:"ok"`
	Rows []ReminderSummaryRow `json:"rows"`
}
