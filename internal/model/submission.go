package model

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the student's delivered work. At is nil until something was uploaded.
type Submission struct {
	Bucket string     `json:"bucket,omitempty"`
	Path   string     `json:"path,omitempty"`
	Mime   string     `json:"mime,omitempty"`
	Size   int64      `json:"size,omitempty"`
	Notes  string     `gorm:"type:text" json:"notes,omitempty"`
	At     *time.Time `json:"at,omitempty"`
}

// Feedback is the teacher review of a submission.
type Feedback struct {
	Text  string     `gorm:"type:text" json:"text,omitempty"`
	Score *int       `json:"score,omitempty"`
	By    *uuid.UUID `gorm:"type:uuid" json:"by,omitempty"`
	At    *time.Time `json:"at,omitempty"`
}
