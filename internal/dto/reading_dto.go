package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateReadingRequest holds the multipart form fields sent next to the file.
type CreateReadingRequest struct {
	Titulo      string `form:"titulo" binding:"required,min=2"`
	Descripcion string `form:"descripcion" binding:"max=1000"`
}

type ReadingResponse struct {
	ID          uuid.UUID `json:"id"`
	Titulo      string    `json:"titulo"`
	Descripcion string    `json:"descripcion,omitempty"`
	Bucket      string    `json:"bucket"`
	ObjectPath  string    `json:"objectPath"`
	Mime        string    `json:"mime"`
	Size        int64     `json:"size"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	URL         string    `json:"url,omitempty"`
}

type ReadingCreatedResponse struct {
	OK      bool            `json:"ok"`
	Reading ReadingResponse `json:"reading"`
}

type ReadingListResponse struct {
	OK       bool              `json:"ok"`
	Readings []ReadingResponse `json:"readings"`
}
