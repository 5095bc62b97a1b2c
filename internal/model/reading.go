package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Reading struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Titulo      string    `gorm:"not null;index:idx_readings_creator_titulo,priority:2" json:"titulo"`
	Descripcion string    `gorm:"type:text" json:"descripcion,omitempty"`
	Bucket      string    `gorm:"not null" json:"bucket"`
	ObjectPath  string    `gorm:"not null" json:"objectPath"`
	Mime        string    `json:"mime"`
	Size        int64     `json:"size"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null;index:idx_readings_creator_titulo,priority:1" json:"createdBy"`
	Creator     *User     `gorm:"foreignKey:CreatedBy" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *Reading) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
