package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SocialLinks struct {
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

type Availability struct {
	Dias    []string `json:"dias"`
	Horario string   `json:"horario,omitempty"`
}

type TeacherProfile struct {
	ID             uuid.UUID                        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	Especialidad   string                           `json:"especialidad,omitempty"`
	Bio            string                           `gorm:"type:text" json:"bio,omitempty"`
	Cursos         datatypes.JSONSlice[string]      `gorm:"type:jsonb" json:"cursos"`
	Redes          datatypes.JSONType[SocialLinks]  `gorm:"type:jsonb" json:"redes"`
	Disponibilidad datatypes.JSONType[Availability] `gorm:"type:jsonb" json:"disponibilidad"`
	AvatarURL      string                           `json:"avatarUrl,omitempty"`
	CreatedAt      time.Time                        `json:"createdAt"`
	UpdatedAt      time.Time                        `json:"updatedAt"`
}

func (p *TeacherProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
