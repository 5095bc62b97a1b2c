package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
)

type TeacherProfileRequest struct {
	Especialidad   string             `json:"especialidad" binding:"max=200"`
	Bio            string             `json:"bio" binding:"max=1000"`
	Cursos         []string           `json:"cursos" binding:"omitempty,max=50,dive,max=200"`
	Redes          model.SocialLinks  `json:"redes"`
	Disponibilidad model.Availability `json:"disponibilidad"`
	AvatarURL      string             `json:"avatarUrl" binding:"omitempty,url"`
}

type TeacherProfileResponse struct {
	ID             uuid.UUID          `json:"id"`
	UserID         uuid.UUID          `json:"userId"`
	Especialidad   string             `json:"especialidad"`
	Bio            string             `json:"bio"`
	Cursos         []string           `json:"cursos"`
	Redes          model.SocialLinks  `json:"redes"`
	Disponibilidad model.Availability `json:"disponibilidad"`
	AvatarURL      string             `json:"avatarUrl,omitempty"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

type TeacherProfileEnvelope struct {
	OK      bool                    `json:"ok"`
	Profile *TeacherProfileResponse `json:"profile"`
}

type AssignableStudent struct {
	ID     uuid.UUID `json:"id"`
	Nombre string    `json:"nombre"`
	Email  string    `json:"email"`
}

type AssignableStudentsResponse struct {
	OK       bool                `json:"ok"`
	Students []AssignableStudent `json:"students"`
}
