package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Nombre   string `json:"nombre" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Rol      string `json:"rol" binding:"omitempty,oneof=estudiante docente"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Nombre    string    `json:"nombre"`
	Email     string    `json:"email"`
	Rol       string    `json:"rol"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	OK    bool         `json:"ok"`
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type MeResponse struct {
	OK   bool         `json:"ok"`
	User UserResponse `json:"user"`
}
