package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TeacherService interface {
	GetProfile(ctx context.Context, p model.Principal) (*dto.TeacherProfileResponse, error)
	UpsertProfile(ctx context.Context, p model.Principal, req dto.TeacherProfileRequest) (*dto.TeacherProfileResponse, error)
	AssignableStudents(ctx context.Context, p model.Principal) ([]dto.AssignableStudent, error)
}

type teacherService struct {
	profiles repository.TeacherProfileRepository
	users    repository.UserRepository
}

func NewTeacherService(profiles repository.TeacherProfileRepository, users repository.UserRepository) TeacherService {
	return &teacherService{profiles: profiles, users: users}
}

// GetProfile returns nil without error when the teacher has not saved a profile yet.
func (s *teacherService) GetProfile(ctx context.Context, p model.Principal) (*dto.TeacherProfileResponse, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo docentes tienen perfil", ErrForbidden)
	}
	profile, err := s.profiles.FindByUser(ctx, p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return toProfileResponse(profile), nil
}

func (s *teacherService) UpsertProfile(ctx context.Context, p model.Principal, req dto.TeacherProfileRequest) (*dto.TeacherProfileResponse, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo docentes tienen perfil", ErrForbidden)
	}
	cursos := make([]string, 0, len(req.Cursos))
	for _, c := range req.Cursos {
		if c = strings.TrimSpace(c); c != "" {
			cursos = append(cursos, c)
		}
	}
	dias := req.Disponibilidad.Dias
	if dias == nil {
		dias = []string{}
	}

	profile := &model.TeacherProfile{
		UserID:       p.ID,
		Especialidad: strings.TrimSpace(req.Especialidad),
		Bio:          strings.TrimSpace(req.Bio),
		Cursos:       datatypes.JSONSlice[string](cursos),
		Redes:        datatypes.NewJSONType(req.Redes),
		Disponibilidad: datatypes.NewJSONType(model.Availability{
			Dias:    dias,
			Horario: req.Disponibilidad.Horario,
		}),
		AvatarURL: req.AvatarURL,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	stored, err := s.profiles.FindByUser(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}
	return toProfileResponse(stored), nil
}

func (s *teacherService) AssignableStudents(ctx context.Context, p model.Principal) ([]dto.AssignableStudent, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo docentes pueden listar estudiantes", ErrForbidden)
	}
	users, err := s.users.ListByRole(ctx, model.RoleEstudiante)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]dto.AssignableStudent, 0, len(users))
	for _, u := range users {
		out = append(out, dto.AssignableStudent{ID: u.ID, Nombre: u.Nombre, Email: u.Email})
	}
	return out, nil
}

func toProfileResponse(p *model.TeacherProfile) *dto.TeacherProfileResponse {
	cursos := []string(p.Cursos)
	if cursos == nil {
		cursos = []string{}
	}
	return &dto.TeacherProfileResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		Especialidad:   p.Especialidad,
		Bio:            p.Bio,
		Cursos:         cursos,
		Redes:          p.Redes.Data(),
		Disponibilidad: p.Disponibilidad.Data(),
		AvatarURL:      p.AvatarURL,
		UpdatedAt:      p.UpdatedAt,
	}
}
