package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeacherProfileRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*model.TeacherProfile, error)
	Upsert(ctx context.Context, profile *model.TeacherProfile) error
}

type teacherProfileRepository struct {
	db *gorm.DB
}

func NewTeacherProfileRepository(db *gorm.DB) TeacherProfileRepository {
	return &teacherProfileRepository{db: db}
}

func (r *teacherProfileRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*model.TeacherProfile, error) {
	var p model.TeacherProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *teacherProfileRepository) Upsert(ctx context.Context, profile *model.TeacherProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"especialidad", "bio", "cursos", "redes", "disponibilidad", "avatar_url", "updated_at",
			}),
		}).
		Create(profile).Error
}
