package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
	"gorm.io/gorm"
)

type ReadingRepository interface {
	Create(ctx context.Context, reading *model.Reading) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reading, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Reading, error)
	IDsByCreator(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error)
}

type readingRepository struct {
	db *gorm.DB
}

func NewReadingRepository(db *gorm.DB) ReadingRepository {
	return &readingRepository{db: db}
}

func (r *readingRepository) Create(ctx context.Context, reading *model.Reading) error {
	return r.db.WithContext(ctx).Create(reading).Error
}

func (r *readingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Reading, error) {
	var reading model.Reading
	if err := r.db.WithContext(ctx).First(&reading, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reading, nil
}

func (r *readingRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Reading, error) {
	var readings []model.Reading
	err := r.db.WithContext(ctx).
		Where("created_by = ?", creatorID).
		Order("created_at DESC").
		Find(&readings).Error
	return readings, err
}

func (r *readingRepository) IDsByCreator(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Reading{}).
		Where("created_by = ?", creatorID).
		Pluck("id", &ids).Error
	return ids, err
}
