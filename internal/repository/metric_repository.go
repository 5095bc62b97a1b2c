package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
	"gorm.io/gorm"
)

type MetricRepository interface {
	Create(ctx context.Context, metric *model.Metric) error
	ListRecent(ctx context.Context, limit int) ([]model.Metric, error)
	ListByKindForReadings(ctx context.Context, kind model.MetricKind, readingIDs []uuid.UUID) ([]model.Metric, error)
}

type metricRepository struct {
	db *gorm.DB
}

func NewMetricRepository(db *gorm.DB) MetricRepository {
	return &metricRepository{db: db}
}

func (r *metricRepository) Create(ctx context.Context, metric *model.Metric) error {
	return r.db.WithContext(ctx).Create(metric).Error
}

func (r *metricRepository) ListRecent(ctx context.Context, limit int) ([]model.Metric, error) {
	var metrics []model.Metric
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&metrics).Error
	return metrics, err
}

func (r *metricRepository) ListByKindForReadings(ctx context.Context, kind model.MetricKind, readingIDs []uuid.UUID) ([]model.Metric, error) {
	var metrics []model.Metric
	if len(readingIDs) == 0 {
		return metrics, nil
	}
	err := r.db.WithContext(ctx).
		Where("kind = ? AND reading_id IN ?", kind, readingIDs).
		Order("created_at ASC").
		Find(&metrics).Error
	return metrics, err
}
