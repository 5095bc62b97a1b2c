package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/repository"
	"github.com/rs/zerolog/log"
)

const metricListLimit = 200

type MetricService interface {
	Record(ctx context.Context, req dto.CreateMetricRequest) (*dto.MetricResponse, error)
	ListRecent(ctx context.Context) ([]dto.MetricResponse, error)
}

type metricService struct {
	metrics repository.MetricRepository
}

func NewMetricService(metrics repository.MetricRepository) MetricService {
	return &metricService{metrics: metrics}
}

func (s *metricService) Record(ctx context.Context, req dto.CreateMetricRequest) (*dto.MetricResponse, error) {
	kind := model.MetricKind(req.Kind)
	if !kind.Valid() {
		return nil, validationError("kind inválido: %s", req.Kind)
	}
	m := &model.Metric{Kind: kind, Meta: req.Meta, Source: req.Source}

	var err error
	if m.UserID, err = optionalUUID(req.UserID, "userId"); err != nil {
		return nil, err
	}
	if m.AssignmentID, err = optionalUUID(req.AssignmentID, "assignmentId"); err != nil {
		return nil, err
	}
	if m.ReadingID, err = optionalUUID(req.ReadingID, "readingId"); err != nil {
		return nil, err
	}

	if err := s.metrics.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create metric: %w", err)
	}
	log.Debug().Str("kind", req.Kind).Str("metricID", m.ID.String()).Msg("MetricService.Record: metric stored")
	resp := toMetricResponse(m)
	return &resp, nil
}

func (s *metricService) ListRecent(ctx context.Context) ([]dto.MetricResponse, error) {
	list, err := s.metrics.ListRecent(ctx, metricListLimit)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	out := make([]dto.MetricResponse, 0, len(list))
	for i := range list {
		out = append(out, toMetricResponse(&list[i]))
	}
	return out, nil
}

func optionalUUID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, validationError("%s inválido", field)
	}
	return &id, nil
}

func toMetricResponse(m *model.Metric) dto.MetricResponse {
	var resp dto.MetricResponse
	if err := copier.Copy(&resp, m); err != nil {
		log.Warn().Err(err).Msg("toMetricResponse: copier failed")
	}
	resp.Kind = string(m.Kind)
	resp.Meta = m.Meta
	return resp
}
