package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/repository"
)

type ReportService interface {
	ReminderSummary(ctx context.Context, p model.Principal) ([]dto.ReminderSummaryRow, error)
}

type reportService struct {
	readings repository.ReadingRepository
	metrics  repository.MetricRepository
}

func NewReportService(readings repository.ReadingRepository, metrics repository.MetricRepository) ReportService {
	return &reportService{readings: readings, metrics: metrics}
}

func (s *reportService) ReminderSummary(ctx context.Context, p model.Principal) ([]dto.ReminderSummaryRow, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo un docente puede ver reportes", ErrForbidden)
	}
	readingIDs, err := s.readings.IDsByCreator(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list teacher readings: %w", err)
	}
	metrics, err := s.metrics.ListByKindForReadings(ctx, model.MetricReminderSent, readingIDs)
	if err != nil {
		return nil, fmt.Errorf("list reminder metrics: %w", err)
	}
	return FoldReminders(metrics, readingIDs), nil
}

type reminderKey struct {
	reading uuid.UUID
	student uuid.UUID
}

// FoldReminders groups reminder_sent metrics of the given readings by
// (reading, student). Rows are ordered by LastAt, newest first.
func FoldReminders(metrics []model.Metric, readingIDs []uuid.UUID) []dto.ReminderSummaryRow {
	owned := make(map[uuid.UUID]bool, len(readingIDs))
	for _, id := range readingIDs {
		owned[id] = true
	}

	groups := make(map[reminderKey]*dto.ReminderSummaryRow)
	for _, m := range metrics {
		if m.Kind != model.MetricReminderSent || m.ReadingID == nil || !owned[*m.ReadingID] {
			continue
		}
		key := reminderKey{reading: *m.ReadingID}
		if m.UserID != nil {
			key.student = *m.UserID
		}
		row, ok := groups[key]
		if !ok {
			row = &dto.ReminderSummaryRow{ReadingID: key.reading, StudentID: key.student, FirstAt: m.CreatedAt, LastAt: m.CreatedAt}
			groups[key] = row
		}
		row.Count++
		if m.CreatedAt.Before(row.FirstAt) {
			row.FirstAt = m.CreatedAt
		}
		if m.CreatedAt.After(row.LastAt) {
			row.LastAt = m.CreatedAt
		}
	}

	rows := make([]dto.ReminderSummaryRow, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LastAt.Equal(rows[j].LastAt) {
			return rows[i].ReadingID.String()+rows[i].StudentID.String() < rows[j].ReadingID.String()+rows[j].StudentID.String()
		}
		return rows[i].LastAt.After(rows[j].LastAt)
	})
	return rows
}
