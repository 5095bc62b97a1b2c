package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const boardSheet = "Tablero"

var boardHeaders = []string{
	"Lectura", "Estudiante", "Email", "Fecha límite", "Estado", "Preguntas",
	"Respuestas", "Promedio", "Entregado", "Nota docente", "Retroalimentación", "Archivo",
}

type ExportService interface {
	TeacherBoardXLSX(ctx context.Context, p model.Principal, readingID *uuid.UUID) ([]byte, error)
}

type exportService struct {
	assignments AssignmentService
}

func NewExportService(assignments AssignmentService) ExportService {
	return &exportService{assignments: assignments}
}

func (s *exportService) TeacherBoardXLSX(ctx context.Context, p model.Principal, readingID *uuid.UUID) ([]byte, error) {
	rows, err := s.assignments.TeacherBoard(ctx, p, readingID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("ExportService: close workbook")
		}
	}()
	if err := f.SetSheetName("Sheet1", boardSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range boardHeaders {
		if err := setCell(f, col+1, 1, h); err != nil {
			return nil, err
		}
	}

	for i, r := range rows {
		line := i + 2
		values := []interface{}{
			r.Reading.Titulo,
			r.Student.Nombre,
			r.Student.Email,
			formatOptionalDate(r.DueDate),
			r.Status,
			r.QuestionsCount,
			r.AnswersCount,
			"",
			formatOptionalDate(r.Submission.At),
			"",
			r.Feedback.Text,
			r.SubmissionURL,
		}
		if r.AverageScore != nil {
			values[7] = fmt.Sprintf("%.1f", *r.AverageScore)
		}
		if r.Feedback.Score != nil {
			values[9] = *r.Feedback.Score
		}
		for col, v := range values {
			if err := setCell(f, col+1, line, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	return f.SetCellValue(boardSheet, cell, value)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
