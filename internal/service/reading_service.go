package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/repository"
	"github.com/rs/zerolog/log"
)

type ReadingService interface {
	Upload(ctx context.Context, p model.Principal, req dto.CreateReadingRequest, file *FileUpload) (*dto.ReadingResponse, error)
	ListMine(ctx context.Context, p model.Principal) ([]dto.ReadingResponse, error)
}

type readingService struct {
	readings repository.ReadingRepository
	storage  StorageProvider
	bucket   string
	mapper   responseMapper
}

func NewReadingService(readings repository.ReadingRepository, storage StorageProvider, cfg *config.Config) ReadingService {
	return &readingService{
		readings: readings,
		storage:  storage,
		bucket:   cfg.Storage.BucketLecturas,
		mapper:   responseMapper{storage: storage},
	}
}

func (s *readingService) Upload(ctx context.Context, p model.Principal, req dto.CreateReadingRequest, file *FileUpload) (*dto.ReadingResponse, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo un docente puede subir lecturas", ErrForbidden)
	}
	if file == nil || file.Reader == nil {
		return nil, ErrFileRequired
	}
	titulo := strings.TrimSpace(req.Titulo)
	if len([]rune(titulo)) < 2 {
		return nil, validationError("titulo debe tener al menos 2 caracteres")
	}

	path := readingObjectPath(p.ID, titulo, file.Filename)
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.storage.Upload(ctx, s.bucket, path, file.Reader, file.Size, contentType); err != nil {
		return nil, err
	}

	reading := &model.Reading{
		Titulo:      titulo,
		Descripcion: strings.TrimSpace(req.Descripcion),
		Bucket:      s.bucket,
		ObjectPath:  path,
		Mime:        contentType,
		Size:        file.Size,
		CreatedBy:   p.ID,
	}
	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("create reading: %w", err)
	}
	log.Info().Str("readingID", reading.ID.String()).Str("path", path).Msg("ReadingService.Upload: reading stored")
	return s.mapper.reading(reading), nil
}

func (s *readingService) ListMine(ctx context.Context, p model.Principal) ([]dto.ReadingResponse, error) {
	readings, err := s.readings.ListByCreator(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	out := make([]dto.ReadingResponse, 0, len(readings))
	for i := range readings {
		out = append(out, *s.mapper.reading(&readings[i]))
	}
	return out, nil
}

// readingObjectPath builds "<owner>/<slug>-<uuid><ext>".
func readingObjectPath(owner uuid.UUID, titulo, filename string) string {
	name := slug.Make(titulo)
	if len(name) > 60 {
		name = strings.Trim(name[:60], "-")
	}
	if name == "" {
		name = "lectura"
	}
	return fmt.Sprintf("%s/%s-%s%s", owner, name, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
}
