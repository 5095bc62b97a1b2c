package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/rs/zerolog/log"
)

const minSyntheticTextLength = 200

// ReadingTextService resolves the text that questions are generated from.
type ReadingTextService interface {
	Text(ctx context.Context, reading *model.Reading) string
}

type readingTextService struct {
	storage StorageProvider
}

func NewReadingTextService(storage StorageProvider) ReadingTextService {
	return &readingTextService{storage: storage}
}

// Text extracts PDF or plain-text content from storage. When nothing usable
// comes back it builds a synthetic description from the reading metadata.
func (s *readingTextService) Text(ctx context.Context, reading *model.Reading) string {
	if text := s.extract(ctx, reading); len([]rune(text)) >= minReadingTextLength {
		return text
	}
	return syntheticReadingText(reading)
}

func (s *readingTextService) extract(ctx context.Context, reading *model.Reading) string {
	mime := strings.ToLower(reading.Mime)
	isPDF := mime == "application/pdf" || strings.HasSuffix(strings.ToLower(reading.ObjectPath), ".pdf")
	isText := strings.HasPrefix(mime, "text/")
	if !isPDF && !isText {
		return ""
	}

	data, err := s.storage.Download(ctx, reading.Bucket, reading.ObjectPath)
	if err != nil {
		log.Warn().Err(err).Str("readingID", reading.ID.String()).Msg("ReadingTextService: download failed, using metadata text")
		return ""
	}

	if isText {
		if !utf8.Valid(data) {
			return ""
		}
		return strings.TrimSpace(string(data))
	}

	text, err := ExtractPDFText(data)
	if err != nil {
		log.Warn().Err(err).Str("readingID", reading.ID.String()).Msg("ReadingTextService: PDF extraction failed")
		return ""
	}
	return text
}

func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

func syntheticReadingText(reading *model.Reading) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Título: %s.\n", reading.Titulo))
	if reading.Descripcion != "" {
		sb.WriteString(fmt.Sprintf("Descripción: %s.\n", reading.Descripcion))
	}
	sb.WriteString(fmt.Sprintf("Documento almacenado en %s/%s.\n", reading.Bucket, reading.ObjectPath))
	sb.WriteString("El estudiante debe leer el documento completo, identificar sus ideas principales, ")
	sb.WriteString("reconocer la intención del autor, relacionar el contenido con su contexto ")
	sb.WriteString("y formular una postura argumentada sobre los temas tratados.")

	text := sb.String()
	for len([]rune(text)) < minSyntheticTextLength {
		text += " Lectura asignada: " + reading.Titulo + "."
	}
	return text
}
