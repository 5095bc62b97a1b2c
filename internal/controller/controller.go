// Package controller holds the HTTP helpers shared by the role-scoped handler packages.
package controller

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/middleware"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/service"
	"github.com/lecturacritica/tutor-api/internal/validation"
	"github.com/rs/zerolog/log"
)

const internalErrorMessage = "Error interno del servidor"

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

// RespondError maps service errors to the JSON error envelope. Unknown errors
// are logged and hidden behind a generic 500.
func RespondError(c *gin.Context, op string, err error) {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			log.Warn().Err(err).Str("op", op).Int("status", s.status).Msg("request rejected")
			c.JSON(s.status, dto.ErrorResponse{Error: publicMessage(err, s.err)})
			return
		}
	}
	log.Error().Err(err).Str("op", op).Str("path", c.FullPath()).Msg("unhandled service error")
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: internalErrorMessage})
}

// RespondBindError answers 400 for payloads rejected by gin binding.
func RespondBindError(c *gin.Context, op string, err error) {
	log.Warn().Err(err).Str("op", op).Msg("invalid request payload")
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Datos inválidos", Details: validation.Messages(err)})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: message})
}

// Principal returns the authenticated caller or answers 401.
func Principal(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "No autenticado"})
	}
	return p, ok
}

// UUIDParam parses a path parameter or answers 400.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		BadRequest(c, fmt.Sprintf("%s inválido", name))
		return uuid.Nil, false
	}
	return id, true
}

// OptionalUUIDQuery parses an optional query parameter. An invalid value answers 400.
func OptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		BadRequest(c, fmt.Sprintf("%s inválido", name))
		return nil, false
	}
	return &id, true
}

// FormFile opens the multipart file under field, enforcing maxBytes. The caller
// closes the returned file. A missing file yields (nil, nil, true).
func FormFile(c *gin.Context, field string, maxBytes int64) (*service.FileUpload, multipart.File, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "Archivo demasiado grande"})
			return nil, nil, false
		}
		BadRequest(c, "Formulario multipart inválido")
		return nil, nil, false
	}
	if maxBytes > 0 && header.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "Archivo demasiado grande"})
		return nil, nil, false
	}
	f, err := header.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("FormFile: open failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: internalErrorMessage})
		return nil, nil, false
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &service.FileUpload{
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
		Size:        header.Size,
		Reader:      f,
	}, f, true
}

// publicMessage drops the sentinel prefix so the client sees only the detail.
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		msg = msg[i+len(prefix):]
	} else if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		msg = msg[i:]
	}
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
