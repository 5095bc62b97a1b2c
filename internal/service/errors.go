package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("datos inválidos")
	ErrUnauthorized  = errors.New("no autenticado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrConflict      = errors.New("el recurso ya existe")
	ErrStorage       = errors.New("error de almacenamiento")
	ErrInvalidLogin  = fmt.Errorf("%w: credenciales inválidas", ErrUnauthorized)
	ErrUserNotFound  = fmt.Errorf("%w: usuario no encontrado", ErrNotFound)
	ErrEmailTaken    = fmt.Errorf("%w: el email ya está registrado", ErrConflict)
	ErrReadingAbsent = fmt.Errorf("%w: lectura no encontrada", ErrNotFound)
	ErrAssignAbsent  = fmt.Errorf("%w: asignación no encontrada", ErrNotFound)
	ErrNotOwner      = fmt.Errorf("%w: la asignación no te pertenece", ErrForbidden)

	ErrQuestionNotFound = fmt.Errorf("%w: pregunta no encontrada", ErrValidation)
	ErrEmptyAnswer      = fmt.Errorf("%w: la respuesta es obligatoria", ErrValidation)
	ErrFileRequired     = fmt.Errorf("%w: archivo requerido", ErrValidation)
	ErrInsufficientText = fmt.Errorf("%w: Texto de lectura insuficiente para generar preguntas.", ErrValidation)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
