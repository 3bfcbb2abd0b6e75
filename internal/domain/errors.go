package domain

import (
	"errors"
	"strings"
)

// Errores de dominio (sin dependencias externas).
// Cada error devuelto por el núcleo de inventario es, o envuelve, uno de estos tipos.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrValidation        = errors.New("validación fallida")
	ErrPrecondition      = errors.New("precondición de costeo incumplida")
	ErrReferential       = errors.New("referencia inválida")
	ErrLimitExceeded     = errors.New("límite excedido")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("error de almacenamiento")
	ErrPartialImport     = errors.New("importación parcial")
)

// Error es un error de dominio estructurado: Kind es uno de los sentinelas de arriba,
// Details enumera los motivos o identificadores involucrados (filas, claves, ids).
type Error struct {
	Kind    error
	Message string
	Details []string
	Cause   error
	// Retryable indica que repetir la operación puede tener éxito (conflicto de serialización, deadlock).
	Retryable bool
}

// NewError construye un error de dominio del tipo indicado.
func NewError(kind error, message string, details ...string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// Wrap construye un error de dominio conservando la causa original.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Details, "; "))
	}
	if e.Cause != nil {
		b.WriteString(" (")
		b.WriteString(e.Cause.Error())
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap permite errors.Is(err, domain.ErrConflict) y errors.As sobre la causa.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// IsRetryable informa si el error proviene de un conflicto transitorio del almacenamiento.
func IsRetryable(err error) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Retryable {
				return true
			}
			err = de.Cause
			continue
		}
		return false
	}
	return false
}

// DetailsOf devuelve los detalles de un error de dominio (nil si no es estructurado).
func DetailsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
