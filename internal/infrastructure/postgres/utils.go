package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// TranslateError convierte un error de pgx en un *domain.Error. op nombra la operación
// ("insert product") y queda como mensaje. Cancelaciones de contexto se devuelven envueltas
// sin clasificar para que errors.Is(err, context.Canceled) siga funcionando.
func TranslateError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		var details []string
		if pgErr.ConstraintName != "" {
			details = append(details, pgErr.ConstraintName)
		}
		de := &domain.Error{Message: op, Details: details, Cause: err}
		switch pgErr.Code {
		case codeUniqueViolation:
			de.Kind = domain.ErrDuplicate
		case codeForeignKeyViolation:
			de.Kind = domain.ErrReferential
		case codeCheckViolation:
			de.Kind = domain.ErrPrecondition
		case codeSerializationFailure, codeDeadlockDetected:
			de.Kind = domain.ErrConflict
			de.Retryable = true
		default:
			de.Kind = domain.ErrStorage
		}
		return de
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.Error{Kind: domain.ErrStorage, Message: op, Cause: err, Retryable: true}
	}
	return domain.Wrap(domain.ErrStorage, op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
