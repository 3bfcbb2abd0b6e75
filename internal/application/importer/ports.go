package importer

import (
	"context"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
)

// ErrLockLost causa con la que se cancela el contexto del candado cuando no se pudo renovar:
// otra importación podría haberlo tomado, así que no se procesan más bloques.
var ErrLockLost = &domain.Error{
	Kind:      domain.ErrConflict,
	Message:   "se perdió el candado de importación",
	Retryable: true,
}

// ImportLocker exclusión entre importaciones concurrentes del mismo negocio (entre procesos).
// Acquire devuelve domain.ErrConflict si otra importación tiene el candado. El contexto devuelto
// deriva de ctx y se cancela con causa ErrLockLost si el candado se pierde antes de release.
type ImportLocker interface {
	Acquire(ctx context.Context, key string) (lockCtx context.Context, release func(context.Context) error, err error)
}

// NoopLocker no bloquea nada (sin Redis configurado).
type NoopLocker struct{}

func (NoopLocker) Acquire(ctx context.Context, _ string) (context.Context, func(context.Context) error, error) {
	return ctx, func(context.Context) error { return nil }, nil
}
