package repository

import (
	"context"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del libro de movimientos (append-only).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// GetByIDForUpdate bloquea el movimiento (origen de un traspaso) hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Movement, error)
	// ApproveTransfer avanza un TRANSFER_OUT de PENDIENTE a APROBADO.
	// Devuelve domain.ErrConflict si el movimiento ya no está pendiente.
	ApproveTransfer(ctx context.Context, id string) error
	// ListByStockItem devuelve el historial en orden cronológico ascendente.
	ListByStockItem(ctx context.Context, stockItemID string) ([]*entity.Movement, error)
}
