package repository

import (
	"context"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

// StockItemRepository define el puerto para consultar/actualizar StockItems por (producto, local, proveedor).
// Las lecturas "ForUpdate" bloquean la fila hasta el fin de la transacción.
type StockItemRepository interface {
	// GetOrCreateForUpdate devuelve el StockItem de la clave bloqueado; si no existe lo crea
	// con existencia 0 y costo 0 (created = true).
	GetOrCreateForUpdate(ctx context.Context, key entity.StockKey) (item *entity.StockItem, created bool, err error)
	// GetForUpdate devuelve nil, nil si no existe.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockItem, error)
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	// Update persiste existencia, costo y precio.
	Update(ctx context.Context, item *entity.StockItem) error
	ListByLocation(ctx context.Context, locationID string) ([]*entity.StockItem, error)
}
