package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
// Los métodos ForUpdate solo bloquean cuando q es una transacción.
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const stockItemSelect = `
		SELECT id, product_id, location_id, supplier_id, quantity, cost, price, updated_at
		FROM stock_items `

// stockKeyWhere compara supplier_id con NULL como un valor más (stock propio).
const stockKeyWhere = `WHERE product_id = $1 AND location_id = $2 AND supplier_id IS NOT DISTINCT FROM $3::text`

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var s entity.StockItem
	err := row.Scan(&s.ID, &s.ProductID, &s.LocationID, &s.SupplierID, &s.Quantity, &s.Cost, &s.Price, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOrCreateForUpdate inserta el StockItem si falta (ON CONFLICT DO NOTHING) y luego lo lee
// con FOR UPDATE. Dos transacciones que crean la misma clave a la vez terminan en la misma fila.
func (r *StockItemRepo) GetOrCreateForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockItem, bool, error) {
	insert := `
		INSERT INTO stock_items (id, product_id, location_id, supplier_id, quantity, cost, price, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, now())
		ON CONFLICT ON CONSTRAINT stock_items_key DO NOTHING`
	tag, err := r.q.Exec(ctx, insert, uuid.New().String(), key.ProductID, key.LocationID, key.SupplierPtr())
	if err != nil {
		return nil, false, TranslateError("insert stock item", err)
	}
	item, err := r.GetForUpdate(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if item == nil {
		return nil, false, domain.NewError(domain.ErrStorage, "stock item no visible tras insertarlo", key.ProductID, key.LocationID)
	}
	return item, tag.RowsAffected() == 1, nil
}

// GetForUpdate obtiene el StockItem de la clave y bloquea la fila; nil, nil si no existe.
func (r *StockItemRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockItem, error) {
	item, err := scanStockItem(r.q.QueryRow(ctx, stockItemSelect+stockKeyWhere+` FOR UPDATE`,
		key.ProductID, key.LocationID, key.SupplierPtr()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, TranslateError("get stock item for update", err)
	}
	return item, nil
}

func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	item, err := scanStockItem(r.q.QueryRow(ctx, stockItemSelect+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, TranslateError("get stock item", err)
	}
	return item, nil
}

// Update persiste existencia, costo y precio. El CHECK cost >= 0 se traduce a ErrPrecondition.
func (r *StockItemRepo) Update(ctx context.Context, item *entity.StockItem) error {
	query := `
		UPDATE stock_items SET quantity = $2, cost = $3, price = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, item.ID, item.Quantity, item.Cost, item.Price, item.UpdatedAt)
	if err != nil {
		return TranslateError("update stock item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrNotFound, "stock item no encontrado", item.ID)
	}
	return nil
}

// ListByLocation lista los StockItems de un local.
func (r *StockItemRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, stockItemSelect+`WHERE location_id = $1 ORDER BY id`, locationID)
	if err != nil {
		return nil, TranslateError("list stock items", err)
	}
	defer rows.Close()
	var list []*entity.StockItem
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, TranslateError("scan stock item", err)
		}
		list = append(list, item)
	}
	return list, TranslateError("list stock items", rows.Err())
}
