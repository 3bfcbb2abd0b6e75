package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementación del puerto SupplierRepository (usable con pool o tx).
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// Create persiste un proveedor. (business_id, name) es único.
func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	query := `
		INSERT INTO suppliers (id, business_id, name, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(ctx, query, s.ID, s.BusinessID, s.Name, s.CreatedAt)
	return TranslateError("insert supplier", err)
}

func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *SupplierRepo) GetByName(ctx context.Context, businessID, name string) (*entity.Supplier, error) {
	return r.getOne(ctx, `WHERE business_id = $1 AND name = $2`, businessID, name)
}

func (r *SupplierRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Supplier, error) {
	query := `SELECT id, business_id, name, created_at FROM suppliers ` + where
	var s entity.Supplier
	err := r.q.QueryRow(ctx, query, args...).Scan(&s.ID, &s.BusinessID, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, TranslateError("get supplier", err)
	}
	return &s, nil
}
