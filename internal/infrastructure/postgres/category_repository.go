package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo implementación del puerto CategoryRepository (usable con pool o tx).
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

// Create persiste una categoría. (business_id, name) es único.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	query := `
		INSERT INTO categories (id, business_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, c.ID, c.BusinessID, c.Name, c.Color, c.CreatedAt)
	return TranslateError("insert category", err)
}

func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *CategoryRepo) GetByName(ctx context.Context, businessID, name string) (*entity.Category, error) {
	return r.getOne(ctx, `WHERE business_id = $1 AND name = $2`, businessID, name)
}

func (r *CategoryRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Category, error) {
	query := `SELECT id, business_id, name, color, created_at FROM categories ` + where
	var c entity.Category
	err := r.q.QueryRow(ctx, query, args...).Scan(&c.ID, &c.BusinessID, &c.Name, &c.Color, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, TranslateError("get category", err)
	}
	return &c, nil
}
