package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const (
	productColumns = `id, business_id, category_id, name, fraction_of_id, units_per_fraction, created_at`
	productSelect  = `SELECT id, business_id, COALESCE(category_id, ''), name, fraction_of_id, units_per_fraction, created_at FROM products `
)

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.BusinessID, &p.CategoryID, &p.Name, &p.FractionOfID, &p.UnitsPerFraction, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un producto. Una fracción solo puede colgar de un producto que no sea fracción.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	if p.IsFraction() {
		var parentFraction *string
		err := r.q.QueryRow(ctx, `SELECT fraction_of_id FROM products WHERE id = $1`, *p.FractionOfID).Scan(&parentFraction)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewError(domain.ErrReferential, "producto padre inexistente", *p.FractionOfID)
		}
		if err != nil {
			return TranslateError("get parent product", err)
		}
		if parentFraction != nil {
			return domain.NewError(domain.ErrValidation, "una fracción no puede ser padre de otra", *p.FractionOfID)
		}
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	var category *string
	if p.CategoryID != "" {
		category = &p.CategoryID
	}
	_, err := r.q.Exec(ctx, query, p.ID, p.BusinessID, category, p.Name, p.FractionOfID, p.UnitsPerFraction, p.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return &domain.Error{Kind: domain.ErrDuplicate, Message: "producto duplicado", Details: []string{p.Name}, Cause: err}
	}
	return TranslateError("insert product", err)
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, productSelect+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, TranslateError("get product", err)
	}
	return p, nil
}

// GetByName busca por nombre exacto dentro del negocio.
func (r *ProductRepo) GetByName(ctx context.Context, businessID, name string) (*entity.Product, error) {
	query := productSelect + `WHERE business_id = $1 AND name = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, businessID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, TranslateError("get product by name", err)
	}
	return p, nil
}

// ListFractionChildren lista las fracciones de parentID ordenadas por nombre.
func (r *ProductRepo) ListFractionChildren(ctx context.Context, parentID string) ([]*entity.Product, error) {
	query := productSelect + `WHERE fraction_of_id = $1 ORDER BY name`
	rows, err := r.q.Query(ctx, query, parentID)
	if err != nil {
		return nil, TranslateError("list fraction children", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, TranslateError("scan product", err)
		}
		list = append(list, p)
	}
	return list, TranslateError("list fraction children", rows.Err())
}

func (r *ProductRepo) CountByBusiness(ctx context.Context, businessID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM products WHERE business_id = $1`, businessID).Scan(&n)
	if err != nil {
		return 0, TranslateError("count products", err)
	}
	return n, nil
}

// ExistingNames devuelve cuáles de names ya existen en el negocio.
func (r *ProductRepo) ExistingNames(ctx context.Context, businessID string, names []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(names) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT name FROM products WHERE business_id = $1 AND name = ANY($2)`, businessID, names)
	if err != nil {
		return nil, TranslateError("existing product names", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, TranslateError("scan product name", err)
		}
		out[name] = true
	}
	return out, TranslateError("existing product names", rows.Err())
}
