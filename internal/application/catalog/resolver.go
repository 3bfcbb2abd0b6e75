// Package catalog resuelve categorías, productos y proveedores por nombre durante la importación,
// creándolos cuando no existen.
package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
)

// Resolver busca por nombre exacto y crea si no existe, usando repositorios de la transacción en curso.
// Un Resolver vive lo que dura una transacción; el Memo se comparte entre las de una misma corrida.
type Resolver struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	suppliers  repository.SupplierRepository
	memo       *Memo
	now        func() time.Time
}

// NewResolver construye un resolver sobre los repositorios de una transacción.
func NewResolver(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	suppliers repository.SupplierRepository,
	memo *Memo,
) *Resolver {
	if memo == nil {
		memo = NewMemo()
	}
	return &Resolver{
		categories: categories,
		products:   products,
		suppliers:  suppliers,
		memo:       memo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func memoKey(businessID, name string) string {
	return businessID + "\x00" + name
}

// ResolveCategory devuelve la categoría del negocio con ese nombre, creándola con un color aleatorio.
func (r *Resolver) ResolveCategory(ctx context.Context, name, businessID string) (*entity.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = entity.DefaultCategoryName
	}
	key := memoKey(businessID, name)
	if c := r.memo.category(key); c != nil {
		return c, nil
	}

	c, err := r.categories.GetByName(ctx, businessID, name)
	if err != nil {
		return nil, err
	}
	created := false
	if c == nil {
		c = &entity.Category{
			ID:         uuid.New().String(),
			BusinessID: businessID,
			Name:       name,
			Color:      RandomColor(),
			CreatedAt:  r.now(),
		}
		if err := r.categories.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("crear categoría %q: %w", name, err)
		}
		created = true
	}
	r.memo.putCategory(key, c, created)
	return c, nil
}

// ResolveProduct devuelve el producto del negocio con ese nombre; si no existe lo crea en categoryID.
// Un producto existente conserva su categoría.
func (r *Resolver) ResolveProduct(ctx context.Context, name, categoryID, businessID string) (*entity.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewError(domain.ErrValidation, "nombre de producto vacío")
	}
	key := memoKey(businessID, name)
	if p := r.memo.product(key); p != nil {
		return p, nil
	}

	p, err := r.products.GetByName(ctx, businessID, name)
	if err != nil {
		return nil, err
	}
	created := false
	if p == nil {
		p = &entity.Product{
			ID:         uuid.New().String(),
			BusinessID: businessID,
			CategoryID: categoryID,
			Name:       name,
			CreatedAt:  r.now(),
		}
		if err := p.Validate(); err != nil {
			return nil, domain.Wrap(domain.ErrValidation, "producto inválido", err)
		}
		if err := r.products.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("crear producto %q: %w", name, err)
		}
		created = true
	}
	r.memo.putProduct(key, p, created)
	return p, nil
}

// ResolveSupplier devuelve el proveedor del negocio con ese nombre, creándolo si no existe.
func (r *Resolver) ResolveSupplier(ctx context.Context, name, businessID string) (*entity.Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewError(domain.ErrValidation, "nombre de proveedor vacío")
	}
	key := memoKey(businessID, name)
	if s := r.memo.supplier(key); s != nil {
		return s, nil
	}

	s, err := r.suppliers.GetByName(ctx, businessID, name)
	if err != nil {
		return nil, err
	}
	created := false
	if s == nil {
		s = &entity.Supplier{
			ID:         uuid.New().String(),
			BusinessID: businessID,
			Name:       name,
			CreatedAt:  r.now(),
		}
		if err := r.suppliers.Create(ctx, s); err != nil {
			return nil, fmt.Errorf("crear proveedor %q: %w", name, err)
		}
		created = true
	}
	r.memo.putSupplier(key, s, created)
	return s, nil
}

// RandomColor color de despliegue aleatorio en formato #rrggbb.
func RandomColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(0x1000000))
}
