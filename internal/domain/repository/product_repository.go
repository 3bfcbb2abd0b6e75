package repository

import (
	"context"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByName busca por nombre exacto dentro del negocio; nil, nil si no existe.
	GetByName(ctx context.Context, businessID, name string) (*entity.Product, error)
	// ListFractionChildren lista los productos declarados como fracción de parentID.
	ListFractionChildren(ctx context.Context, parentID string) ([]*entity.Product, error)
	CountByBusiness(ctx context.Context, businessID string) (int, error)
	// ExistingNames devuelve cuáles de names ya existen en el negocio.
	ExistingNames(ctx context.Context, businessID string, names []string) (map[string]bool, error)
}
