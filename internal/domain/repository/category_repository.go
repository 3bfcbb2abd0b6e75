package repository

import (
	"context"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para Category (DIP).
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByName(ctx context.Context, businessID, name string) (*entity.Category, error)
}
