package repository

import (
	"context"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para Location (DIP).
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*entity.Location, error)
}
