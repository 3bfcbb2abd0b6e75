package inventory

import (
	"context"
	"time"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción (unidad de trabajo).
type TxRepos struct {
	Movements  repository.MovementRepository
	StockItems repository.StockItemRepository
	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	Suppliers  repository.SupplierRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso.
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// EventPublisher publica los movimientos ya confirmados (después del Commit).
type EventPublisher interface {
	PublishMovements(ctx context.Context, events []dto.MovementEvent) error
}

// NoopPublisher descarta los eventos (sin broker configurado).
type NoopPublisher struct{}

func (NoopPublisher) PublishMovements(_ context.Context, _ []dto.MovementEvent) error { return nil }

// AnalysisCache cachea análisis de CPP por clave versionada.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*dto.CPPAnalysis, bool, error)
	Set(ctx context.Context, key string, value *dto.CPPAnalysis, ttl time.Duration) error
}

// NoopAnalysisCache no cachea nada.
type NoopAnalysisCache struct{}

func (NoopAnalysisCache) Get(_ context.Context, _ string) (*dto.CPPAnalysis, bool, error) {
	return nil, false, nil
}

func (NoopAnalysisCache) Set(_ context.Context, _ string, _ *dto.CPPAnalysis, _ time.Duration) error {
	return nil
}
