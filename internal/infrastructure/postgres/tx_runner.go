package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción (READ COMMITTED; las filas de stock se bloquean con FOR UPDATE),
// ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return TranslateError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(TxRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return TranslateError("commit transaction", err)
	}
	return nil
}

// TxRepos arma el juego de repositorios sobre q (pool o tx).
func TxRepos(q Querier) inventory.TxRepos {
	return inventory.TxRepos{
		Movements:  NewMovementRepository(q),
		StockItems: NewStockItemRepository(q),
		Products:   NewProductRepository(q),
		Categories: NewCategoryRepository(q),
		Suppliers:  NewSupplierRepository(q),
	}
}
