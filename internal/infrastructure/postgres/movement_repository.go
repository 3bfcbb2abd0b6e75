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

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx). Solo se inserta;
// la única actualización es la aprobación de traspasos.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, stock_item_id, business_id, location_id, product_id, type, quantity,
		prior_quantity, unit_cost, total_cost, prior_cost, new_cost,
		supplier_id, reference_id, reason, state, destination_location_id, user_id, created_at`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m     entity.Movement
		typ   string
		state *string
	)
	err := row.Scan(
		&m.ID, &m.StockItemID, &m.BusinessID, &m.LocationID, &m.ProductID, &typ, &m.Quantity,
		&m.PriorQuantity, &m.UnitCost, &m.TotalCost, &m.PriorCost, &m.NewCost,
		&m.SupplierID, &m.ReferenceID, &m.Reason, &state, &m.DestinationLocationID, &m.UserID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.Type, err = entity.ParseMovementType(typ); err != nil {
		return nil, domain.Wrap(domain.ErrStorage, "tipo de movimiento persistido inválido", err)
	}
	if state != nil {
		s := entity.MovementState(*state)
		m.State = &s
	}
	return &m, nil
}

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	var state *string
	if m.State != nil {
		s := string(*m.State)
		state = &s
	}
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.StockItemID, m.BusinessID, m.LocationID, m.ProductID, m.Type.String(), m.Quantity,
		m.PriorQuantity, m.UnitCost, m.TotalCost, m.PriorCost, m.NewCost,
		m.SupplierID, m.ReferenceID, m.Reason, state, m.DestinationLocationID, m.UserID, m.CreatedAt,
	)
	return TranslateError("insert movement", err)
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	return r.get(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene el movimiento y bloquea la fila (origen de un traspaso).
func (r *MovementRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Movement, error) {
	return r.get(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1 FOR UPDATE`, id)
}

func (r *MovementRepo) get(ctx context.Context, query, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, TranslateError("get movement", err)
	}
	return m, nil
}

// ApproveTransfer pasa un TRANSFER_OUT de PENDIENTE a APROBADO.
func (r *MovementRepo) ApproveTransfer(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE movements SET state = $2 WHERE id = $1 AND state = $3`,
		id, string(entity.StateApproved), string(entity.StatePending))
	if err != nil {
		return TranslateError("approve transfer", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM movements WHERE id = $1)`, id).Scan(&exists); err != nil {
		return TranslateError("approve transfer", err)
	}
	if !exists {
		return domain.NewError(domain.ErrNotFound, "movimiento no encontrado", id)
	}
	return domain.NewError(domain.ErrConflict, "el traspaso ya no está pendiente", id)
}

// ListByStockItem historial de un StockItem en orden cronológico ascendente.
func (r *MovementRepo) ListByStockItem(ctx context.Context, stockItemID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE stock_item_id = $1 ORDER BY created_at, seq`
	rows, err := r.q.Query(ctx, query, stockItemID)
	if err != nil {
		return nil, TranslateError("list movements", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, TranslateError("scan movement", err)
		}
		list = append(list, m)
	}
	return list, TranslateError("list movements", rows.Err())
}
