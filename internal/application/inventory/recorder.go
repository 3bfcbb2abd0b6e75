package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

// MovementContext datos comunes a todas las líneas de una llamada.
type MovementContext struct {
	BusinessID  string
	LocationID  string
	UserID      string
	Type        entity.MovementType
	Reason      string
	ReferenceID string
	// DestinationLocationID local destino de un TRANSFER_OUT (opcional).
	DestinationLocationID string
}

// MovementLine una línea de movimiento.
// SupplierID acota el StockItem al stock en consignación de ese proveedor;
// PurchasedFrom solo registra el proveedor de una compra de stock propio.
type MovementLine struct {
	ProductID        string
	Quantity         decimal.Decimal
	UnitCost         *decimal.Decimal
	SupplierID       *string
	PurchasedFrom    *string
	SalePrice        *decimal.Decimal
	OriginMovementID *string // TRANSFER_IN: movimiento TRANSFER_OUT que se aprueba
}

// RecorderOptions políticas del registrador.
type RecorderOptions struct {
	// AllowNegativeStock deja pasar salidas que dejan la existencia bajo cero (se registra un warning).
	// En false la salida falla con domain.ErrInsufficientStock.
	AllowNegativeStock bool
}

// Recorder registra movimientos de inventario de forma transaccional: bloqueo de fila del StockItem
// (SELECT FOR UPDATE), recálculo de CPP, cascada a fracciones, libro de movimientos y traspasos.
type Recorder struct {
	txRunner  TxRunner
	locations repository.LocationRepository
	publisher EventPublisher
	log       *logger.Logger
	opts      RecorderOptions
	now       func() time.Time
}

// NewRecorder construye el registrador de movimientos.
func NewRecorder(
	txRunner TxRunner,
	locations repository.LocationRepository,
	publisher EventPublisher,
	log *logger.Logger,
	opts RecorderOptions,
) *Recorder {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{
		txRunner:  txRunner,
		locations: locations,
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordMovements aplica todas las líneas en una sola transacción: o se guardan todas o ninguna.
// Las validaciones y chequeos referenciales se hacen antes de abrir la transacción.
func (r *Recorder) RecordMovements(ctx context.Context, mctx MovementContext, lines []MovementLine) ([]*entity.Movement, error) {
	if err := validateMovement(mctx, lines); err != nil {
		return nil, err
	}
	if _, err := r.CheckLocation(ctx, mctx.BusinessID, mctx.LocationID); err != nil {
		return nil, err
	}
	if mctx.DestinationLocationID != "" {
		if _, err := r.CheckLocation(ctx, mctx.BusinessID, mctx.DestinationLocationID); err != nil {
			return nil, err
		}
	}

	var movements []*entity.Movement
	err := r.txRunner.Run(ctx, func(repos TxRepos) error {
		var err error
		movements, err = r.ApplyInTx(ctx, repos, mctx, lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.Publish(ctx, movements)
	return movements, nil
}

// CheckLocation verifica que el local exista y pertenezca al negocio.
func (r *Recorder) CheckLocation(ctx context.Context, businessID, locationID string) (*entity.Location, error) {
	loc, err := r.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.NewError(domain.ErrNotFound, "local no encontrado", locationID)
	}
	if loc.BusinessID != businessID {
		return nil, domain.NewError(domain.ErrReferential, "el local no pertenece al negocio",
			"local="+locationID, "negocio="+businessID)
	}
	return loc, nil
}

// ApplyInTx aplica las líneas usando repositorios de una transacción abierta por el llamador.
// Las líneas se aplican en orden; ante el primer error el llamador debe hacer Rollback.
func (r *Recorder) ApplyInTx(ctx context.Context, repos TxRepos, mctx MovementContext, lines []MovementLine) ([]*entity.Movement, error) {
	if err := validateMovement(mctx, lines); err != nil {
		return nil, err
	}
	now := r.now()
	out := make([]*entity.Movement, 0, len(lines))
	for i, line := range lines {
		mov, err := r.applyLine(ctx, repos, mctx, line, now)
		if err != nil {
			if len(lines) == 1 {
				return nil, err
			}
			return nil, fmt.Errorf("línea %d: %w", i+1, err)
		}
		out = append(out, mov)
	}
	return out, nil
}

func (r *Recorder) applyLine(ctx context.Context, repos TxRepos, mctx MovementContext, line MovementLine, now time.Time) (*entity.Movement, error) {
	product, err := repos.Products.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewError(domain.ErrNotFound, "producto no encontrado", line.ProductID)
	}
	if product.BusinessID != mctx.BusinessID {
		return nil, domain.NewError(domain.ErrReferential, "el producto no pertenece al negocio", line.ProductID)
	}
	for _, sid := range []*string{line.SupplierID, line.PurchasedFrom} {
		if sid == nil {
			continue
		}
		if err := checkSupplier(ctx, repos, mctx.BusinessID, *sid); err != nil {
			return nil, err
		}
	}

	unitCost := line.UnitCost
	var origin *entity.Movement
	if mctx.Type == entity.MovementTransferIn && line.OriginMovementID != nil {
		origin, err = r.lockTransferOrigin(ctx, repos, mctx, line)
		if err != nil {
			return nil, err
		}
		if unitCost == nil {
			unitCost, err = originCost(ctx, repos, origin)
			if err != nil {
				return nil, err
			}
		}
	}

	// 1. StockItem bloqueado (se crea en 0/0 si es el primer movimiento de la clave)
	key := entity.StockKey{ProductID: product.ID, LocationID: mctx.LocationID}
	if line.SupplierID != nil {
		key.SupplierID = *line.SupplierID
	}
	item, _, err := repos.StockItems.GetOrCreateForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}

	// 2. Snapshot previo a cualquier mutación
	priorQty := item.Quantity
	priorCost := item.Cost

	// 3. CPP solo para tipos con costo y costo unitario informado
	var costing *inventory.CostResult
	if mctx.Type.IsCostBearing() && unitCost != nil {
		// Una existencia negativa no tiene valor: se costea como si fuera cero.
		base := priorQty
		if base.IsNegative() {
			base = decimal.Zero
		}
		res, err := inventory.WeightedAverage(base, priorCost, line.Quantity, *unitCost)
		if err != nil {
			return nil, err
		}
		costing = &res
		item.Cost = res.NewCost
	}

	// 4. Delta de existencia según la tabla de dirección
	if mctx.Type.Direction() == entity.DirectionIn {
		item.Quantity = priorQty.Add(line.Quantity)
	} else {
		item.Quantity = priorQty.Sub(line.Quantity)
	}
	if item.Quantity.IsNegative() {
		if !r.opts.AllowNegativeStock {
			return nil, domain.NewError(domain.ErrInsufficientStock, "stock insuficiente",
				"producto="+product.Name, "disponible="+priorQty.String(), "solicitado="+line.Quantity.String())
		}
		r.log.Warn().
			Str("stock_item_id", item.ID).
			Str("product_id", product.ID).
			Str("tipo", mctx.Type.String()).
			Str("existencia", item.Quantity.String()).
			Msg("existencia negativa tras movimiento")
	}
	if line.SalePrice != nil {
		item.Price = *line.SalePrice
	}
	item.UpdatedAt = now
	if err := repos.StockItems.Update(ctx, item); err != nil {
		return nil, err
	}

	// 5. Cascada de costo a productos fracción (nunca toca su existencia)
	if costing != nil {
		if err := cascadeFractions(ctx, repos, product, key, costing.NewCost, now); err != nil {
			return nil, err
		}
	}

	// 6. Libro de movimientos
	mov := &entity.Movement{
		ID:            uuid.New().String(),
		StockItemID:   item.ID,
		BusinessID:    mctx.BusinessID,
		LocationID:    mctx.LocationID,
		ProductID:     product.ID,
		Type:          mctx.Type,
		Quantity:      line.Quantity,
		PriorQuantity: decPtr(priorQty),
		Reason:        mctx.Reason,
		UserID:        mctx.UserID,
		CreatedAt:     now,
	}
	if costing != nil {
		mov.UnitCost = decPtr(*unitCost)
		mov.TotalCost = decPtr(costing.IncomingTotal)
		mov.PriorCost = decPtr(priorCost)
		mov.NewCost = decPtr(costing.NewCost)
	}
	switch {
	case line.SupplierID != nil:
		mov.SupplierID = line.SupplierID
	case line.PurchasedFrom != nil:
		mov.SupplierID = line.PurchasedFrom
	}
	if mctx.ReferenceID != "" {
		mov.ReferenceID = strPtr(mctx.ReferenceID)
	}

	// 7. Traspasos
	switch mctx.Type {
	case entity.MovementTransferOut:
		state := entity.StatePending
		mov.State = &state
		if mctx.DestinationLocationID != "" {
			mov.DestinationLocationID = strPtr(mctx.DestinationLocationID)
		}
	case entity.MovementTransferIn:
		if origin != nil {
			state := entity.StateApproved
			mov.State = &state
			if mov.ReferenceID == nil {
				mov.ReferenceID = strPtr(origin.ID)
			}
		}
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	if origin != nil {
		if err := repos.Movements.ApproveTransfer(ctx, origin.ID); err != nil {
			return nil, err
		}
	}
	return mov, nil
}

// lockTransferOrigin bloquea el TRANSFER_OUT de origen y verifica que corresponda a esta entrada.
func (r *Recorder) lockTransferOrigin(ctx context.Context, repos TxRepos, mctx MovementContext, line MovementLine) (*entity.Movement, error) {
	origin, err := repos.Movements.GetByIDForUpdate(ctx, *line.OriginMovementID)
	if err != nil {
		return nil, err
	}
	if origin == nil {
		return nil, domain.NewError(domain.ErrNotFound, "movimiento de origen no encontrado", *line.OriginMovementID)
	}
	switch {
	case origin.BusinessID != mctx.BusinessID:
		return nil, domain.NewError(domain.ErrReferential, "el traspaso de origen pertenece a otro negocio", origin.ID)
	case origin.Type != entity.MovementTransferOut:
		return nil, domain.NewError(domain.ErrConflict, "el movimiento de origen no es un TRANSFER_OUT", origin.ID, origin.Type.String())
	case !origin.IsPending():
		return nil, domain.NewError(domain.ErrConflict, "el traspaso ya fue aprobado", origin.ID)
	case origin.ProductID != line.ProductID:
		return nil, domain.NewError(domain.ErrConflict, "el producto no coincide con el traspaso de origen", origin.ID)
	case !origin.Quantity.Equal(line.Quantity):
		return nil, domain.NewError(domain.ErrConflict, "la cantidad no coincide con el traspaso de origen",
			"origen="+origin.Quantity.String(), "entrada="+line.Quantity.String())
	case origin.LocationID == mctx.LocationID:
		return nil, domain.NewError(domain.ErrConflict, "el destino del traspaso no puede ser el mismo local", origin.ID)
	case origin.DestinationLocationID != nil && *origin.DestinationLocationID != mctx.LocationID:
		return nil, domain.NewError(domain.ErrConflict, "el traspaso está dirigido a otro local", origin.ID, *origin.DestinationLocationID)
	}
	return origin, nil
}

// originCost toma el CPP actual del StockItem de origen como costo de la entrada.
func originCost(ctx context.Context, repos TxRepos, origin *entity.Movement) (*decimal.Decimal, error) {
	item, err := repos.StockItems.GetByID(ctx, origin.StockItemID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Cost.IsPositive() {
		return nil, nil
	}
	return decPtr(item.Cost), nil
}

func cascadeFractions(ctx context.Context, repos TxRepos, parent *entity.Product, key entity.StockKey, parentCost decimal.Decimal, now time.Time) error {
	if parent.IsFraction() {
		return nil
	}
	children, err := repos.Products.ListFractionChildren(ctx, parent.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.ID == parent.ID || child.UnitsPerFraction <= 0 {
			continue
		}
		childKey := key
		childKey.ProductID = child.ID
		childItem, _, err := repos.StockItems.GetOrCreateForUpdate(ctx, childKey)
		if err != nil {
			return err
		}
		childItem.Cost = inventory.FractionCost(parentCost, child.UnitsPerFraction)
		childItem.UpdatedAt = now
		if err := repos.StockItems.Update(ctx, childItem); err != nil {
			return err
		}
	}
	return nil
}

func checkSupplier(ctx context.Context, repos TxRepos, businessID, supplierID string) error {
	s, err := repos.Suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.NewError(domain.ErrNotFound, "proveedor no encontrado", supplierID)
	}
	if s.BusinessID != businessID {
		return domain.NewError(domain.ErrReferential, "el proveedor no pertenece al negocio", supplierID)
	}
	return nil
}

func validateMovement(mctx MovementContext, lines []MovementLine) error {
	var missing []string
	if mctx.BusinessID == "" {
		missing = append(missing, "business_id")
	}
	if mctx.LocationID == "" {
		missing = append(missing, "location_id")
	}
	if mctx.UserID == "" {
		missing = append(missing, "user_id")
	}
	if !mctx.Type.Valid() {
		missing = append(missing, "tipo")
	}
	if len(missing) > 0 {
		return domain.NewError(domain.ErrValidation, "contexto de movimiento incompleto", missing...)
	}
	if len(lines) == 0 {
		return domain.NewError(domain.ErrValidation, "el movimiento no tiene líneas")
	}
	if mctx.DestinationLocationID != "" && mctx.Type != entity.MovementTransferOut {
		return domain.NewError(domain.ErrValidation, "destination_location_id solo aplica a TRANSFER_OUT")
	}
	if mctx.DestinationLocationID == mctx.LocationID && mctx.DestinationLocationID != "" {
		return domain.NewError(domain.ErrValidation, "el local destino debe ser distinto del origen")
	}

	var reasons []string
	for i, l := range lines {
		row := i + 1
		if l.ProductID == "" {
			reasons = append(reasons, fmt.Sprintf("línea %d: product_id requerido", row))
		}
		if !l.Quantity.IsPositive() {
			reasons = append(reasons, fmt.Sprintf("línea %d: la cantidad debe ser mayor que cero", row))
		}
		if mctx.Type.IsConsignment() && (l.SupplierID == nil || *l.SupplierID == "") {
			reasons = append(reasons, fmt.Sprintf("línea %d: %s requiere proveedor", row, mctx.Type))
		}
		if l.SalePrice != nil && l.SalePrice.IsNegative() {
			reasons = append(reasons, fmt.Sprintf("línea %d: el precio no puede ser negativo", row))
		}
		if l.OriginMovementID != nil && mctx.Type != entity.MovementTransferIn {
			reasons = append(reasons, fmt.Sprintf("línea %d: origin_movement_id solo aplica a TRANSFER_IN", row))
		}
	}
	if len(reasons) > 0 {
		return domain.NewError(domain.ErrValidation, "líneas de movimiento inválidas", reasons...)
	}
	return nil
}

// Publish publica los movimientos confirmados. Un fallo del broker no deshace el libro: se registra.
func (r *Recorder) Publish(ctx context.Context, movements []*entity.Movement) {
	if len(movements) == 0 {
		return
	}
	events := make([]dto.MovementEvent, 0, len(movements))
	for _, m := range movements {
		events = append(events, ToMovementEvent(m))
	}
	if err := r.publisher.PublishMovements(ctx, events); err != nil {
		r.log.Error().Err(err).Int("eventos", len(events)).Msg("publicar movimientos confirmados")
	}
}

// ToMovementEvent convierte un movimiento confirmado en evento.
func ToMovementEvent(m *entity.Movement) dto.MovementEvent {
	ev := dto.MovementEvent{
		MovementID:  m.ID,
		BusinessID:  m.BusinessID,
		LocationID:  m.LocationID,
		ProductID:   m.ProductID,
		StockItemID: m.StockItemID,
		Type:        m.Type.String(),
		Quantity:    m.Quantity,
		NewCost:     m.NewCost,
		UserID:      m.UserID,
		OccurredAt:  m.CreatedAt,
	}
	if m.State != nil {
		ev.State = string(*m.State)
	}
	return ev
}

// ToMovementResponse convierte un movimiento al DTO de salida.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	out := dto.MovementResponse{
		ID:                    m.ID,
		StockItemID:           m.StockItemID,
		LocationID:            m.LocationID,
		ProductID:             m.ProductID,
		Type:                  m.Type.String(),
		Quantity:              m.Quantity,
		PriorQuantity:         m.PriorQuantity,
		UnitCost:              m.UnitCost,
		TotalCost:             m.TotalCost,
		PriorCost:             m.PriorCost,
		NewCost:               m.NewCost,
		SupplierID:            m.SupplierID,
		ReferenceID:           m.ReferenceID,
		Reason:                m.Reason,
		DestinationLocationID: m.DestinationLocationID,
		UserID:                m.UserID,
		CreatedAt:             m.CreatedAt,
	}
	if m.State != nil {
		out.State = string(*m.State)
	}
	return out
}

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func strPtr(s string) *string { return &s }
