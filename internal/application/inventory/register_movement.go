package inventory

import (
	"context"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

// RecordFromRequest adapta el request HTTP al registrador RecordMovements(ctx, MovementContext, lines).
// Usar desde handlers HTTP o desde otros casos de uso que tengan businessID, userID y dto.RegisterMovementRequest.
func (r *Recorder) RecordFromRequest(ctx context.Context, businessID, userID string, in dto.RegisterMovementRequest) (*dto.RegisterMovementResponse, error) {
	mt, err := entity.ParseMovementType(in.Type)
	if err != nil {
		return nil, domain.NewError(domain.ErrValidation, "tipo de movimiento inválido", in.Type)
	}
	mctx := MovementContext{
		BusinessID:            businessID,
		LocationID:            in.LocationID,
		UserID:                userID,
		Type:                  mt,
		Reason:                in.Reason,
		ReferenceID:           in.ReferenceID,
		DestinationLocationID: in.DestinationLocationID,
	}
	lines := make([]MovementLine, 0, len(in.Items))
	for _, it := range in.Items {
		line := MovementLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
			SalePrice: it.SalePrice,
		}
		if it.SupplierID != "" {
			// En una compra de stock propio el proveedor solo se registra; en el resto de tipos
			// identifica el StockItem en consignación (producto, local, proveedor).
			if mt == entity.MovementPurchase {
				line.PurchasedFrom = strPtr(it.SupplierID)
			} else {
				line.SupplierID = strPtr(it.SupplierID)
			}
		}
		if it.OriginMovementID != "" {
			line.OriginMovementID = strPtr(it.OriginMovementID)
		}
		lines = append(lines, line)
	}

	movements, err := r.RecordMovements(ctx, mctx, lines)
	if err != nil {
		return nil, err
	}
	out := &dto.RegisterMovementResponse{
		Message:   "movimiento registrado",
		Movements: make([]dto.MovementResponse, 0, len(movements)),
	}
	for _, m := range movements {
		out.Movements = append(out.Movements, ToMovementResponse(m))
	}
	return out, nil
}
