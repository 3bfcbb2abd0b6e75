package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario (enumeración cerrada).
type MovementType uint8

// Tipos de movimiento. El orden es parte del contrato de las tablas de abajo.
const (
	MovementPurchase MovementType = iota + 1
	MovementSale
	MovementAdjustmentIn
	MovementAdjustmentOut
	MovementConsignmentIn
	MovementConsignmentReturn
	MovementTransferOut
	MovementTransferIn
)

// Direction sentido del cambio de existencia que produce un tipo de movimiento.
type Direction int8

const (
	DirectionIn  Direction = 1
	DirectionOut Direction = -1
)

type movementTypeInfo struct {
	name        string
	direction   Direction
	costBearing bool
}

var movementTypes = [...]movementTypeInfo{
	MovementPurchase:          {"PURCHASE", DirectionIn, true},
	MovementSale:              {"SALE", DirectionOut, false},
	MovementAdjustmentIn:      {"ADJUSTMENT_IN", DirectionIn, false},
	MovementAdjustmentOut:     {"ADJUSTMENT_OUT", DirectionOut, false},
	MovementConsignmentIn:     {"CONSIGNMENT_IN", DirectionIn, true},
	MovementConsignmentReturn: {"CONSIGNMENT_RETURN", DirectionOut, false},
	MovementTransferOut:       {"TRANSFER_OUT", DirectionOut, false},
	MovementTransferIn:        {"TRANSFER_IN", DirectionIn, true},
}

// MovementTypes lista todos los tipos válidos en orden.
func MovementTypes() []MovementType {
	out := make([]MovementType, 0, len(movementTypes)-1)
	for t := MovementPurchase; t <= MovementTransferIn; t++ {
		out = append(out, t)
	}
	return out
}

// Valid indica si t es uno de los tipos declarados.
func (t MovementType) Valid() bool {
	return t >= MovementPurchase && int(t) < len(movementTypes)
}

func (t MovementType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("MovementType(%d)", uint8(t))
	}
	return movementTypes[t].name
}

// Direction devuelve +1 para entradas y -1 para salidas.
func (t MovementType) Direction() Direction {
	if !t.Valid() {
		return 0
	}
	return movementTypes[t].direction
}

// IsCostBearing indica si el tipo dispara el recálculo del CPP (PURCHASE, TRANSFER_IN, CONSIGNMENT_IN).
func (t MovementType) IsCostBearing() bool {
	return t.Valid() && movementTypes[t].costBearing
}

// IsConsignment indica si el tipo opera sobre stock de un proveedor en consignación.
func (t MovementType) IsConsignment() bool {
	return t == MovementConsignmentIn || t == MovementConsignmentReturn
}

// ParseMovementType convierte el nombre persistido/recibido en el tipo cerrado.
func ParseMovementType(s string) (MovementType, error) {
	for t := MovementPurchase; t <= MovementTransferIn; t++ {
		if movementTypes[t].name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("tipo de movimiento desconocido: %q", s)
}

// MarshalText serializa el tipo por nombre (JSON y columnas de texto).
func (t MovementType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tipo de movimiento inválido: %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText interpreta el nombre del tipo.
func (t *MovementType) UnmarshalText(b []byte) error {
	parsed, err := ParseMovementType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MovementState estado de un movimiento de traspaso.
type MovementState string

const (
	StatePending  MovementState = "PENDIENTE"
	StateApproved MovementState = "APROBADO"
)

// Movement es una entrada inmutable del libro de movimientos sobre un StockItem.
// Quantity siempre es positiva; el sentido lo da Type.Direction().
// Los campos de costeo (UnitCost, TotalCost, PriorCost, NewCost) solo existen en movimientos
// que recalcularon el CPP; PriorQuantity se registra siempre.
type Movement struct {
	ID                    string
	StockItemID           string
	BusinessID            string
	LocationID            string
	ProductID             string
	Type                  MovementType
	Quantity              decimal.Decimal
	PriorQuantity         *decimal.Decimal // existenciaAnterior
	UnitCost              *decimal.Decimal // costoUnitario
	TotalCost             *decimal.Decimal // costoTotal
	PriorCost             *decimal.Decimal // costoAnterior
	NewCost               *decimal.Decimal // costoNuevo
	SupplierID            *string          // proveedorId
	ReferenceID           *string          // referenciaId
	Reason                string           // motivo
	State                 *MovementState   // solo traspasos
	DestinationLocationID *string          // solo TRANSFER_OUT
	UserID                string
	CreatedAt             time.Time
}

// HasCostData indica si el movimiento trae el snapshot completo de costeo.
// Los movimientos anteriores a la instrumentación del CPP no lo tienen.
func (m *Movement) HasCostData() bool {
	if !m.Type.IsCostBearing() {
		return false
	}
	if m.PriorQuantity == nil || m.UnitCost == nil || m.TotalCost == nil || m.PriorCost == nil || m.NewCost == nil {
		return false
	}
	return m.UnitCost.IsPositive()
}

// IsPending indica si es un traspaso de salida aún no aprobado en destino.
func (m *Movement) IsPending() bool {
	return m.State != nil && *m.State == StatePending
}
