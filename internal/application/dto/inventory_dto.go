package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	LocationID            string                `json:"location_id"`
	Type                  string                `json:"type"`
	Reason                string                `json:"motivo,omitempty"`
	ReferenceID           string                `json:"referencia_id,omitempty"`
	DestinationLocationID string                `json:"destination_location_id,omitempty"`
	Items                 []MovementItemRequest `json:"items"`
}

// MovementItemRequest línea de un movimiento.
type MovementItemRequest struct {
	ProductID        string           `json:"product_id"`
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	SupplierID       string           `json:"supplier_id,omitempty"`
	SalePrice        *decimal.Decimal `json:"sale_price,omitempty"`
	OriginMovementID string           `json:"origin_movement_id,omitempty"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID                    string           `json:"id"`
	StockItemID           string           `json:"stock_item_id"`
	LocationID            string           `json:"location_id"`
	ProductID             string           `json:"product_id"`
	Type                  string           `json:"tipo"`
	Quantity              decimal.Decimal  `json:"cantidad"`
	PriorQuantity         *decimal.Decimal `json:"existenciaAnterior,omitempty"`
	UnitCost              *decimal.Decimal `json:"costoUnitario,omitempty"`
	TotalCost             *decimal.Decimal `json:"costoTotal,omitempty"`
	PriorCost             *decimal.Decimal `json:"costoAnterior,omitempty"`
	NewCost               *decimal.Decimal `json:"costoNuevo,omitempty"`
	SupplierID            *string          `json:"proveedorId,omitempty"`
	ReferenceID           *string          `json:"referenciaId,omitempty"`
	Reason                string           `json:"motivo,omitempty"`
	State                 string           `json:"state,omitempty"`
	DestinationLocationID *string          `json:"destination_location_id,omitempty"`
	UserID                string           `json:"user_id"`
	CreatedAt             time.Time        `json:"fecha"`
}

// RegisterMovementResponse respuesta de POST /api/inventory/movements.
type RegisterMovementResponse struct {
	Message   string             `json:"message"`
	Movements []MovementResponse `json:"movements"`
}

// MovementEvent evento publicado por cada movimiento confirmado.
type MovementEvent struct {
	MovementID  string           `json:"movement_id"`
	BusinessID  string           `json:"business_id"`
	LocationID  string           `json:"location_id"`
	ProductID   string           `json:"product_id"`
	StockItemID string           `json:"stock_item_id"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	NewCost     *decimal.Decimal `json:"new_cost,omitempty"`
	State       string           `json:"state,omitempty"`
	UserID      string           `json:"user_id"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
