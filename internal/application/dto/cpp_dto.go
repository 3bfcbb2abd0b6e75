package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CPPHistoryEntry movimiento del historial de un StockItem anotado con su confiabilidad de costeo.
type CPPHistoryEntry struct {
	MovementResponse
	// TieneDatosCPP es false para movimientos sin snapshot de costeo completo (históricos).
	TieneDatosCPP bool `json:"tieneDatosCPP"`
}

// CPPAnalysis resumen de costeo de un StockItem calculado solo con movimientos confiables.
type CPPAnalysis struct {
	StockItemID              string           `json:"stock_item_id"`
	CurrentCost              decimal.Decimal  `json:"current_cost"`
	CurrentQty               decimal.Decimal  `json:"current_qty"`
	TotalPurchaseValue       decimal.Decimal  `json:"total_purchase_value"`
	TotalPurchasedQty        decimal.Decimal  `json:"total_purchased_qty"`
	AveragePurchaseCost      decimal.Decimal  `json:"average_purchase_cost"`
	LastReliablePurchaseCost *decimal.Decimal `json:"last_reliable_purchase_cost,omitempty"`
	LastReliablePurchaseDate *time.Time       `json:"last_reliable_purchase_date,omitempty"`
	ReliableMovements        int              `json:"reliable_movements"`
	CostBearingMovements     int              `json:"cost_bearing_movements"`
	ReliabilityPercentage    decimal.Decimal  `json:"reliability_percentage"`
}

// CPPDeviation StockItem cuyo costo actual se aleja del último costo de compra confiable.
type CPPDeviation struct {
	StockItemID           string          `json:"stock_item_id"`
	ProductID             string          `json:"product_id"`
	ProductName           string          `json:"product_name"`
	SupplierID            *string         `json:"supplier_id,omitempty"`
	CurrentCost           decimal.Decimal `json:"current_cost"`
	LastPurchaseCost      decimal.Decimal `json:"last_purchase_cost"`
	DeviationPercent      decimal.Decimal `json:"deviation_percent"`
	ReliabilityPercentage decimal.Decimal `json:"reliability_percentage"`
}
