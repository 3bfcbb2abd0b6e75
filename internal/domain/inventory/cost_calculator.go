package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
)

// CostResult resultado del cálculo de costo promedio ponderado.
type CostResult struct {
	NewCost       decimal.Decimal
	PriorValue    decimal.Decimal // existencia anterior * costo anterior
	NewValue      decimal.Decimal // PriorValue + IncomingTotal
	NewQty        decimal.Decimal
	IncomingTotal decimal.Decimal // cantidad entrante * costo unitario entrante
}

// WeightedAverage implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
//
// Es la única autoridad aritmética del CPP: ningún otro componente recalcula la fórmula.
func WeightedAverage(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) (CostResult, error) {
	if !cantEntrada.IsPositive() {
		return CostResult{}, domain.NewError(domain.ErrPrecondition, "la cantidad entrante debe ser mayor que cero", cantEntrada.String())
	}
	if !costoEntrada.IsPositive() {
		return CostResult{}, domain.NewError(domain.ErrPrecondition, "el costo unitario entrante debe ser mayor que cero", costoEntrada.String())
	}
	if stockActual.IsNegative() {
		return CostResult{}, domain.NewError(domain.ErrPrecondition, "la existencia anterior no puede ser negativa", stockActual.String())
	}
	if costoActual.IsNegative() {
		return CostResult{}, domain.NewError(domain.ErrPrecondition, "el costo anterior no puede ser negativo", costoActual.String())
	}

	priorValue := stockActual.Mul(costoActual)
	incoming := cantEntrada.Mul(costoEntrada)
	res := CostResult{
		PriorValue:    priorValue,
		IncomingTotal: incoming,
		NewValue:      priorValue.Add(incoming),
		NewQty:        stockActual.Add(cantEntrada),
	}
	switch {
	case stockActual.IsZero():
		// Primera compra: el costo es exactamente el entrante, sin redondeo de la división.
		res.NewCost = costoEntrada
	case res.NewQty.IsPositive():
		res.NewCost = res.NewValue.Div(res.NewQty)
	default:
		res.NewCost = decimal.Zero
	}
	return res, nil
}

// FractionCost deriva el costo de un producto fracción a partir del costo del padre.
func FractionCost(parentCost decimal.Decimal, unitsPerFraction int) decimal.Decimal {
	if unitsPerFraction <= 0 {
		return decimal.Zero
	}
	return parentCost.Div(decimal.NewFromInt(int64(unitsPerFraction)))
}
