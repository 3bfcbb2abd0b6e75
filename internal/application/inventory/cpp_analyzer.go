package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

// MinReliabilityForDeviation confiabilidad mínima (%) para reportar una desviación de costo.
var MinReliabilityForDeviation = decimal.NewFromInt(50)

// CPPAnalyzer reporta historial y confiabilidad del costo promedio ponderado de cada StockItem.
// Solo lectura: nunca modifica StockItems ni movimientos.
type CPPAnalyzer struct {
	stockItems repository.StockItemRepository
	movements  repository.MovementRepository
	products   repository.ProductRepository
	cache      AnalysisCache
	cacheTTL   time.Duration
	log        *logger.Logger
}

// NewCPPAnalyzer construye el analizador. cache puede ser nil (sin caché).
func NewCPPAnalyzer(
	stockItems repository.StockItemRepository,
	movements repository.MovementRepository,
	products repository.ProductRepository,
	cache AnalysisCache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *CPPAnalyzer {
	if cache == nil {
		cache = NoopAnalysisCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CPPAnalyzer{
		stockItems: stockItems,
		movements:  movements,
		products:   products,
		cache:      cache,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// HistoryFor devuelve los movimientos del StockItem en orden ascendente, marcando cuáles traen
// datos de costeo completos.
func (a *CPPAnalyzer) HistoryFor(ctx context.Context, stockItemID string) ([]dto.CPPHistoryEntry, error) {
	if _, err := a.getItem(ctx, stockItemID); err != nil {
		return nil, err
	}
	movements, err := a.movements.ListByStockItem(ctx, stockItemID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CPPHistoryEntry, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.CPPHistoryEntry{
			MovementResponse: ToMovementResponse(m),
			TieneDatosCPP:    m.HasCostData(),
		})
	}
	return out, nil
}

// Analyze resume el costeo del StockItem usando solo movimientos con costo confiables.
func (a *CPPAnalyzer) Analyze(ctx context.Context, stockItemID string) (*dto.CPPAnalysis, error) {
	item, err := a.getItem(ctx, stockItemID)
	if err != nil {
		return nil, err
	}

	// La clave incluye UpdatedAt: cualquier movimiento sobre el item invalida la entrada.
	key := fmt.Sprintf("cpp:analysis:%s:%d", item.ID, item.UpdatedAt.UnixNano())
	if cached, ok, err := a.cache.Get(ctx, key); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("leer análisis CPP de caché")
	} else if ok {
		return cached, nil
	}

	movements, err := a.movements.ListByStockItem(ctx, stockItemID)
	if err != nil {
		return nil, err
	}
	res := analyze(item, movements)

	if err := a.cache.Set(ctx, key, res, a.cacheTTL); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("guardar análisis CPP en caché")
	}
	return res, nil
}

func analyze(item *entity.StockItem, movements []*entity.Movement) *dto.CPPAnalysis {
	res := &dto.CPPAnalysis{
		StockItemID:           item.ID,
		CurrentCost:           item.Cost,
		CurrentQty:            item.Quantity,
		TotalPurchaseValue:    decimal.Zero,
		TotalPurchasedQty:     decimal.Zero,
		AveragePurchaseCost:   decimal.Zero,
		ReliabilityPercentage: decimal.Zero,
	}
	for _, m := range movements {
		if !m.Type.IsCostBearing() {
			continue
		}
		res.CostBearingMovements++
		if !m.HasCostData() {
			continue
		}
		res.ReliableMovements++
		res.TotalPurchaseValue = res.TotalPurchaseValue.Add(m.Quantity.Mul(*m.UnitCost))
		res.TotalPurchasedQty = res.TotalPurchasedQty.Add(m.Quantity)

		// Historial ascendente: el último confiable sobrescribe.
		cost := *m.UnitCost
		at := m.CreatedAt
		res.LastReliablePurchaseCost = &cost
		res.LastReliablePurchaseDate = &at
	}
	if res.TotalPurchasedQty.IsPositive() {
		res.AveragePurchaseCost = res.TotalPurchaseValue.Div(res.TotalPurchasedQty).Round(4)
	}
	if res.CostBearingMovements > 0 {
		res.ReliabilityPercentage = decimal.NewFromInt(int64(res.ReliableMovements)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(res.CostBearingMovements))).
			Round(2)
	}
	return res
}

// DetectDeviations lista los StockItems del local cuyo costo actual difiere más de thresholdPercent %
// del último costo de compra confiable. Omite items con confiabilidad < 50 % o sin compras confiables.
// Orden: mayor desviación primero.
func (a *CPPAnalyzer) DetectDeviations(ctx context.Context, locationID string, thresholdPercent decimal.Decimal) ([]dto.CPPDeviation, error) {
	if thresholdPercent.IsNegative() {
		return nil, domain.NewError(domain.ErrValidation, "el umbral no puede ser negativo", thresholdPercent.String())
	}
	items, err := a.stockItems.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	out := make([]dto.CPPDeviation, 0)
	for _, item := range items {
		analysis, err := a.Analyze(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		if analysis.LastReliablePurchaseCost == nil || analysis.ReliabilityPercentage.LessThan(MinReliabilityForDeviation) {
			continue
		}
		last := *analysis.LastReliablePurchaseCost
		if !last.IsPositive() {
			continue
		}
		deviation := item.Cost.Sub(last).Abs().Div(last).Mul(hundred).Round(2)
		if !deviation.GreaterThan(thresholdPercent) {
			continue
		}

		var productName string
		if p, err := a.products.GetByID(ctx, item.ProductID); err != nil {
			return nil, err
		} else if p != nil {
			productName = p.Name
		}
		out = append(out, dto.CPPDeviation{
			StockItemID:           item.ID,
			ProductID:             item.ProductID,
			ProductName:           productName,
			SupplierID:            item.SupplierID,
			CurrentCost:           item.Cost,
			LastPurchaseCost:      last,
			DeviationPercent:      deviation,
			ReliabilityPercentage: analysis.ReliabilityPercentage,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DeviationPercent.Equal(out[j].DeviationPercent) {
			return out[i].DeviationPercent.GreaterThan(out[j].DeviationPercent)
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out, nil
}

func (a *CPPAnalyzer) getItem(ctx context.Context, stockItemID string) (*entity.StockItem, error) {
	item, err := a.stockItems.GetByID(ctx, stockItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NewError(domain.ErrNotFound, "stock item no encontrado", stockItemID)
	}
	return item, nil
}
