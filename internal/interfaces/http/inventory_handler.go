package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

// InventoryHandler maneja movimientos y análisis de CPP (protegido).
type InventoryHandler struct {
	recorder         *inventory.Recorder
	analyzer         *inventory.CPPAnalyzer
	stockItems       repository.StockItemRepository
	defaultThreshold decimal.Decimal
	log              *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	recorder *inventory.Recorder,
	analyzer *inventory.CPPAnalyzer,
	stockItems repository.StockItemRepository,
	defaultThreshold decimal.Decimal,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		recorder:         recorder,
		analyzer:         analyzer,
		stockItems:       stockItems,
		defaultThreshold: defaultThreshold,
		log:              log,
	}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "location_id, type, items (product_id, quantity, unit_cost, supplier_id, origin_movement_id)"
// @Success      201   {object}  dto.RegisterMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.recorder.RecordFromRequest(c.UserContext(), GetBusinessID(c), GetUserID(c), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CPPHistory godoc
// @Summary      Historial de movimientos de un StockItem con marca de datos de costeo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "StockItem ID"
// @Success      200  {array}   dto.CPPHistoryEntry
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-items/{id}/cpp-history [get]
func (h *InventoryHandler) CPPHistory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := h.authorizeStockItem(ctx, GetBusinessID(c), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	history, err := h.analyzer.HistoryFor(ctx, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(history)
}

// CPPAnalysis godoc
// @Summary      Análisis de confiabilidad del costo promedio de un StockItem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "StockItem ID"
// @Success      200  {object}  dto.CPPAnalysis
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-items/{id}/cpp-analysis [get]
func (h *InventoryHandler) CPPAnalysis(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := h.authorizeStockItem(ctx, GetBusinessID(c), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	analysis, err := h.analyzer.Analyze(ctx, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(analysis)
}

// CPPDeviations godoc
// @Summary      StockItems del local cuyo costo se desvía del último costo de compra confiable
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id         path   string  true   "Location ID"
// @Param        threshold  query  number  false  "Umbral en % (por defecto CPP_DEVIATION_THRESHOLD)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/locations/{id}/cpp-deviations [get]
func (h *InventoryHandler) CPPDeviations(c *fiber.Ctx) error {
	threshold := h.defaultThreshold
	if q := c.Query("threshold"); q != "" {
		t, err := decimal.NewFromString(q)
		if err != nil {
			return h.fail(c, domain.NewError(domain.ErrValidation, "umbral inválido", q))
		}
		threshold = t
	}
	ctx := c.UserContext()
	locationID := c.Params("id")
	if _, err := h.recorder.CheckLocation(ctx, GetBusinessID(c), locationID); err != nil {
		return h.fail(c, err)
	}
	deviations, err := h.analyzer.DetectDeviations(ctx, locationID, threshold)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"threshold":  threshold,
		"total":      len(deviations),
		"deviations": deviations,
	})
}

// authorizeStockItem responde NotFound si el item no existe o es de un local de otro negocio.
func (h *InventoryHandler) authorizeStockItem(ctx context.Context, businessID, stockItemID string) error {
	item, err := h.stockItems.GetByID(ctx, stockItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.NewError(domain.ErrNotFound, "stock item no encontrado", stockItemID)
	}
	if _, err := h.recorder.CheckLocation(ctx, businessID, item.LocationID); err != nil {
		return domain.NewError(domain.ErrNotFound, "stock item no encontrado", stockItemID)
	}
	return nil
}

func (h *InventoryHandler) fail(c *fiber.Ctx, err error) error {
	if status, _ := toErrorResponse(err); status >= fiber.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Path()).Str("business_id", GetBusinessID(c)).Msg("error en petición de inventario")
	}
	return writeError(c, err)
}
