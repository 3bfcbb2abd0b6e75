package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/importer"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/spreadsheet"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

// ImportHandler importación masiva de inventario (JSON o planilla).
type ImportHandler struct {
	service *importer.Service
	log     *logger.Logger
}

// NewImportHandler construye el handler.
func NewImportHandler(service *importer.Service, log *logger.Logger) *ImportHandler {
	return &ImportHandler{service: service, log: log}
}

// ImportBatch godoc
// @Summary      Importar inventario en lote
// @Description  Valida todo el lote antes de escribir; lotes grandes se procesan por bloques.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ImportBatchRequest  true  "location_id e items"
// @Success      200  {object}  dto.ImportBatchResponse
// @Success      207  {object}  dto.ImportBatchResponse  "importación parcial"
// @Failure      400  {object}  dto.ImportBatchResponse
// @Failure      409  {object}  dto.ImportBatchResponse
// @Router       /api/inventory/import [post]
func (h *ImportHandler) ImportBatch(c *fiber.Ctx) error {
	var in dto.ImportBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ImportBatchResponse{Message: "cuerpo inválido", ErrorCause: err.Error()})
	}
	return h.run(c, in.LocationID, in.Items)
}

// ImportFile godoc
// @Summary      Importar inventario desde planilla (.xlsx o .csv)
// @Tags         inventory
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        location_id  formData  string  true  "Local destino"
// @Param        file         formData  file    true  "Planilla"
// @Success      200  {object}  dto.ImportBatchResponse
// @Failure      400  {object}  dto.ImportBatchResponse
// @Router       /api/inventory/import/file [post]
func (h *ImportHandler) ImportFile(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ImportBatchResponse{Message: "falta el archivo (campo file)"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ImportBatchResponse{Message: "no se pudo leer el archivo", ErrorCause: err.Error()})
	}
	defer f.Close()

	lines, err := spreadsheet.Parse(fh.Filename, f)
	if err != nil {
		status, resp := toErrorResponse(err)
		return c.Status(status).JSON(dto.ImportBatchResponse{Message: resp.Message, ErrorCause: causeOf(err)})
	}
	return h.run(c, c.FormValue("location_id"), lines)
}

func (h *ImportHandler) run(c *fiber.Ctx, locationID string, lines []dto.ImportLineRequest) error {
	result, err := h.service.ImportBatch(c.UserContext(), importer.ImportInput{
		BusinessID: GetBusinessID(c),
		LocationID: locationID,
		UserID:     GetUserID(c),
		Lines:      lines,
	})
	if err == nil {
		return c.JSON(dto.ImportBatchResponse{
			Success: true,
			Message: "importación completada",
			Data:    result,
		})
	}

	status, resp := toErrorResponse(err)
	if status >= fiber.StatusInternalServerError {
		h.log.Error().Err(err).Str("business_id", GetBusinessID(c)).Msg("importación fallida")
	}
	return c.Status(status).JSON(dto.ImportBatchResponse{
		Message:    resp.Message,
		ErrorCause: causeOf(err),
		Data:       result,
	})
}

// causeOf texto de la causa raíz para errorCause (vacío si no hay).
func causeOf(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Cause != nil {
		return de.Cause.Error()
	}
	return ""
}
