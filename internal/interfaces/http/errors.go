package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
)

// errorStatus tabla tipo de error -> (status HTTP, código). El orden importa: una importación
// parcial envuelve la causa del bloque fallido y debe ganar sobre ella.
var errorStatus = []struct {
	kind   error
	status int
	code   string
}{
	{domain.ErrPartialImport, fiber.StatusMultiStatus, "PARTIAL_IMPORT"},
	{domain.ErrValidation, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrReferential, fiber.StatusUnprocessableEntity, "REFERENTIAL"},
	{domain.ErrPrecondition, fiber.StatusUnprocessableEntity, "PRECONDITION"},
	{domain.ErrLimitExceeded, fiber.StatusUnprocessableEntity, "LIMIT_EXCEEDED"},
	{context.Canceled, fiber.StatusServiceUnavailable, "CANCELED"},
	{context.DeadlineExceeded, fiber.StatusServiceUnavailable, "TIMEOUT"},
}

// toErrorResponse traduce un error del núcleo al cuerpo y status HTTP.
// Los errores sin clasificar (o de almacenamiento) responden 500 sin exponer la causa.
func toErrorResponse(err error) (int, dto.ErrorResponse) {
	resp := dto.ErrorResponse{
		Code:      "INTERNAL",
		Message:   "error interno",
		Retryable: domain.IsRetryable(err),
	}
	status := fiber.StatusInternalServerError
	for _, e := range errorStatus {
		if errors.Is(err, e.kind) {
			status, resp.Code = e.status, e.code
			resp.Message = err.Error()
			break
		}
	}
	var de *domain.Error
	if status != fiber.StatusInternalServerError && errors.As(err, &de) {
		resp.Message = de.Message
		resp.Details = de.Details
	}
	if status == fiber.StatusInternalServerError && errors.Is(err, domain.ErrStorage) {
		resp.Code = "STORAGE"
	}
	return status, resp
}

func writeError(c *fiber.Ctx, err error) error {
	status, resp := toErrorResponse(err)
	return c.Status(status).JSON(resp)
}
