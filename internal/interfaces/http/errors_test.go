package http

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
)

func TestToErrorResponse(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		message   string
		retryable bool
	}{
		{"validación", domain.NewError(domain.ErrValidation, "cantidad inválida", "fila 2"), fiber.StatusBadRequest, "VALIDATION", "cantidad inválida", false},
		{"no encontrado envuelto", fmt.Errorf("capa: %w", domain.NewError(domain.ErrNotFound, "producto no encontrado")), fiber.StatusNotFound, "NOT_FOUND", "producto no encontrado", false},
		{"stock insuficiente", domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", domain.ErrInsufficientStock.Error(), false},
		{"conflicto reintentable", &domain.Error{Kind: domain.ErrConflict, Message: "serialización", Retryable: true}, fiber.StatusConflict, "CONFLICT", "serialización", true},
		{"parcial gana a la causa", &domain.Error{Kind: domain.ErrPartialImport, Message: "importación parcial", Cause: domain.ErrStorage}, fiber.StatusMultiStatus, "PARTIAL_IMPORT", "importación parcial", false},
		{"almacenamiento", domain.Wrap(domain.ErrStorage, "insertar", errors.New("conexión rechazada")), fiber.StatusInternalServerError, "STORAGE", "error interno", false},
		{"cancelado", context.Canceled, fiber.StatusServiceUnavailable, "CANCELED", context.Canceled.Error(), false},
		{"desconocido", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL", "error interno", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := toErrorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, tt.retryable, resp.Retryable)
		})
	}
}

func TestToErrorResponse_Detalles(t *testing.T) {
	_, resp := toErrorResponse(domain.NewError(domain.ErrDuplicate, "duplicado", "Azúcar", "Sal"))
	assert.Equal(t, []string{"Azúcar", "Sal"}, resp.Details)
}
