package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/importer"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/memory"
	apphttp "github.com/adrianfdez469/cuadrecaja-sub000/internal/interfaces/http"
	pkgjwt "github.com/adrianfdez469/cuadrecaja-sub000/pkg/jwt"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

func buildInventoryApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Businesses().Create(ctx, &entity.Business{ID: "b-1", Name: "Mercadito"}))
	require.NoError(t, s.Businesses().Create(ctx, &entity.Business{ID: "b-2", Name: "Otro"}))
	require.NoError(t, s.Locations().Create(ctx, &entity.Location{ID: "l-1", BusinessID: "b-1", Name: "Centro"}))
	require.NoError(t, s.Locations().Create(ctx, &entity.Location{ID: "l-2", BusinessID: "b-2", Name: "Ajeno"}))
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p-1", BusinessID: "b-1", Name: "Aceite"}))

	rec := inventory.NewRecorder(s, s.Locations(), nil, logger.Nop(), inventory.RecorderOptions{AllowNegativeStock: true})
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Recorder:           rec,
		Analyzer:           inventory.NewCPPAnalyzer(s.StockItems(), s.Movements(), s.Products(), nil, 0, logger.Nop()),
		Importer:           importer.NewService(s, rec, s.Businesses(), s.Products(), nil, logger.Nop(), importer.DefaultOptions()),
		StockItems:         s.StockItems(),
		JWTSecret:          testJWTSecret,
		DeviationThreshold: decimal.NewFromInt(10),
		Service:            "test",
		Log:                logger.Nop(),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func purchase(qty, cost int64) dto.RegisterMovementRequest {
	c := decimal.NewFromInt(cost)
	return dto.RegisterMovementRequest{
		LocationID: "l-1",
		Type:       entity.MovementPurchase.String(),
		Items: []dto.MovementItemRequest{
			{ProductID: "p-1", Quantity: decimal.NewFromInt(qty), UnitCost: &c},
		},
	}
}

func TestRegisterMovement_Compra(t *testing.T) {
	app := buildInventoryApp(t)
	auth := bearer(t, "b-1", pkgjwt.RoleSeller)

	resp := doJSON(t, app, http.MethodPost, "/api/inventory/movements", auth, purchase(10, 5))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/inventory/movements", auth, purchase(10, 7))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	out := decode[dto.RegisterMovementResponse](t, resp)
	require.Len(t, out.Movements, 1)
	require.NotNil(t, out.Movements[0].NewCost)
	assert.True(t, out.Movements[0].NewCost.Equal(decimal.NewFromInt(6)), "got %s", out.Movements[0].NewCost)
}

func TestRegisterMovement_Errores(t *testing.T) {
	app := buildInventoryApp(t)

	tests := []struct {
		name   string
		auth   string
		body   any
		status int
		code   string
	}{
		{"rol sin permiso", bearer(t, "b-1", pkgjwt.RoleImporter), purchase(1, 1), fiber.StatusForbidden, "FORBIDDEN"},
		{"tipo inválido", bearer(t, "b-1", pkgjwt.RoleAdmin), dto.RegisterMovementRequest{LocationID: "l-1", Type: "REGALO"}, fiber.StatusBadRequest, "VALIDATION"},
		{"local de otro negocio", bearer(t, "b-2", pkgjwt.RoleAdmin), purchase(1, 1), fiber.StatusUnprocessableEntity, "REFERENTIAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/api/inventory/movements", tt.auth, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestCPPAnalysis_AislaNegocios(t *testing.T) {
	app := buildInventoryApp(t)
	resp := doJSON(t, app, http.MethodPost, "/api/inventory/movements", bearer(t, "b-1", pkgjwt.RoleAdmin), purchase(4, 25))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	stockItemID := decode[dto.RegisterMovementResponse](t, resp).Movements[0].StockItemID

	resp = doJSON(t, app, http.MethodGet, "/api/inventory/stock-items/"+stockItemID+"/cpp-analysis", bearer(t, "b-1", pkgjwt.RoleManager), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	analysis := decode[dto.CPPAnalysis](t, resp)
	assert.True(t, analysis.CurrentCost.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 1, analysis.ReliableMovements)

	resp = doJSON(t, app, http.MethodGet, "/api/inventory/stock-items/"+stockItemID+"/cpp-history", bearer(t, "b-1", pkgjwt.RoleAdmin), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	history := decode[[]dto.CPPHistoryEntry](t, resp)
	require.Len(t, history, 1)
	assert.True(t, history[0].TieneDatosCPP)

	resp = doJSON(t, app, http.MethodGet, "/api/inventory/stock-items/"+stockItemID+"/cpp-analysis", bearer(t, "b-2", pkgjwt.RoleAdmin), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/inventory/stock-items/no-existe/cpp-history", bearer(t, "b-1", pkgjwt.RoleAdmin), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/inventory/stock-items/"+stockItemID+"/cpp-analysis", bearer(t, "b-1", pkgjwt.RoleSeller), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCPPDeviations(t *testing.T) {
	app := buildInventoryApp(t)
	auth := bearer(t, "b-1", pkgjwt.RoleAdmin)

	resp := doJSON(t, app, http.MethodGet, "/api/inventory/locations/l-1/cpp-deviations?threshold=5", auth, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.EqualValues(t, 0, body["total"])

	resp = doJSON(t, app, http.MethodGet, "/api/inventory/locations/l-1/cpp-deviations?threshold=abc", auth, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/inventory/locations/l-2/cpp-deviations", auth, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestImportBatch_JSON(t *testing.T) {
	app := buildInventoryApp(t)
	auth := bearer(t, "b-1", pkgjwt.RoleImporter)

	resp := doJSON(t, app, http.MethodPost, "/api/inventory/import", auth, map[string]any{
		"location_id": "l-1",
		"items": []map[string]any{
			{"productName": "Harina", "categoryName": "Granos", "cost": 12.5, "price": "18", "quantity": 4},
			{"productName": "Sal", "cost": "3", "quantity": "10"},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[dto.ImportBatchResponse](t, resp)
	assert.True(t, out.Success)
	require.NotNil(t, out.Data)
	assert.Equal(t, 2, out.Data.CreatedProducts)
	assert.Equal(t, 2, out.Data.MovementsCreated)
}

func TestImportBatch_LineaInvalidaDevuelveDetalle(t *testing.T) {
	app := buildInventoryApp(t)
	auth := bearer(t, "b-1", pkgjwt.RoleManager)

	resp := doJSON(t, app, http.MethodPost, "/api/inventory/import", auth, map[string]any{
		"location_id": "l-1",
		"items": []map[string]any{
			{"productName": "Harina", "cost": "12", "quantity": "4"},
			{"productName": "Sal", "cost": "no-es-numero", "quantity": "10"},
		},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	out := decode[dto.ImportBatchResponse](t, resp)
	assert.False(t, out.Success)
	require.NotNil(t, out.Data)
	require.Len(t, out.Data.Errors, 1)
	assert.Equal(t, 2, out.Data.Errors[0].Row)
}

func TestImportFile_CSV(t *testing.T) {
	app := buildInventoryApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("location_id", "l-1"))
	fw, err := mw.CreateFormFile("file", "inventario.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Producto;Categoría;Costo;Precio;Cantidad\nLeche;Lácteos;20;25;6\nQueso;Lácteos;40;55;2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/import/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, "b-1", pkgjwt.RoleAdmin))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[dto.ImportBatchResponse](t, resp)
	require.NotNil(t, out.Data)
	assert.Equal(t, 2, out.Data.ProcessedCount)
	assert.Equal(t, 1, out.Data.CreatedCategories)
}

func TestImportFile_SinArchivo(t *testing.T) {
	app := buildInventoryApp(t)
	resp := doJSON(t, app, http.MethodPost, "/api/inventory/import/file", bearer(t, "b-1", pkgjwt.RoleAdmin), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := buildInventoryApp(t)
	resp := doJSON(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/inventory/import", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
