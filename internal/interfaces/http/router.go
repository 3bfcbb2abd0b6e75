package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/importer"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/jwt"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Recorder           *inventory.Recorder
	Analyzer           *inventory.CPPAnalyzer
	Importer           *importer.Service
	StockItems         repository.StockItemRepository
	JWTSecret          string
	DeviationThreshold decimal.Decimal
	// Health chequeo del almacenamiento; nil responde siempre ok.
	Health  func(ctx context.Context) error
	Service string
	Log     *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Health != nil {
			if err := deps.Health(c.UserContext()); err != nil {
				log.Warn().Err(err).Msg("health check fallido")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": deps.Service})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.Service})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	inv := api.Group("/inventory", AuthMiddleware(deps.JWTSecret))

	inventoryHandler := NewInventoryHandler(deps.Recorder, deps.Analyzer, deps.StockItems, deps.DeviationThreshold, log)
	inv.Post("/movements",
		RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleSeller),
		inventoryHandler.RegisterMovement)

	importHandler := NewImportHandler(deps.Importer, log)
	importers := inv.Group("/import", RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleImporter))
	importers.Post("/", importHandler.ImportBatch)
	importers.Post("/file", importHandler.ImportFile)

	// Análisis de CPP: solo administración
	cpp := RequireRole(jwt.RoleAdmin, jwt.RoleManager)
	inv.Get("/stock-items/:id/cpp-history", cpp, inventoryHandler.CPPHistory)
	inv.Get("/stock-items/:id/cpp-analysis", cpp, inventoryHandler.CPPAnalysis)
	inv.Get("/locations/:id/cpp-deviations", cpp, inventoryHandler.CPPDeviations)
}
