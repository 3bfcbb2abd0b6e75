// Package bootstrap arma el núcleo de inventario a partir de la configuración:
// almacenamiento (postgres o memoria), Redis y Kafka opcionales.
package bootstrap

import (
	"context"
	"time"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/importer"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/cache"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/events"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/memory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/postgres"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/config"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

// Core servicios listos para usar y sus repositorios de lectura.
type Core struct {
	Recorder   *inventory.Recorder
	Analyzer   *inventory.CPPAnalyzer
	Importer   *importer.Service
	Businesses repository.BusinessRepository
	Locations  repository.LocationRepository
	StockItems repository.StockItemRepository
	// Health verifica el almacenamiento (ping al pool; nil en memoria).
	Health func(ctx context.Context) error

	closers []func()
}

// Close libera conexiones en orden inverso al de apertura.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Identificadores del negocio y local sembrados en modo memoria.
const (
	DemoBusinessID = "demo"
	DemoLocationID = "demo-local"
)

func seedDemo(ctx context.Context, s *memory.Store) error {
	now := time.Now().UTC()
	if err := s.Businesses().Create(ctx, &entity.Business{ID: DemoBusinessID, Name: "Negocio demo", CreatedAt: now, UpdatedAt: now}); err != nil {
		return err
	}
	return s.Locations().Create(ctx, &entity.Location{
		ID: DemoLocationID, BusinessID: DemoBusinessID, Name: "Local principal", CreatedAt: now, UpdatedAt: now,
	})
}

type storage struct {
	tx         inventory.TxRunner
	businesses repository.BusinessRepository
	locations  repository.LocationRepository
	products   repository.ProductRepository
	stockItems repository.StockItemRepository
	movements  repository.MovementRepository
}

// Build conecta la infraestructura según cfg y construye los servicios.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Core, error) {
	core := &Core{}

	var st storage
	switch cfg.App.StorageDriver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		if err := seedDemo(ctx, s); err != nil {
			return nil, err
		}
		st = storage{
			tx:         s,
			businesses: s.Businesses(),
			locations:  s.Locations(),
			products:   s.Products(),
			stockItems: s.StockItems(),
			movements:  s.Movements(),
		}
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		core.closers = append(core.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			core.Close()
			return nil, err
		}
		st = storage{
			tx:         postgres.NewTxRunner(pool),
			businesses: postgres.NewBusinessRepository(pool),
			locations:  postgres.NewLocationRepository(pool),
			products:   postgres.NewProductRepository(pool),
			stockItems: postgres.NewStockItemRepository(pool),
			movements:  postgres.NewMovementRepository(pool),
		}
		core.Health = pool.Ping
	}

	var (
		analysisCache inventory.AnalysisCache
		locker        importer.ImportLocker
	)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			core.Close()
			return nil, err
		}
		core.closers = append(core.closers, func() { _ = rdb.Close() })
		analysisCache = cache.NewAnalysisCache(rdb)
		locker = cache.NewImportLocker(rdb, time.Duration(cfg.Import.LockTTLSeconds)*time.Second, log.Component("import-lock"))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis habilitado (caché de análisis y candado de importación)")
	}

	var publisher inventory.EventPublisher
	if brokers := events.ParseBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.Kafka.MovementsTopic)
		core.closers = append(core.closers, func() {
			if err := kp.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar publicador kafka")
			}
		})
		publisher = kp
		log.Info().Strs("brokers", brokers).Str("topic", cfg.Kafka.MovementsTopic).Msg("publicación de movimientos en kafka habilitada")
	}

	core.Recorder = inventory.NewRecorder(st.tx, st.locations, publisher, log.Component("recorder"), inventory.RecorderOptions{
		AllowNegativeStock: cfg.Inventory.AllowNegativeStock,
	})
	core.Analyzer = inventory.NewCPPAnalyzer(st.stockItems, st.movements, st.products, analysisCache,
		time.Duration(cfg.CPP.CacheTTLSeconds)*time.Second, log.Component("cpp"))
	core.Importer = importer.NewService(st.tx, core.Recorder, st.businesses, st.products, locker, log.Component("importer"), importer.Options{
		SingleTxThreshold: cfg.Import.SingleTxThreshold,
		ChunkSize:         cfg.Import.ChunkSize,
		MaxLines:          cfg.Import.MaxLines,
		Limits: importer.Limits{
			MaxNameLength: cfg.Import.MaxNameLength,
			MaxQuantity:   cfg.Import.MaxQuantity,
			MaxAmount:     cfg.Import.MaxAmount,
		},
	})
	core.Businesses = st.businesses
	core.Locations = st.locations
	core.StockItems = st.stockItems
	return core, nil
}
