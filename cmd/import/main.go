// import carga una planilla (.xlsx o .csv) en un local usando el mismo servicio de
// importación que la API: validación completa antes de escribir y bloques transaccionales.
//
// Uso: go run ./cmd/import -business <id> -location <id> -file inventario.xlsx
// Imprime el resultado en JSON. Código de salida: 0 completo, 2 importación parcial, 1 error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/importer"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/bootstrap"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/spreadsheet"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/config"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

func main() {
	var (
		file       = flag.String("file", "", "ruta de la planilla (.xlsx, .xlsm, .csv, .txt)")
		businessID = flag.String("business", "", "ID del negocio")
		locationID = flag.String("location", "", "ID del local destino")
		userID     = flag.String("user", "cli", "usuario registrado en los movimientos")
		timeout    = flag.Duration("timeout", 10*time.Minute, "tiempo máximo de la importación")
	)
	flag.Parse()
	if *file == "" || *businessID == "" || *locationID == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: os.Stderr})

	os.Exit(run(cfg, log, *file, importer.ImportInput{
		BusinessID: *businessID,
		LocationID: *locationID,
		UserID:     *userID,
	}, *timeout))
}

func run(cfg *config.Config, log *logger.Logger, path string, in importer.ImportInput, timeout time.Duration) int {
	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("abrir planilla")
		return 1
	}
	defer f.Close()

	in.Lines, err = spreadsheet.Parse(path, f)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("leer planilla")
		return 1
	}

	// Ctrl+C corta entre bloques: lo ya confirmado queda guardado.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	core, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("inicializar núcleo de inventario")
		return 1
	}
	defer core.Close()

	result, err := core.Importer.ImportBatch(ctx, in)
	if result != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			log.Error().Err(encErr).Msg("escribir resultado")
		}
	}
	switch {
	case err == nil:
		log.Info().Int("lines", len(in.Lines)).Msg("importación completada")
		return 0
	case errors.Is(err, domain.ErrPartialImport):
		log.Warn().Err(err).Int("processed", result.ProcessedCount).Msg("importación parcial: reanudar desde la línea siguiente")
		return 2
	default:
		log.Error().Err(err).Strs("details", domain.DetailsOf(err)).Msg("importación fallida")
		return 1
	}
}
