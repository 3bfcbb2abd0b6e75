// Package importer ingiere lotes grandes de inventario histórico: sanea y valida las líneas,
// detecta duplicados y las procesa en bloques, cada uno en su propia transacción.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/catalog"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

// ImportReason motivo registrado en los movimientos creados por una importación.
const ImportReason = "Importación de inventario"

// Options estrategia de tamaño y cotas de la importación.
type Options struct {
	// SingleTxThreshold lotes de hasta este tamaño van en una sola transacción.
	SingleTxThreshold int
	// ChunkSize tamaño de bloque para lotes mayores.
	ChunkSize int
	MaxLines  int
	Limits    Limits
}

// DefaultOptions valores por defecto (IMPORT_*).
func DefaultOptions() Options {
	return Options{
		SingleTxThreshold: 100,
		ChunkSize:         50,
		MaxLines:          5000,
		Limits:            DefaultLimits(),
	}
}

// ImportInput contexto y líneas crudas de una importación.
type ImportInput struct {
	BusinessID string
	LocationID string
	UserID     string
	Lines      []dto.ImportLineRequest
}

// Service orquesta la importación masiva sobre el registrador de movimientos.
type Service struct {
	txRunner   inventory.TxRunner
	recorder   *inventory.Recorder
	businesses repository.BusinessRepository
	products   repository.ProductRepository
	locker     ImportLocker
	log        *logger.Logger
	opts       Options
	now        func() time.Time
}

// NewService construye el servicio de importación. locker puede ser nil (sin candado).
func NewService(
	txRunner inventory.TxRunner,
	recorder *inventory.Recorder,
	businesses repository.BusinessRepository,
	products repository.ProductRepository,
	locker ImportLocker,
	log *logger.Logger,
	opts Options,
) *Service {
	def := DefaultOptions()
	if opts.SingleTxThreshold <= 0 {
		opts.SingleTxThreshold = def.SingleTxThreshold
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = def.MaxLines
	}
	if opts.Limits.MaxNameLength <= 0 {
		opts.Limits.MaxNameLength = def.Limits.MaxNameLength
	}
	if !opts.Limits.MaxQuantity.IsPositive() {
		opts.Limits.MaxQuantity = def.Limits.MaxQuantity
	}
	if !opts.Limits.MaxAmount.IsPositive() {
		opts.Limits.MaxAmount = def.Limits.MaxAmount
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		txRunner:   txRunner,
		recorder:   recorder,
		businesses: businesses,
		products:   products,
		locker:     locker,
		log:        log,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ImportBatch valida el lote completo antes de escribir y luego lo procesa por bloques.
//
// El resultado se devuelve también cuando hay error (filas inválidas, duplicados, bloque fallido)
// para que el llamador pueda mostrar el detalle. Los bloques confirmados permanecen guardados
// aunque falle uno posterior; los siguientes no se intentan y ProcessedCount indica desde dónde reanudar.
func (s *Service) ImportBatch(ctx context.Context, in ImportInput) (*dto.ImportResult, error) {
	// 1. Validación estructural
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	result := &dto.ImportResult{TotalLines: len(in.Lines), CommittedChunks: []dto.ImportChunk{}}

	// 2. Saneamiento y validación por línea (fail-fast: ninguna escritura si alguna falla)
	lines := make([]Line, 0, len(in.Lines))
	for i, raw := range in.Lines {
		line, reasons := SanitizeLine(i+1, raw, s.opts.Limits)
		if len(reasons) > 0 {
			result.Errors = append(result.Errors, dto.ImportLineError{Row: i + 1, Reasons: reasons})
			continue
		}
		lines = append(lines, line)
	}
	if len(result.Errors) > 0 {
		details := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			details = append(details, fmt.Sprintf("fila %d: %s", e.Row, strings.Join(e.Reasons, ", ")))
		}
		return result, domain.NewError(domain.ErrValidation,
			fmt.Sprintf("%d línea(s) inválida(s), no se importó nada", len(result.Errors)), details...)
	}

	// 3. Duplicados dentro del lote
	if dups := findDuplicates(lines); len(dups) > 0 {
		result.Duplicates = dups
		return result, domain.NewError(domain.ErrDuplicate, "líneas duplicadas (producto, proveedor) en el lote", dups...)
	}

	// Referencias antes de cualquier escritura
	if _, err := s.recorder.CheckLocation(ctx, in.BusinessID, in.LocationID); err != nil {
		return result, err
	}

	lockCtx, release, err := s.locker.Acquire(ctx, "import:"+in.BusinessID)
	if err != nil {
		return result, err
	}
	defer func() {
		// El candado se libera aunque ctx ya esté cancelado.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn().Err(err).Str("business_id", in.BusinessID).Msg("liberar candado de importación")
		}
	}()
	// Desde aquí todo corre bajo el candado: si se pierde, lockCtx se cancela.
	ctx = lockCtx

	// El tope se cuenta con el candado tomado para que otra importación no lo rebase en paralelo.
	if err := s.checkProductLimit(ctx, in.BusinessID, lines); err != nil {
		return result, err
	}

	// 4. Estrategia por tamaño y 5. agregación por bloque
	chunks := s.partition(len(lines))
	result.TotalChunks = len(chunks)
	memo := catalog.NewMemo()
	importID := uuid.New().String()

	var chunkErr error
	for i, ch := range chunks {
		if ctx.Err() != nil {
			err := context.Cause(ctx)
			chunkErr = err
			s.failChunk(result, ch, err, len(chunks)-i-1)
			break
		}
		var movements []*entity.Movement
		err := s.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
			resolver := catalog.NewResolver(repos.Categories, repos.Products, repos.Suppliers, memo)
			movements = movements[:0]
			for _, line := range lines[ch.FromRow-1 : ch.ToRow] {
				movs, err := s.applyLine(ctx, repos, resolver, in, importID, line)
				if err != nil {
					return fmt.Errorf("fila %d (%s): %w", line.Row, line.ProductName, err)
				}
				movements = append(movements, movs...)
			}
			return nil
		})
		if err != nil {
			// Si el bloque cayó por cancelación, se informa la causa (p. ej. candado perdido).
			if cause := context.Cause(ctx); cause != nil && !errors.Is(err, cause) {
				err = fmt.Errorf("%w: %w", cause, err)
			}
			memo.Discard()
			chunkErr = err
			s.failChunk(result, ch, err, len(chunks)-i-1)
			s.log.Error().Err(err).
				Str("import_id", importID).
				Int("bloque", ch.Index).
				Int("desde", ch.FromRow).
				Int("hasta", ch.ToRow).
				Msg("bloque de importación revertido")
			break
		}
		memo.Commit()
		result.CommittedChunks = append(result.CommittedChunks, ch)
		result.ProcessedCount += ch.ToRow - ch.FromRow + 1
		result.MovementsCreated += len(movements)
		s.recorder.Publish(ctx, movements)
		s.log.Info().
			Str("import_id", importID).
			Int("bloque", ch.Index).
			Int("de", len(chunks)).
			Int("lineas", ch.ToRow-ch.FromRow+1).
			Msg("bloque de importación confirmado")
	}
	result.CreatedCategories, result.CreatedProducts, result.CreatedSuppliers = memo.Created()

	if chunkErr == nil {
		result.Success = true
		return result, nil
	}
	if len(result.CommittedChunks) == 0 {
		return result, chunkErr
	}
	msg := fmt.Sprintf("importación parcial: %d de %d bloques confirmados (%d de %d líneas)",
		len(result.CommittedChunks), len(chunks), result.ProcessedCount, len(lines))
	failed := result.FailedChunk
	return result, &domain.Error{
		Kind:      domain.ErrPartialImport,
		Message:   msg,
		Details:   []string{fmt.Sprintf("bloque %d: filas %d-%d", failed.Index, failed.FromRow, failed.ToRow)},
		Cause:     chunkErr,
		Retryable: domain.IsRetryable(chunkErr),
	}
}

func (s *Service) validateInput(in ImportInput) error {
	var missing []string
	if in.BusinessID == "" {
		missing = append(missing, "business_id")
	}
	if in.LocationID == "" {
		missing = append(missing, "location_id")
	}
	if in.UserID == "" {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return domain.NewError(domain.ErrValidation, "contexto de importación incompleto", missing...)
	}
	if len(in.Lines) == 0 {
		return domain.NewError(domain.ErrValidation, "el lote no tiene líneas")
	}
	if len(in.Lines) > s.opts.MaxLines {
		return domain.NewError(domain.ErrLimitExceeded, "el lote excede el máximo de líneas",
			fmt.Sprintf("máximo=%d", s.opts.MaxLines), fmt.Sprintf("recibidas=%d", len(in.Lines)))
	}
	return nil
}

func findDuplicates(lines []Line) []string {
	firstRow := make(map[string]int, len(lines))
	reported := make(map[string]bool)
	var out []string
	for _, l := range lines {
		key := l.DuplicateKey()
		first, seen := firstRow[key]
		if !seen {
			firstRow[key] = l.Row
			continue
		}
		if reported[key] {
			continue
		}
		reported[key] = true
		label := l.ProductName
		if l.SupplierName != "" {
			label += " / " + l.SupplierName
		}
		out = append(out, fmt.Sprintf("%s (filas %d y %d)", label, first, l.Row))
	}
	return out
}

// checkProductLimit verifica que los productos existentes más los nuevos del lote no excedan el plan.
func (s *Service) checkProductLimit(ctx context.Context, businessID string, lines []Line) error {
	business, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return err
	}
	if business == nil {
		return domain.NewError(domain.ErrNotFound, "negocio no encontrado", businessID)
	}
	if business.ProductLimit <= 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(lines))
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductName]; ok {
			continue
		}
		seen[l.ProductName] = struct{}{}
		names = append(names, l.ProductName)
	}
	existing, err := s.products.ExistingNames(ctx, businessID, names)
	if err != nil {
		return err
	}
	current, err := s.products.CountByBusiness(ctx, businessID)
	if err != nil {
		return err
	}
	total := current + len(names) - len(existing)
	if !business.AllowsProducts(total) {
		return domain.NewError(domain.ErrLimitExceeded, "la importación excede el límite de productos del negocio",
			fmt.Sprintf("límite=%d", business.ProductLimit),
			fmt.Sprintf("actuales=%d", current),
			fmt.Sprintf("nuevos=%d", len(names)-len(existing)))
	}
	return nil
}

// partition divide n líneas en bloques (filas 1-based, ToRow inclusivo).
func (s *Service) partition(n int) []dto.ImportChunk {
	size := s.opts.ChunkSize
	if n <= s.opts.SingleTxThreshold {
		size = n
	}
	var out []dto.ImportChunk
	for from := 1; from <= n; from += size {
		to := from + size - 1
		if to > n {
			to = n
		}
		out = append(out, dto.ImportChunk{Index: len(out) + 1, FromRow: from, ToRow: to})
	}
	return out
}

func (s *Service) failChunk(result *dto.ImportResult, ch dto.ImportChunk, err error, skipped int) {
	result.FailedChunk = &dto.ImportChunkFailure{
		ImportChunk: ch,
		Reason:      err.Error(),
		Retryable:   domain.IsRetryable(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded),
	}
	result.SkippedChunks = skipped
}

// applyLine resuelve catálogo y registra la entrada inicial de una línea dentro de la transacción del bloque.
func (s *Service) applyLine(
	ctx context.Context,
	repos inventory.TxRepos,
	resolver *catalog.Resolver,
	in ImportInput,
	importID string,
	line Line,
) ([]*entity.Movement, error) {
	category, err := resolver.ResolveCategory(ctx, line.CategoryName, in.BusinessID)
	if err != nil {
		return nil, err
	}
	product, err := resolver.ResolveProduct(ctx, line.ProductName, category.ID, in.BusinessID)
	if err != nil {
		return nil, err
	}
	var supplierID *string
	if line.SupplierName != "" {
		supplier, err := resolver.ResolveSupplier(ctx, line.SupplierName, in.BusinessID)
		if err != nil {
			return nil, err
		}
		supplierID = &supplier.ID
	}

	if line.Quantity.IsZero() {
		return nil, s.registerWithoutStock(ctx, repos, in.LocationID, product.ID, supplierID, line)
	}

	mctx := inventory.MovementContext{
		BusinessID:  in.BusinessID,
		LocationID:  in.LocationID,
		UserID:      in.UserID,
		Type:        entity.MovementPurchase,
		Reason:      ImportReason,
		ReferenceID: importID,
	}
	ml := inventory.MovementLine{ProductID: product.ID, Quantity: line.Quantity}
	if line.IsConsignment {
		mctx.Type = entity.MovementConsignmentIn
		ml.SupplierID = supplierID
	} else {
		ml.PurchasedFrom = supplierID
	}
	if line.Cost.IsPositive() {
		cost := line.Cost
		ml.UnitCost = &cost
	}
	if line.Price.IsPositive() {
		price := line.Price
		ml.SalePrice = &price
	}
	return s.recorder.ApplyInTx(ctx, repos, mctx, []inventory.MovementLine{ml})
}

// registerWithoutStock da de alta el StockItem de una línea con cantidad 0: precio y, si el item
// es nuevo, costo. No escribe movimiento porque no hay cambio de existencia.
func (s *Service) registerWithoutStock(
	ctx context.Context,
	repos inventory.TxRepos,
	locationID, productID string,
	supplierID *string,
	line Line,
) error {
	key := entity.StockKey{ProductID: productID, LocationID: locationID}
	if line.IsConsignment && supplierID != nil {
		key.SupplierID = *supplierID
	}
	item, created, err := repos.StockItems.GetOrCreateForUpdate(ctx, key)
	if err != nil {
		return err
	}
	if line.Price.IsPositive() {
		item.Price = line.Price
	}
	if created && line.Cost.IsPositive() {
		item.Cost = line.Cost
	}
	item.UpdatedAt = s.now()
	return repos.StockItems.Update(ctx, item)
}
