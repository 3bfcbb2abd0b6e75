// Package memory implementa los repositorios y el TxRunner en memoria.
// Se usa en pruebas y con STORAGE_DRIVER=memory para demos locales sin PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/repository"
)

// FaultFunc permite inyectar fallos en escrituras: op identifica la operación
// (ej. "movements.create") y key la fila afectada. Si devuelve error la escritura falla.
type FaultFunc func(op, key string) error

// Operaciones que pasan por FaultFunc.
const (
	OpBusinessCreate  = "businesses.create"
	OpLocationCreate  = "locations.create"
	OpCategoryCreate  = "categories.create"
	OpSupplierCreate  = "suppliers.create"
	OpProductCreate   = "products.create"
	OpStockItemCreate = "stock_items.create"
	OpStockItemUpdate = "stock_items.update"
	OpMovementCreate  = "movements.create"
	OpMovementApprove = "movements.approve"
)

type dataset struct {
	businesses    map[string]entity.Business
	locations     map[string]entity.Location
	categories    map[string]entity.Category
	suppliers     map[string]entity.Supplier
	products      map[string]entity.Product
	stockItems    map[string]entity.StockItem
	stockKeys     map[entity.StockKey]string
	movements     map[string]entity.Movement
	movementOrder []string
}

func newDataset() *dataset {
	return &dataset{
		businesses: make(map[string]entity.Business),
		locations:  make(map[string]entity.Location),
		categories: make(map[string]entity.Category),
		suppliers:  make(map[string]entity.Supplier),
		products:   make(map[string]entity.Product),
		stockItems: make(map[string]entity.StockItem),
		stockKeys:  make(map[entity.StockKey]string),
		movements:  make(map[string]entity.Movement),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copia el dataset. Las entidades se guardan por valor y sus campos puntero nunca se
// mutan en sitio, así que una copia de mapas basta para aislar la transacción.
func (d *dataset) clone() *dataset {
	return &dataset{
		businesses:    cloneMap(d.businesses),
		locations:     cloneMap(d.locations),
		categories:    cloneMap(d.categories),
		suppliers:     cloneMap(d.suppliers),
		products:      cloneMap(d.products),
		stockItems:    cloneMap(d.stockItems),
		stockKeys:     cloneMap(d.stockKeys),
		movements:     cloneMap(d.movements),
		movementOrder: append([]string(nil), d.movementOrder...),
	}
}

// Store almacén en memoria. Las transacciones se serializan con txMu (equivale a que todas
// bloqueen las mismas filas) y trabajan sobre una copia que se publica solo al confirmar.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *dataset

	faultMu sync.RWMutex
	fault   FaultFunc
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// InjectFault instala (o quita, con nil) la función de fallos.
func (s *Store) InjectFault(fn FaultFunc) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.fault = fn
}

func (s *Store) checkFault(op, key string) error {
	s.faultMu.RLock()
	fn := s.fault
	s.faultMu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(op, key)
}

// Run implementa inventory.TxRunner: fn trabaja sobre una copia; si devuelve nil la copia
// reemplaza al estado publicado, si no se descarta (Rollback).
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	tx := s.data.clone()
	s.mu.RUnlock()

	v := view{s: s, tx: tx}
	if err := fn(v.txRepos()); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}

	s.mu.Lock()
	s.data = tx
	s.mu.Unlock()
	return nil
}

// view acceso al dataset: tx != nil dentro de una transacción, si no el estado publicado.
type view struct {
	s  *Store
	tx *dataset
}

func (v view) read(fn func(d *dataset) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return fn(v.s.data)
}

func (v view) write(op, key string, fn func(d *dataset) error) error {
	if err := v.s.checkFault(op, key); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.txMu.Lock()
	defer v.s.txMu.Unlock()
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

func (v view) txRepos() inventory.TxRepos {
	return inventory.TxRepos{
		Movements:  &MovementRepo{v},
		StockItems: &StockItemRepo{v},
		Products:   &ProductRepo{v},
		Categories: &CategoryRepo{v},
		Suppliers:  &SupplierRepo{v},
	}
}

func (s *Store) root() view { return view{s: s} }

// Repositorios fuera de transacción (lecturas y altas sueltas).

func (s *Store) Businesses() repository.BusinessRepository { return &BusinessRepo{s.root()} }

func (s *Store) Locations() repository.LocationRepository { return &LocationRepo{s.root()} }

func (s *Store) Categories() repository.CategoryRepository { return &CategoryRepo{s.root()} }

func (s *Store) Suppliers() repository.SupplierRepository { return &SupplierRepo{s.root()} }

func (s *Store) Products() repository.ProductRepository { return &ProductRepo{s.root()} }

func (s *Store) StockItems() repository.StockItemRepository { return &StockItemRepo{s.root()} }

func (s *Store) Movements() repository.MovementRepository { return &MovementRepo{s.root()} }

// Counts devuelve el tamaño de cada colección; útil para verificar que un rollback no dejó filas.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"businesses":  len(s.data.businesses),
		"locations":   len(s.data.locations),
		"categories":  len(s.data.categories),
		"suppliers":   len(s.data.suppliers),
		"products":    len(s.data.products),
		"stock_items": len(s.data.stockItems),
		"movements":   len(s.data.movements),
	}
}
