package catalog

import (
	"sync"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain/entity"
)

// Memo memoriza por nombre las entidades resueltas durante una corrida de importación.
// Lo creado dentro de una transacción queda "en espera" hasta Commit(); Discard() lo descarta
// si la transacción hizo Rollback, para no apuntar a filas que no existen.
type Memo struct {
	mu sync.Mutex

	categories map[string]*entity.Category
	products   map[string]*entity.Product
	suppliers  map[string]*entity.Supplier

	stagedCategories map[string]*entity.Category
	stagedProducts   map[string]*entity.Product
	stagedSuppliers  map[string]*entity.Supplier

	createdCategories int
	createdProducts   int
	createdSuppliers  int
	stagedCreated     [3]int
}

// NewMemo crea un memo vacío para una corrida.
func NewMemo() *Memo {
	m := &Memo{
		categories: make(map[string]*entity.Category),
		products:   make(map[string]*entity.Product),
		suppliers:  make(map[string]*entity.Supplier),
	}
	m.resetStaged()
	return m
}

func (m *Memo) resetStaged() {
	m.stagedCategories = make(map[string]*entity.Category)
	m.stagedProducts = make(map[string]*entity.Product)
	m.stagedSuppliers = make(map[string]*entity.Supplier)
	m.stagedCreated = [3]int{}
}

// Commit publica lo resuelto en la transacción actual.
func (m *Memo) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.stagedCategories {
		m.categories[k] = v
	}
	for k, v := range m.stagedProducts {
		m.products[k] = v
	}
	for k, v := range m.stagedSuppliers {
		m.suppliers[k] = v
	}
	m.createdCategories += m.stagedCreated[0]
	m.createdProducts += m.stagedCreated[1]
	m.createdSuppliers += m.stagedCreated[2]
	m.resetStaged()
}

// Discard olvida lo resuelto en la transacción actual.
func (m *Memo) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetStaged()
}

// Created devuelve cuántas categorías, productos y proveedores se crearon en transacciones confirmadas.
func (m *Memo) Created() (categories, products, suppliers int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createdCategories, m.createdProducts, m.createdSuppliers
}

func (m *Memo) category(key string) *entity.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.stagedCategories[key]; ok {
		return c
	}
	return m.categories[key]
}

func (m *Memo) putCategory(key string, c *entity.Category, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stagedCategories[key] = c
	if created {
		m.stagedCreated[0]++
	}
}

func (m *Memo) product(key string) *entity.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.stagedProducts[key]; ok {
		return p
	}
	return m.products[key]
}

func (m *Memo) putProduct(key string, p *entity.Product, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stagedProducts[key] = p
	if created {
		m.stagedCreated[1]++
	}
}

func (m *Memo) supplier(key string) *entity.Supplier {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stagedSuppliers[key]; ok {
		return s
	}
	return m.suppliers[key]
}

func (m *Memo) putSupplier(key string, s *entity.Supplier, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stagedSuppliers[key] = s
	if created {
		m.stagedCreated[2]++
	}
}
