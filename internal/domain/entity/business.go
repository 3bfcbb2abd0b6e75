package entity

import "time"

// Business representa el negocio (tenant) dueño de locales, catálogo y proveedores.
type Business struct {
	ID   string
	Name string
	// ProductLimit tope de productos del plan contratado; 0 = sin límite.
	ProductLimit int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllowsProducts informa si el negocio admite llegar a total productos.
func (b *Business) AllowsProducts(total int) bool {
	return b.ProductLimit <= 0 || total <= b.ProductLimit
}
