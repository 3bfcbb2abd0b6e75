package entity

import "time"

// DefaultCategoryName categoría asignada a los productos importados sin categoría.
const DefaultCategoryName = "General"

// Category agrupa productos dentro de un negocio. Color es el color de despliegue (#rrggbb).
type Category struct {
	ID         string
	BusinessID string
	Name       string
	Color      string
	CreatedAt  time.Time
}
