package entity

import "time"

// Location representa un local o tienda del negocio donde se mantiene inventario (multi-local).
type Location struct {
	ID         string
	BusinessID string
	Name       string
	Address    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
