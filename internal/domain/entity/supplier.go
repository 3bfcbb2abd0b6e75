package entity

import "time"

// Supplier proveedor de mercancía. También es el dueño del stock en consignación.
type Supplier struct {
	ID         string
	BusinessID string
	Name       string
	CreatedAt  time.Time
}
